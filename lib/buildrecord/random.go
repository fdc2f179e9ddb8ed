package buildrecord

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/samber/oops"
)

// Random is the source of cryptographic randomness for padding, ephemeral
// keys, and the anti-correlation back-dating offset. An external collaborator
// so tests can substitute a deterministic source.
type Random interface {
	io.Reader
}

// NewSystemRandom returns a Random backed by crypto/rand.Reader.
func NewSystemRandom() Random {
	return rand.Reader
}

// fillRandom fills buf entirely from rnd, wrapping short reads as an error.
func fillRandom(rnd Random, buf []byte) error {
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return oops.Wrapf(err, "reading random bytes")
	}
	return nil
}

// randomBackdateMillis draws a uniform offset in [0, windowMs) to be
// subtracted from the current time before quantization, defeating correlation of
// build requests that would otherwise land on identical quantum boundaries.
func randomBackdateMillis(rnd Random, windowMs int64) (int64, error) {
	if windowMs <= 0 {
		return 0, nil
	}
	var buf [8]byte
	if err := fillRandom(rnd, buf[:]); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(buf[:])
	return int64(v % uint64(windowMs)), nil
}
