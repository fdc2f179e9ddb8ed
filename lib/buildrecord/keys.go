package buildrecord

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/curve25519"
)

// EphemeralKeyFactory generates the per-record ephemeral X25519 keypair used
// on the modern encryption paths. An external collaborator so tests can
// inject fixed keys and count invocations.
type EphemeralKeyFactory interface {
	Generate() (priv, pub [32]byte, err error)
}

// x25519KeyFactory is the default EphemeralKeyFactory, drawing the private
// scalar from a Random and clamping it per RFC 7748 via curve25519.X25519.
type x25519KeyFactory struct {
	rnd Random
}

// NewX25519KeyFactory returns an EphemeralKeyFactory backed by rnd.
func NewX25519KeyFactory(rnd Random) EphemeralKeyFactory {
	return &x25519KeyFactory{rnd: rnd}
}

func (f *x25519KeyFactory) Generate() (priv, pub [32]byte, err error) {
	if err = fillRandom(f.rnd, priv[:]); err != nil {
		return priv, pub, err
	}
	pubSlice, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, oops.Wrapf(err, "deriving X25519 public key")
	}
	copy(pub[:], pubSlice)
	return priv, pub, nil
}
