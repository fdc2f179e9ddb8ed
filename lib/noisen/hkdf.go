package noisen

import (
	"crypto/sha256"
	"io"

	"github.com/samber/oops"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrShortMessage is returned when a wire message is too short to
	// contain an ephemeral public key and an AEAD tag.
	ErrShortMessage = oops.Errorf("noise message too short for the N pattern")
	// ErrOpenFailed is returned when AEAD decryption fails, either because
	// the key is wrong or the ciphertext was tampered with.
	ErrOpenFailed = oops.Errorf("noise AEAD open failed")
)

// hkdfTwoKeys runs HKDF-Extract-and-Expand with salt=ck and input keying
// material ikm, yielding two 32-byte outputs, matching Noise's MixKey step
// (§5.2 of the Noise spec) when ikm is a DH output, and the modern-short
// record's explicit derivation chain when ikm is empty and info carries a
// label instead.
func hkdfTwoKeys(ck, ikm, info []byte) (k1, k2 []byte, err error) {
	r := hkdf.New(sha256.New, ikm, ck, info)
	k1 = make([]byte, 32)
	k2 = make([]byte, 32)
	if _, err = io.ReadFull(r, k1); err != nil {
		return nil, nil, oops.Wrapf(err, "HKDF expand first output")
	}
	if _, err = io.ReadFull(r, k2); err != nil {
		return nil, nil, oops.Wrapf(err, "HKDF expand second output")
	}
	return k1, k2, nil
}

// DeriveLabel runs the same HKDF step with empty input keying material and
// label as info, returning the next chaining key and one 32-byte output. It
// is used by the build record derivation chain for SMTunnelReplyKey,
// SMTunnelLayerKey, TunnelLayerIVKey, and RGarlicKeyAndTag.
func DeriveLabel(ck []byte, label string) (nextCK, out [32]byte, err error) {
	k1, k2, err := hkdfTwoKeys(ck, nil, []byte(label))
	if err != nil {
		return nextCK, out, err
	}
	copy(nextCK[:], k1)
	copy(out[:], k2)
	return nextCK, out, nil
}
