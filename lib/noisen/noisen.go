// Package noisen implements the single-message Noise "N" pattern
// (initiator ephemeral key, responder known static key) over X25519,
// ChaCha20-Poly1305, and SHA-256.
//
// The upstream flynn/noise HandshakeState does not expose the chaining key
// produced at the end of a handshake, which the modern-short tunnel build
// record format needs for its post-handshake key derivation chain. This
// package hand-rolls the N pattern instead, following the same shape as
// the teacher's own hand-rolled NoiseKDF, but built on a real HKDF rather
// than a bespoke HMAC chain.
package noisen

import (
	"crypto/sha256"

	"github.com/samber/oops"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// ProtocolName is the Noise protocol identifier for the N pattern used here.
const ProtocolName = "Noise_N_25519_ChaChaPoly_SHA256"

var zeroKey [32]byte

// DHFunc performs the X25519 scalar multiplication used by WriteMessage and
// ReadMessage. It is a variable, not a direct call, so tests can wrap it to
// count invocations — e.g. to prove the tunnel build record decryptor's
// cheap rejections short-circuit before any DH is attempted.
var DHFunc = curve25519.X25519

// State carries the symmetric handshake state: chaining key, handshake
// hash, and (once derived) a one-shot AEAD key. It is destroyed after a
// single message is sent or received, matching the N pattern's single
// round-trip shape.
type State struct {
	ck [32]byte // chaining key
	h  [32]byte // handshake hash
	k  [32]byte // current symmetric key, valid once a DH has been mixed in
}

// New initializes handshake state for the N pattern with an empty
// prologue. The initial chaining key and handshake hash are the protocol
// name, zero-padded to 32 bytes when it fits (as ProtocolName does) and
// hashed otherwise, per Noise §5.3.
func New() *State {
	s := &State{}
	if len(ProtocolName) <= 32 {
		copy(s.h[:], ProtocolName)
	} else {
		s.h = sha256.Sum256([]byte(ProtocolName))
	}
	s.ck = s.h
	// N pattern pre-message: responder's static public key is mixed into h
	// by the caller via MixHash before WriteMessage/ReadMessage, since the
	// key is only known to the caller, not this package.
	return s
}

// MixHash folds data into the running handshake hash.
func (s *State) MixHash(data []byte) {
	h := sha256.Sum256(append(append([]byte{}, s.h[:]...), data...))
	s.h = h
}

// mixKey performs Noise's MixKey step: HKDF(ck, dhOutput) -> new ck, new k.
func (s *State) mixKey(dhOutput []byte) error {
	ck, k, err := hkdfTwoKeys(s.ck[:], dhOutput, nil)
	if err != nil {
		return err
	}
	copy(s.ck[:], ck)
	copy(s.k[:], k)
	return nil
}

// ChainingKey returns the chaining key as it stands after the handshake's
// single DH. Callers use this to derive additional keys beyond the
// transport key, per the modern-short record's derivation chain.
func (s *State) ChainingKey() [32]byte {
	return s.ck
}

// HandshakeHash returns the running handshake hash.
func (s *State) HandshakeHash() [32]byte {
	return s.h
}

// WriteMessage runs the initiator side of the N pattern: generate (already
// generated by the caller as ePriv/ePub), mix the ephemeral public key into
// h, perform DH(e, responderStatic), mix that into the key, then encrypt
// payload with the resulting key and nonce 0. It returns the wire message:
// the 32-byte ephemeral public key followed by the AEAD ciphertext+tag.
func (s *State) WriteMessage(ePriv, ePub [32]byte, responderStatic [32]byte, payload []byte) ([]byte, error) {
	s.MixHash(ePub[:])

	dh, err := DHFunc(ePriv[:], responderStatic[:])
	if err != nil {
		return nil, oops.Wrapf(err, "performing DH(e, rs)")
	}
	if err := s.mixKey(dh); err != nil {
		return nil, err
	}

	ct, err := s.encryptAndHash(payload)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 32+len(ct))
	copy(out, ePub[:])
	copy(out[32:], ct)
	return out, nil
}

// ReadMessage runs the responder side of the N pattern: parse the
// initiator's ephemeral public key from msg, mix it into h, perform
// DH(ourStatic, e), mix that into the key, then decrypt the remaining
// ciphertext.
func (s *State) ReadMessage(ourStaticPriv [32]byte, msg []byte) (payload []byte, remoteEphemeral [32]byte, err error) {
	if len(msg) < 32+chacha20poly1305.Overhead {
		return nil, remoteEphemeral, oops.Wrapf(ErrShortMessage, "message of %d bytes too short for N pattern", len(msg))
	}
	copy(remoteEphemeral[:], msg[:32])
	s.MixHash(remoteEphemeral[:])

	dh, err := DHFunc(ourStaticPriv[:], remoteEphemeral[:])
	if err != nil {
		return nil, remoteEphemeral, oops.Wrapf(err, "performing DH(s, re)")
	}
	if err := s.mixKey(dh); err != nil {
		return nil, remoteEphemeral, err
	}

	payload, err = s.decryptAndHash(msg[32:])
	if err != nil {
		return nil, remoteEphemeral, err
	}
	return payload, remoteEphemeral, nil
}

func (s *State) encryptAndHash(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.k[:])
	if err != nil {
		return nil, oops.Wrapf(err, "constructing AEAD")
	}
	var nonce [12]byte
	ct := aead.Seal(nil, nonce[:], plaintext, s.h[:])
	s.MixHash(ct)
	return ct, nil
}

func (s *State) decryptAndHash(ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.k[:])
	if err != nil {
		return nil, oops.Wrapf(err, "constructing AEAD")
	}
	var nonce [12]byte
	pt, err := aead.Open(nil, nonce[:], ciphertext, s.h[:])
	if err != nil {
		return nil, ErrOpenFailed
	}
	s.MixHash(ciphertext)
	return pt, nil
}

// Destroy zeroes the handshake state's secret material.
func (s *State) Destroy() {
	s.ck = zeroKey
	s.h = zeroKey
	s.k = zeroKey
}
