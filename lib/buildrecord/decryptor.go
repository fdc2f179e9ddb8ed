package buildrecord

import (
	"crypto/subtle"

	"github.com/samber/oops"
	"golang.org/x/crypto/openpgp/elgamal"

	"github.com/go-i2p/tunnelbuildrecord/lib/noisen"
)

// LocalKey identifies the private key a wire record is being decrypted
// with. X25519Pub is required alongside X25519Priv so the decryptor can
// perform the self-key rejection check without a scalar multiplication.
type LocalKey struct {
	Type       KeyType
	ElG        *elgamal.PrivateKey
	X25519Priv [32]byte
	X25519Pub  [32]byte
}

// RecordDecryptor reverses RecordEncryptor, rejecting malformed modern
// wire records cheaply before running any DH.
type RecordDecryptor struct{}

// NewRecordDecryptor returns a RecordDecryptor.
func NewRecordDecryptor() *RecordDecryptor {
	return &RecordDecryptor{}
}

// Decrypt recovers the cleartext from an encrypted wire record. Callers
// must have already confirmed the record's 16-byte selector prefix matches
// their own identity hash before calling this.
func (d *RecordDecryptor) Decrypt(wire []byte, local LocalKey) ([]byte, *DerivedKeys, error) {
	if len(wire) < peerSize {
		return nil, nil, oops.Wrapf(ErrDecryptFailed, "wire record shorter than selector prefix")
	}
	if _, ok := formatForWireLen(len(wire)); !ok {
		return nil, nil, ErrDecryptFailed
	}
	payload := wire[peerSize:]

	switch local.Type {
	case KeyTypeElGamal2048:
		return d.decryptLegacy(payload, local.ElG)
	case KeyTypeX25519:
		return d.decryptModern(payload, local)
	default:
		return nil, nil, ErrUnsupportedKeyType
	}
}

func (d *RecordDecryptor) decryptLegacy(payload []byte, priv *elgamal.PrivateKey) ([]byte, *DerivedKeys, error) {
	if len(payload) != 512 {
		return nil, nil, ErrDecryptFailed
	}
	cleartext, err := legacyElgamalDecrypt(priv, payload)
	if err != nil {
		log.WithError(err).Debug("legacy decrypt failed")
		return nil, nil, ErrDecryptFailed
	}
	return cleartext, nil, nil
}

func (d *RecordDecryptor) decryptModern(payload []byte, local LocalKey) ([]byte, *DerivedKeys, error) {
	const overhead = 32 + 16
	if len(payload) < overhead {
		return nil, nil, ErrDecryptFailed
	}
	ephPub := payload[:32]

	// Cheap rejections, in order, before any scalar multiplication.
	if ephPub[31]&0x80 != 0 {
		log.Debug("rejecting ephemeral key with set MSB")
		return nil, nil, ErrDecryptFailed
	}
	if subtle.ConstantTimeCompare(ephPub, local.X25519Pub[:]) == 1 {
		log.Debug("rejecting ephemeral key equal to our own public key")
		return nil, nil, ErrDecryptFailed
	}
	var zero [32]byte
	if subtle.ConstantTimeCompare(ephPub, zero[:]) == 1 {
		log.Debug("rejecting all-zero ephemeral key")
		return nil, nil, ErrDecryptFailed
	}

	cleartextLen := len(payload) - overhead
	format, ok := formatForCleartextLen(cleartextLen)
	if !ok {
		return nil, nil, ErrDecryptFailed
	}

	state := noisen.New()
	state.MixHash(local.X25519Pub[:])
	defer state.Destroy()

	cleartext, _, err := state.ReadMessage(local.X25519Priv, payload)
	if err != nil {
		log.WithError(err).Debug("modern decrypt AEAD open failed")
		return nil, nil, ErrDecryptFailed
	}

	ck := state.ChainingKey()
	h := state.HandshakeHash()
	derived := &DerivedKeys{ChachaReplyKey: ck, ChachaReplyAD: h}

	if format == FormatModernShort {
		isOBEP := cleartext[shortOffFlag]&flagOutboundEndpoint != 0
		if err := deriveShortKeys(ck, isOBEP, derived); err != nil {
			return nil, nil, ErrDecryptFailed
		}
	}

	log.WithField("format", format).Debug("decrypted build record")
	return cleartext, derived, nil
}
