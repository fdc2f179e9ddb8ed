package buildrecord

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/openpgp/elgamal"

	"github.com/go-i2p/tunnelbuildrecord/lib/noisen"
)

// RecipientKey identifies the public key a record is being encrypted to.
type RecipientKey struct {
	Type   KeyType
	ElG    *elgamal.PublicKey // set when Type == KeyTypeElGamal2048
	X25519 [32]byte           // set when Type == KeyTypeX25519
}

// DerivedKeys holds the post-handshake key material produced for modern
// records. It is returned independently of the cleartext buffer so a caller
// can zero the cleartext while retaining these keys.
type DerivedKeys struct {
	ChachaReplyKey [32]byte
	ChachaReplyAD  [32]byte

	// Populated for modern-short records only.
	HasShortKeys bool
	LayerKey     [32]byte
	IVKey        [32]byte

	// Populated for modern-short outbound-endpoint records only.
	HasGarlicKeys bool
	GarlicKey     [32]byte
	GarlicTag     [32]byte
}

// RecordEncryptor encrypts cleartext build records to a recipient, dispatching
// on recipient key type and cleartext length to select the wire format.
type RecordEncryptor struct {
	keys EphemeralKeyFactory
	rnd  Random
}

// NewRecordEncryptor returns a RecordEncryptor drawing ephemeral keys from keys
// and the legacy ElGamal random exponent from rnd.
func NewRecordEncryptor(keys EphemeralKeyFactory, rnd Random) *RecordEncryptor {
	return &RecordEncryptor{keys: keys, rnd: rnd}
}

// Encrypt produces the wire record for cleartext, addressed to recipient and
// prefixed by recipientIdentityHash truncated to 16 bytes. For modern
// formats it also returns the DerivedKeys produced by the handshake.
func (e *RecordEncryptor) Encrypt(cleartext []byte, recipient RecipientKey, recipientIdentityHash Hash) ([]byte, *DerivedKeys, error) {
	format, ok := formatForCleartextLen(len(cleartext))
	if !ok {
		return nil, nil, oops.Wrapf(ErrMalformedCleartext, "cleartext length %d matches no known format", len(cleartext))
	}

	switch format {
	case FormatLegacy:
		if recipient.Type != KeyTypeElGamal2048 {
			return nil, nil, ErrUnsupportedKeyType
		}
		return e.encryptLegacy(cleartext, recipient.ElG, recipientIdentityHash)
	default:
		if recipient.Type != KeyTypeX25519 {
			return nil, nil, ErrUnsupportedKeyType
		}
		return e.encryptModern(cleartext, format, recipient.X25519, recipientIdentityHash)
	}
}

func (e *RecordEncryptor) encryptLegacy(cleartext []byte, pub *elgamal.PublicKey, identHash Hash) ([]byte, *DerivedKeys, error) {
	payload, err := legacyElgamalEncrypt(pub, cleartext, e.rnd)
	if err != nil {
		return nil, nil, err
	}
	wire := make([]byte, peerSize+len(payload))
	copy(wire, identHash[:peerSize])
	copy(wire[peerSize:], payload)
	log.WithField("format", FormatLegacy).Debug("encrypted build record")
	return wire, nil, nil
}

func (e *RecordEncryptor) encryptModern(cleartext []byte, format Format, recipientPub [32]byte, identHash Hash) ([]byte, *DerivedKeys, error) {
	ePriv, ePub, err := e.keys.Generate()
	if err != nil {
		return nil, nil, oops.Wrapf(err, "generating ephemeral key pair")
	}

	state := noisen.New()
	state.MixHash(recipientPub[:])
	defer state.Destroy()

	msg, err := state.WriteMessage(ePriv, ePub, recipientPub, cleartext)
	if err != nil {
		return nil, nil, oops.Wrapf(err, "running Noise N initiator handshake")
	}

	wire := make([]byte, peerSize+len(msg))
	copy(wire, identHash[:peerSize])
	copy(wire[peerSize:], msg)

	ck := state.ChainingKey()
	h := state.HandshakeHash()

	derived := &DerivedKeys{ChachaReplyKey: ck, ChachaReplyAD: h}

	if format == FormatModernShort {
		isOBEP := cleartext[shortOffFlag]&flagOutboundEndpoint != 0
		if err := deriveShortKeys(ck, isOBEP, derived); err != nil {
			return nil, nil, err
		}
	}

	log.WithField("format", format).Debug("encrypted build record")
	return wire, derived, nil
}

// deriveShortKeys runs the modern-short post-handshake HKDF chain,
// populating derived in place.
func deriveShortKeys(ck [32]byte, isOBEP bool, derived *DerivedKeys) error {
	ck1, replyKey, err := noisen.DeriveLabel(ck[:], "SMTunnelReplyKey")
	if err != nil {
		return oops.Wrapf(err, "deriving SMTunnelReplyKey")
	}
	ck2, layerKey, err := noisen.DeriveLabel(ck1[:], "SMTunnelLayerKey")
	if err != nil {
		return oops.Wrapf(err, "deriving SMTunnelLayerKey")
	}

	derived.HasShortKeys = true
	derived.ChachaReplyKey = replyKey
	derived.LayerKey = layerKey

	if !isOBEP {
		derived.IVKey = ck2
		return nil
	}

	ck3, ivKey, err := noisen.DeriveLabel(ck2[:], "TunnelLayerIVKey")
	if err != nil {
		return oops.Wrapf(err, "deriving TunnelLayerIVKey")
	}
	derived.IVKey = ivKey

	garlicTag, garlicKey, err := noisen.DeriveLabel(ck3[:], "RGarlicKeyAndTag")
	if err != nil {
		return oops.Wrapf(err, "deriving RGarlicKeyAndTag")
	}
	derived.HasGarlicKeys = true
	derived.GarlicTag = garlicTag
	derived.GarlicKey = garlicKey
	return nil
}
