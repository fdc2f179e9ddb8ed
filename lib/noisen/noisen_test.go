package noisen

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"
)

func genKeyPair(t *testing.T) (priv, pub [32]byte) {
	t.Helper()
	_, err := io.ReadFull(rand.Reader, priv[:])
	require.NoError(t, err)
	pubSlice, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	require.NoError(t, err)
	copy(pub[:], pubSlice)
	return priv, pub
}

func TestHandshakeRoundTrip(t *testing.T) {
	sPriv, sPub := genKeyPair(t)
	ePriv, ePub := genKeyPair(t)

	initiator := New()
	initiator.MixHash(sPub[:])
	payload := []byte("tunnel build record cleartext payload")
	msg, err := initiator.WriteMessage(ePriv, ePub, sPub, payload)
	require.NoError(t, err)
	require.Equal(t, 32+len(payload)+16, len(msg))

	responder := New()
	responder.MixHash(sPub[:])
	got, gotEph, err := responder.ReadMessage(sPriv, msg)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, ePub, gotEph)
	require.Equal(t, initiator.ChainingKey(), responder.ChainingKey())
	require.Equal(t, initiator.HandshakeHash(), responder.HandshakeHash())
}

func TestReadMessageRejectsTamperedCiphertext(t *testing.T) {
	sPriv, sPub := genKeyPair(t)
	ePriv, ePub := genKeyPair(t)

	initiator := New()
	initiator.MixHash(sPub[:])
	msg, err := initiator.WriteMessage(ePriv, ePub, sPub, []byte("hello"))
	require.NoError(t, err)
	msg[len(msg)-1] ^= 0xFF

	responder := New()
	responder.MixHash(sPub[:])
	_, _, err = responder.ReadMessage(sPriv, msg)
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestReadMessageRejectsShortMessage(t *testing.T) {
	sPriv, _ := genKeyPair(t)
	responder := New()
	_, _, err := responder.ReadMessage(sPriv, make([]byte, 10))
	require.ErrorIs(t, err, ErrShortMessage)
}

func TestDeriveLabelChain(t *testing.T) {
	var ck [32]byte
	copy(ck[:], bytes.Repeat([]byte{0x42}, 32))

	ck1, replyKey, err := DeriveLabel(ck[:], "SMTunnelReplyKey")
	require.NoError(t, err)
	ck2, layerKey, err := DeriveLabel(ck1[:], "SMTunnelLayerKey")
	require.NoError(t, err)
	ck3, ivKey, err := DeriveLabel(ck2[:], "TunnelLayerIVKey")
	require.NoError(t, err)
	garlicTag, garlicKey, err := DeriveLabel(ck3[:], "RGarlicKeyAndTag")
	require.NoError(t, err)

	// Every step must produce distinct 32-byte outputs; a collision would
	// indicate the label isn't actually influencing the HKDF expand step.
	outputs := [][32]byte{replyKey, layerKey, ivKey, garlicKey, garlicTag}
	for i := range outputs {
		for j := range outputs {
			if i == j {
				continue
			}
			require.NotEqual(t, outputs[i], outputs[j])
		}
	}

	// The chain is deterministic: re-running from the same ck reproduces
	// identical outputs, which is what lets encrypt and decrypt agree.
	ck1b, replyKeyB, err := DeriveLabel(ck[:], "SMTunnelReplyKey")
	require.NoError(t, err)
	require.Equal(t, ck1, ck1b)
	require.Equal(t, replyKey, replyKeyB)
}

func TestDestroyZeroesState(t *testing.T) {
	_, sPub := genKeyPair(t)
	ePriv, ePub := genKeyPair(t)

	s := New()
	s.MixHash(sPub[:])
	_, err := s.WriteMessage(ePriv, ePub, sPub, []byte("x"))
	require.NoError(t, err)

	s.Destroy()
	require.Equal(t, [32]byte{}, s.ChainingKey())
	require.Equal(t, [32]byte{}, s.HandshakeHash())
}
