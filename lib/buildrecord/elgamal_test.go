package buildrecord

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/openpgp/elgamal"
)

func newTestElgamalKey(t *testing.T) *elgamal.PrivateKey {
	t.Helper()
	priv := &elgamal.PrivateKey{}
	priv.P = elgP
	priv.G = elgG
	xBytes := make([]byte, priv.P.BitLen()/8)
	_, err := rand.Read(xBytes)
	require.NoError(t, err)
	priv.X = new(big.Int).SetBytes(xBytes)
	priv.Y = new(big.Int).Exp(priv.G, priv.X, priv.P)
	return priv
}

func TestLegacyElgamalRoundTrip(t *testing.T) {
	priv := newTestElgamalKey(t)

	cleartext := make([]byte, legacyLength)
	for i := range cleartext {
		cleartext[i] = byte(i)
	}

	wire, err := legacyElgamalEncrypt(&priv.PublicKey, cleartext, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, 512, len(wire))

	got, err := legacyElgamalDecrypt(priv, wire)
	require.NoError(t, err)
	require.Equal(t, cleartext, got)
}

func TestLegacyElgamalDecryptFailsOnTamperedCiphertext(t *testing.T) {
	priv := newTestElgamalKey(t)

	cleartext := make([]byte, legacyLength)
	wire, err := legacyElgamalEncrypt(&priv.PublicKey, cleartext, rand.Reader)
	require.NoError(t, err)
	wire[500] ^= 0xFF

	_, err = legacyElgamalDecrypt(priv, wire)
	require.ErrorIs(t, err, ErrDecryptFailed)
}

func TestLegacyElgamalEncryptRejectsWrongLength(t *testing.T) {
	priv := newTestElgamalKey(t)
	_, err := legacyElgamalEncrypt(&priv.PublicKey, make([]byte, legacyLength-1), rand.Reader)
	require.ErrorIs(t, err, ErrInvalidArgument)
}
