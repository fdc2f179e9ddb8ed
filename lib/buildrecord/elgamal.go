package buildrecord

import (
	"crypto/sha256"
	"crypto/subtle"
	"math/big"

	"github.com/samber/oops"
	"golang.org/x/crypto/openpgp/elgamal"
)

// elgP and elgG are the fixed 2048-bit ElGamal domain parameters used by
// every legacy record, matching the RFC 3526 group 14 prime.
var (
	elgG = big.NewInt(2)
	elgP = mustHexBigInt(
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
			"129024E088A67CC74020BBEA63B139B22514A08798E3404" +
			"DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C" +
			"245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406" +
			"B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE" +
			"45B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD" +
			"24CF5F83655D23DCA3AD961C62F356208552BB9ED529077" +
			"096966D670C354E4ABC9804F1746C08CA18217C32905E46" +
			"2E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF" +
			"06F4C52C9DE2BCBF69558171839955497CEA956AE515D22" +
			"61898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF")
	elgOne = big.NewInt(1)
)

func mustHexBigInt(hex string) *big.Int {
	n, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		panic("buildrecord: invalid embedded ElGamal prime")
	}
	return n
}

// legacyElgamalEncrypt encrypts a 222-byte cleartext under the recipient's
// ElGamal-2048 public key, producing the 512-byte wire payload (the
// 514-byte engine output with the conventional leading zero byte of each
// 257-byte half stripped, per the I2P wire framing).
func legacyElgamalEncrypt(pub *elgamal.PublicKey, cleartext []byte, rnd Random) ([]byte, error) {
	if len(cleartext) != legacyLength {
		return nil, oops.Wrapf(ErrInvalidArgument, "legacy cleartext must be %d bytes, got %d", legacyLength, len(cleartext))
	}

	kBytes := make([]byte, 256)
	var k *big.Int
	for {
		if err := fillRandom(rnd, kBytes); err != nil {
			return nil, err
		}
		k = new(big.Int).SetBytes(kBytes)
		k.Mod(k, pub.P)
		if k.Sign() != 0 {
			break
		}
	}
	a := new(big.Int).Exp(pub.G, k, pub.P)
	b1 := new(big.Int).Exp(pub.Y, k, pub.P)

	mbytes := make([]byte, 255)
	mbytes[0] = 0xFF
	copy(mbytes[33:], cleartext)
	digest := sha256.Sum256(mbytes[33:])
	copy(mbytes[1:], digest[:])

	m := new(big.Int).SetBytes(mbytes)
	b := new(big.Int).Mod(new(big.Int).Mul(b1, m), pub.P).Bytes()

	engineOut := make([]byte, 514)
	aBytes := a.Bytes()
	copy(engineOut[1+(256-len(aBytes)):], aBytes)
	copy(engineOut[258+(256-len(b)):], b)

	wire := make([]byte, 512)
	copy(wire, engineOut[1:257])
	copy(wire[256:], engineOut[258:514])
	return wire, nil
}

// legacyElgamalDecrypt reverses legacyElgamalEncrypt. On any failure
// (padding mismatch, digest mismatch) it returns ErrDecryptFailed without
// distinguishing the cause, using constant-time comparisons throughout so
// the failure path takes the same shape as success.
func legacyElgamalDecrypt(priv *elgamal.PrivateKey, wire []byte) ([]byte, error) {
	if len(wire) != 512 {
		return nil, oops.Wrapf(ErrInvalidArgument, "legacy wire payload must be 512 bytes, got %d", len(wire))
	}

	a := new(big.Int).SetBytes(wire[:256])
	b := new(big.Int).SetBytes(wire[256:])

	exp := new(big.Int).Sub(priv.P, priv.X)
	exp.Sub(exp, elgOne)
	m := new(big.Int).Exp(a, exp, priv.P)
	m.Mul(m, b)
	m.Mod(m, priv.P)

	mbytes := m.Bytes()
	if len(mbytes) > 255 {
		// m wasn't reduced by the leading zero byte a genuine plaintext
		// always carries; this only happens on a forged or corrupted
		// payload, so fail the same way a bad digest would.
		return nil, ErrDecryptFailed
	}
	padded := make([]byte, 255)
	copy(padded[255-len(mbytes):], mbytes)

	digest := sha256.Sum256(padded[33:255])
	if subtle.ConstantTimeCompare(digest[:], padded[1:33]) != 1 {
		return nil, ErrDecryptFailed
	}

	cleartext := make([]byte, legacyLength)
	copy(cleartext, padded[33:255])
	return cleartext, nil
}
