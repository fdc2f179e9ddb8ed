// Package buildrecord implements the tunnel build request record codec:
// the fixed-size, per-hop encrypted instruction block used by I2P's tunnel
// construction protocol.
//
// Three wire formats are supported: the legacy 222-byte ElGamal-2048
// format, the modern 464-byte ECIES-X25519 "long" format, and the modern
// 154-byte ECIES-X25519 "short" format. See RecordBuilder, RecordEncryptor,
// RecordDecryptor, and RecordReader.
package buildrecord
