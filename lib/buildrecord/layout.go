package buildrecord

// Byte offsets and lengths for the three cleartext layouts, and for the
// shared encrypted-record prefix. Values match the original I2P
// BuildRequestRecord offsets exactly; see DESIGN.md for the source.
const (
	peerSize = 16 // hop-identity selector at the front of every encrypted record
	ivSize   = 16

	// Legacy (ElGamal-2048) cleartext layout, 222 bytes.
	legacyOffRecvTunnel = 0
	legacyOffOurIdent   = legacyOffRecvTunnel + 4
	legacyOffSendTunnel = legacyOffOurIdent + 32
	legacyOffSendIdent  = legacyOffSendTunnel + 4
	legacyOffLayerKey   = legacyOffSendIdent + 32
	legacyOffIVKey      = legacyOffLayerKey + 32
	legacyOffReplyKey   = legacyOffIVKey + 32
	legacyOffReplyIV    = legacyOffReplyKey + 32
	legacyOffFlag       = legacyOffReplyIV + ivSize
	legacyOffReqTime    = legacyOffFlag + 1
	legacyOffSendMsgID  = legacyOffReqTime + 4
	legacyPaddingSize   = 29
	legacyLength        = legacyOffSendMsgID + 4 + legacyPaddingSize // 222
	legacyWireLength    = peerSize + 2*256                          // 528

	// Modern long (ECIES-X25519) cleartext layout, 464 bytes.
	longOffRecvTunnel = 0
	longOffSendTunnel = longOffRecvTunnel + 4
	longOffSendIdent  = longOffSendTunnel + 4
	longOffLayerKey   = longOffSendIdent + 32
	longOffIVKey      = longOffLayerKey + 32
	longOffReplyKey   = longOffIVKey + 32
	longOffReplyIV    = longOffReplyKey + 32
	longOffFlag       = longOffReplyIV + ivSize
	longOffReqTime    = longOffFlag + 4 // flag byte + 3 unused bytes
	longOffExpiration = longOffReqTime + 4
	longOffSendMsgID  = longOffExpiration + 4
	longOffOptions    = longOffSendMsgID + 4
	longLength        = 464
	longMaxOptions    = longLength - longOffOptions // 296, includes the 2-byte options length
	longWireOverhead  = 32 + 16                      // ephemeral pubkey + Poly1305 tag
	longWireLength    = peerSize + longWireOverhead + longLength

	// Modern short (ECIES-X25519, derived keys) cleartext layout, 154 bytes.
	shortOffRecvTunnel = 0
	shortOffSendTunnel = shortOffRecvTunnel + 4
	shortOffSendIdent  = shortOffSendTunnel + 4
	shortOffFlag       = shortOffSendIdent + 32
	shortOffLayerEnc   = shortOffFlag + 3 // flag byte + 2 unused bytes
	shortOffReqTime    = shortOffLayerEnc + 1
	shortOffExpiration = shortOffReqTime + 4
	shortOffSendMsgID  = shortOffExpiration + 4
	shortOffOptions    = shortOffSendMsgID + 4
	shortLength        = 154
	shortMaxOptions    = shortLength - shortOffOptions // 98, includes the 2-byte options length
	shortWireLength    = peerSize + longWireOverhead + shortLength
)

const (
	flagUnrestrictedPrev  = 1 << 7
	flagOutboundEndpoint  = 1 << 6
	defaultExpirationSecs = 600

	hourAntiCorrelationWindowMs   = 90_000
	minuteAntiCorrelationWindowMs = 2_048

	hourMillis   = 60 * 60 * 1000
	minuteMillis = 60 * 1000
)

// formatForCleartextLen maps a cleartext length to its Format, per the
// invariant that length alone selects the format.
func formatForCleartextLen(n int) (Format, bool) {
	switch n {
	case legacyLength:
		return FormatLegacy, true
	case longLength:
		return FormatModernLong, true
	case shortLength:
		return FormatModernShort, true
	default:
		return 0, false
	}
}

// formatForWireLen maps an encrypted-record length to its Format. Legacy and
// modern-long share the same wire length (528), so a 528-byte record only
// resolves here to FormatLegacy; RecordDecryptor.Decrypt uses the ok return
// alone to reject any length outside {528, 218} up front, and still relies
// on the recipient's key type to disambiguate legacy from modern-long.
func formatForWireLen(n int) (Format, bool) {
	switch n {
	case legacyWireLength:
		return FormatLegacy, true
	case shortWireLength:
		return FormatModernShort, true
	default:
		return 0, false
	}
}
