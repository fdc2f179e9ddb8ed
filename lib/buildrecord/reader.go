package buildrecord

import (
	"encoding/binary"
	"fmt"

	"github.com/samber/oops"
)

// RecordReader provides typed, format-agnostic accessors over a decoded
// cleartext build record. Construct one with NewRecordReader once a record
// has been built or decrypted; for modern-short records pass the
// DerivedKeys captured during that encrypt/decrypt call.
type RecordReader struct {
	format    Format
	cleartext []byte
	derived   *DerivedKeys
	opt       OptionsCodec
}

// NewRecordReader wraps cleartext for reading. derived may be nil for
// legacy/modern-long records, or for modern-short records whose keys have
// not yet been derived (accessors relying on them will fail with
// ErrIllegalState).
func NewRecordReader(cleartext []byte, derived *DerivedKeys) (*RecordReader, error) {
	format, ok := formatForCleartextLen(len(cleartext))
	if !ok {
		return nil, oops.Wrapf(ErrMalformedCleartext, "cleartext length %d matches no known format", len(cleartext))
	}
	return &RecordReader{format: format, cleartext: cleartext, derived: derived, opt: NewOptionsCodec()}, nil
}

// Format returns which of the three wire formats this record uses.
func (r *RecordReader) Format() Format { return r.format }

func (r *RecordReader) recvOff() int {
	switch r.format {
	case FormatLegacy:
		return legacyOffRecvTunnel
	case FormatModernLong:
		return longOffRecvTunnel
	default:
		return shortOffRecvTunnel
	}
}

func (r *RecordReader) sendTunnelOff() int {
	switch r.format {
	case FormatLegacy:
		return legacyOffSendTunnel
	case FormatModernLong:
		return longOffSendTunnel
	default:
		return shortOffSendTunnel
	}
}

func (r *RecordReader) sendIdentOff() int {
	switch r.format {
	case FormatLegacy:
		return legacyOffSendIdent
	case FormatModernLong:
		return longOffSendIdent
	default:
		return shortOffSendIdent
	}
}

func (r *RecordReader) flagOff() int {
	switch r.format {
	case FormatLegacy:
		return legacyOffFlag
	case FormatModernLong:
		return longOffFlag
	default:
		return shortOffFlag
	}
}

func (r *RecordReader) reqTimeOff() int {
	switch r.format {
	case FormatLegacy:
		return legacyOffReqTime
	case FormatModernLong:
		return longOffReqTime
	default:
		return shortOffReqTime
	}
}

func (r *RecordReader) sendMsgIDOff() int {
	switch r.format {
	case FormatLegacy:
		return legacyOffSendMsgID
	case FormatModernLong:
		return longOffSendMsgID
	default:
		return shortOffSendMsgID
	}
}

// ReceiveTunnelID returns the id this hop accepts inbound tunnel traffic on.
func (r *RecordReader) ReceiveTunnelID() TunnelID {
	return TunnelID(binary.BigEndian.Uint32(r.cleartext[r.recvOff():]))
}

// NextTunnelID returns the id to forward to, or the reply tunnel id at an
// outbound endpoint.
func (r *RecordReader) NextTunnelID() TunnelID {
	return TunnelID(binary.BigEndian.Uint32(r.cleartext[r.sendTunnelOff():]))
}

// NextHop returns the next hop's (or reply gateway's) identity hash.
func (r *RecordReader) NextHop() Hash {
	var h Hash
	copy(h[:], r.cleartext[r.sendIdentOff():r.sendIdentOff()+32])
	return h
}

// NextMsgID returns the message id to use for the forwarded request or reply.
func (r *RecordReader) NextMsgID() uint32 {
	return binary.BigEndian.Uint32(r.cleartext[r.sendMsgIDOff():])
}

// IsInboundGateway reports whether this hop is an inbound gateway.
func (r *RecordReader) IsInboundGateway() bool {
	return r.cleartext[r.flagOff()]&flagUnrestrictedPrev != 0
}

// IsOutboundEndpoint reports whether this hop is an outbound endpoint.
func (r *RecordReader) IsOutboundEndpoint() bool {
	return r.cleartext[r.flagOff()]&flagOutboundEndpoint != 0
}

// RequestTimeMillis returns the record's mint time in epoch milliseconds,
// rounded down to the format's quantum.
func (r *RecordReader) RequestTimeMillis() int64 {
	quantum := int64(binary.BigEndian.Uint32(r.cleartext[r.reqTimeOff():]))
	if r.format == FormatLegacy {
		return quantum * hourMillis
	}
	return quantum * minuteMillis
}

// ExpirationMillis returns how long after RequestTimeMillis this build
// request is valid.
func (r *RecordReader) ExpirationMillis() int64 {
	if r.format == FormatLegacy {
		return defaultExpirationSecs * 1000
	}
	off := longOffExpiration
	if r.format == FormatModernShort {
		off = shortOffExpiration
	}
	return int64(binary.BigEndian.Uint32(r.cleartext[off:])) * 1000
}

// LayerKey returns the symmetric key used for tunnel-layer processing.
// For modern-short records this requires DerivedKeys to have been supplied.
func (r *RecordReader) LayerKey() (SessionKey, error) {
	switch r.format {
	case FormatLegacy:
		return r.fixedKey(legacyOffLayerKey), nil
	case FormatModernLong:
		return r.fixedKey(longOffLayerKey), nil
	default:
		if r.derived == nil || !r.derived.HasShortKeys {
			return SessionKey{}, oops.Wrapf(ErrIllegalState, "layer key not derived for modern-short record")
		}
		return SessionKey(r.derived.LayerKey), nil
	}
}

// IVKey returns the symmetric IV-derivation key for tunnel-layer processing.
func (r *RecordReader) IVKey() (SessionKey, error) {
	switch r.format {
	case FormatLegacy:
		return r.fixedKey(legacyOffIVKey), nil
	case FormatModernLong:
		return r.fixedKey(longOffIVKey), nil
	default:
		if r.derived == nil || !r.derived.HasShortKeys {
			return SessionKey{}, oops.Wrapf(ErrIllegalState, "iv key not derived for modern-short record")
		}
		return SessionKey(r.derived.IVKey), nil
	}
}

// ReplyKey returns the symmetric key for encrypting the build reply.
// Modern-short records always fail here; their reply key lives only in
// DerivedKeys.ChachaReplyKey, addressed through a different subsystem.
func (r *RecordReader) ReplyKey() (SessionKey, error) {
	switch r.format {
	case FormatLegacy:
		return r.fixedKey(legacyOffReplyKey), nil
	case FormatModernLong:
		return r.fixedKey(longOffReplyKey), nil
	default:
		return SessionKey{}, oops.Wrapf(ErrIllegalState, "modern-short records carry no in-band reply key")
	}
}

// ReplyIV returns the IV for encrypting the build reply. Modern-short
// records always fail here.
func (r *RecordReader) ReplyIV() ([16]byte, error) {
	switch r.format {
	case FormatLegacy:
		return r.fixedIV(legacyOffReplyIV), nil
	case FormatModernLong:
		return r.fixedIV(longOffReplyIV), nil
	default:
		return [16]byte{}, oops.Wrapf(ErrIllegalState, "modern-short records carry no in-band reply iv")
	}
}

func (r *RecordReader) fixedKey(off int) SessionKey {
	var k SessionKey
	copy(k[:], r.cleartext[off:off+32])
	return k
}

func (r *RecordReader) fixedIV(off int) [16]byte {
	var iv [16]byte
	copy(iv[:], r.cleartext[off:off+16])
	return iv
}

// LayerEncType returns the layer encryption algorithm selector, 0 for
// formats other than modern-short.
func (r *RecordReader) LayerEncType() byte {
	if r.format != FormatModernShort {
		return 0
	}
	return r.cleartext[shortOffLayerEnc]
}

// GarlicKeys returns the garlic session key/tag pair for a modern-short
// outbound-endpoint record. ok is false when the record is not
// modern-short, not an outbound endpoint, or the keys were never derived.
func (r *RecordReader) GarlicKeys() (key [32]byte, tag [32]byte, ok bool) {
	if r.format != FormatModernShort || r.derived == nil || !r.derived.HasGarlicKeys {
		return key, tag, false
	}
	return r.derived.GarlicKey, r.derived.GarlicTag, true
}

// Options parses the options block for modern formats. Legacy records have
// none. A parse error is non-fatal: it returns an empty map, since
// corrupted trailing padding is indistinguishable from an empty options
// block.
func (r *RecordReader) Options() map[string]string {
	if r.format == FormatLegacy {
		return map[string]string{}
	}
	off := longOffOptions
	if r.format == FormatModernShort {
		off = shortOffOptions
	}
	opts, _, err := r.opt.DecodeOptions(r.cleartext[off:])
	if err != nil {
		return map[string]string{}
	}
	return opts
}

// DebugString returns a human-readable summary of the record, suitable for
// debug-level logging. It never includes key material.
func (r *RecordReader) DebugString() string {
	return fmt.Sprintf(
		"BuildRequestRecord[format=%s recvTunnel=%d nextTunnel=%d nextHop=%x ibgw=%t obep=%t reqTimeMs=%d]",
		r.format, r.ReceiveTunnelID(), r.NextTunnelID(), r.NextHop(), r.IsInboundGateway(), r.IsOutboundEndpoint(), r.RequestTimeMillis(),
	)
}
