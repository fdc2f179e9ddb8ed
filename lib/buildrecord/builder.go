package buildrecord

import (
	"encoding/binary"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// RecordBuilder serializes cleartext build records in each of the three
// wire formats, drawing padding and the anti-correlation back-dating offset
// from rnd and the request time from clk.
type RecordBuilder struct {
	clk Clock
	rnd Random
	opt OptionsCodec
}

// NewRecordBuilder returns a RecordBuilder using the given Clock and Random.
func NewRecordBuilder(clk Clock, rnd Random) *RecordBuilder {
	return &RecordBuilder{clk: clk, rnd: rnd, opt: NewOptionsCodec()}
}

// CommonFields carries the fields shared by every format.
type CommonFields struct {
	ReceiveTunnelID    TunnelID
	NextTunnelID       TunnelID
	NextHop            Hash
	NextMsgID          uint32
	IsInboundGateway   bool
	IsOutboundEndpoint bool
}

// KeyedFields adds the four in-band symmetric keys carried by legacy and
// modern-long records.
type KeyedFields struct {
	CommonFields
	LayerKey SessionKey
	IVKey    SessionKey
	ReplyKey SessionKey
	ReplyIV  [16]byte
}

// LegacyFields adds the sender's own identity hash, a field legacy records
// carry in-band but modern records omit (modern hops recover it from the
// enclosing session context instead).
type LegacyFields struct {
	KeyedFields
	OurIdent Hash
}

// ModernLongFields adds options to KeyedFields.
type ModernLongFields struct {
	KeyedFields
	Options     map[string]string
	OptionOrder []string
}

// ModernShortFields carries the fields for a modern-short record; it has no
// in-band keys, since those are derived during encrypt/decrypt.
type ModernShortFields struct {
	CommonFields
	LayerEncType byte
	Options      map[string]string
	OptionOrder  []string
}

func (f CommonFields) flagByte() (byte, error) {
	if f.IsInboundGateway && f.IsOutboundEndpoint {
		return 0, oops.Wrapf(ErrInvalidArgument, "a hop cannot be both an inbound gateway and an outbound endpoint")
	}
	var flag byte
	if f.IsInboundGateway {
		flag |= flagUnrestrictedPrev
	}
	if f.IsOutboundEndpoint {
		flag |= flagOutboundEndpoint
	}
	return flag, nil
}

func requireNonZeroKey(k SessionKey) error {
	var zero SessionKey
	if k == zero {
		return oops.Wrapf(ErrInvalidArgument, "required symmetric key is zero-valued")
	}
	return nil
}

// quantizedRequestTime draws a random sub-quantum back-dating offset, then
// returns the quantum count for the current time minus that offset.
func (b *RecordBuilder) quantizedRequestTime(windowMs, quantumMs int64) (uint32, error) {
	backdate, err := randomBackdateMillis(b.rnd, windowMs)
	if err != nil {
		return 0, err
	}
	nowMs := b.clk.Now().UnixMilli()
	adjusted := nowMs - backdate
	if adjusted < 0 {
		adjusted = 0
	}
	return uint32(adjusted / quantumMs), nil
}

// BuildLegacy serializes a 222-byte legacy cleartext record.
func (b *RecordBuilder) BuildLegacy(f LegacyFields) ([]byte, error) {
	flag, err := f.flagByte()
	if err != nil {
		return nil, err
	}
	for _, k := range []SessionKey{f.LayerKey, f.IVKey, f.ReplyKey} {
		if err := requireNonZeroKey(k); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, legacyLength)
	if err := fillRandom(b.rnd, buf); err != nil {
		return nil, err
	}

	binary.BigEndian.PutUint32(buf[legacyOffRecvTunnel:], uint32(f.ReceiveTunnelID))
	copy(buf[legacyOffOurIdent:], f.OurIdent[:])
	binary.BigEndian.PutUint32(buf[legacyOffSendTunnel:], uint32(f.NextTunnelID))
	copy(buf[legacyOffSendIdent:], f.NextHop[:])
	copy(buf[legacyOffLayerKey:], f.LayerKey[:])
	copy(buf[legacyOffIVKey:], f.IVKey[:])
	copy(buf[legacyOffReplyKey:], f.ReplyKey[:])
	copy(buf[legacyOffReplyIV:], f.ReplyIV[:])
	buf[legacyOffFlag] = flag

	quantum, err := b.quantizedRequestTime(hourAntiCorrelationWindowMs, hourMillis)
	if err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(buf[legacyOffReqTime:], quantum)
	binary.BigEndian.PutUint32(buf[legacyOffSendMsgID:], f.NextMsgID)

	log.WithField("format", FormatLegacy).Debug("built legacy cleartext record")
	return buf, nil
}

// BuildModernLong serializes a 464-byte modern-long cleartext record.
func (b *RecordBuilder) BuildModernLong(f ModernLongFields) ([]byte, error) {
	flag, err := f.flagByte()
	if err != nil {
		return nil, err
	}
	for _, k := range []SessionKey{f.LayerKey, f.IVKey, f.ReplyKey} {
		if err := requireNonZeroKey(k); err != nil {
			return nil, err
		}
	}

	encodedOpts, err := b.opt.EncodeOptions(f.Options, f.OptionOrder, longMaxOptions)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, longLength)
	if err := fillRandom(b.rnd, buf); err != nil {
		return nil, err
	}

	binary.BigEndian.PutUint32(buf[longOffRecvTunnel:], uint32(f.ReceiveTunnelID))
	binary.BigEndian.PutUint32(buf[longOffSendTunnel:], uint32(f.NextTunnelID))
	copy(buf[longOffSendIdent:], f.NextHop[:])
	copy(buf[longOffLayerKey:], f.LayerKey[:])
	copy(buf[longOffIVKey:], f.IVKey[:])
	copy(buf[longOffReplyKey:], f.ReplyKey[:])
	copy(buf[longOffReplyIV:], f.ReplyIV[:])
	buf[longOffFlag] = flag

	quantum, err := b.quantizedRequestTime(minuteAntiCorrelationWindowMs, minuteMillis)
	if err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(buf[longOffReqTime:], quantum)
	binary.BigEndian.PutUint32(buf[longOffExpiration:], defaultExpirationSecs)
	binary.BigEndian.PutUint32(buf[longOffSendMsgID:], f.NextMsgID)
	copy(buf[longOffOptions:], encodedOpts)

	log.WithField("format", FormatModernLong).Debug("built modern-long cleartext record")
	return buf, nil
}

// BuildModernShort serializes a 154-byte modern-short cleartext record.
func (b *RecordBuilder) BuildModernShort(f ModernShortFields) ([]byte, error) {
	flag, err := f.flagByte()
	if err != nil {
		return nil, err
	}

	encodedOpts, err := b.opt.EncodeOptions(f.Options, f.OptionOrder, shortMaxOptions)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, shortLength)
	if err := fillRandom(b.rnd, buf); err != nil {
		return nil, err
	}

	binary.BigEndian.PutUint32(buf[shortOffRecvTunnel:], uint32(f.ReceiveTunnelID))
	binary.BigEndian.PutUint32(buf[shortOffSendTunnel:], uint32(f.NextTunnelID))
	copy(buf[shortOffSendIdent:], f.NextHop[:])
	buf[shortOffFlag] = flag
	buf[shortOffLayerEnc] = f.LayerEncType

	quantum, err := b.quantizedRequestTime(minuteAntiCorrelationWindowMs, minuteMillis)
	if err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(buf[shortOffReqTime:], quantum)
	binary.BigEndian.PutUint32(buf[shortOffExpiration:], defaultExpirationSecs)
	binary.BigEndian.PutUint32(buf[shortOffSendMsgID:], f.NextMsgID)
	copy(buf[shortOffOptions:], encodedOpts)

	log.WithField("format", FormatModernShort).Debug("built modern-short cleartext record")
	return buf, nil
}
