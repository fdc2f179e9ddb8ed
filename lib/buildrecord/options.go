package buildrecord

import (
	"encoding/binary"

	"github.com/samber/oops"
)

// OptionsCodec encodes and decodes the record's trailing options block: a
// 2-byte big-endian length prefix followed by that many bytes of
// length-prefixed key/value string pairs, mirroring the wire shape of I2P's
// common Mapping structure but scoped to a single fixed-size record budget
// rather than an unbounded stream.
type OptionsCodec struct{}

// NewOptionsCodec returns the default OptionsCodec.
func NewOptionsCodec() OptionsCodec {
	return OptionsCodec{}
}

// EncodeOptions serializes opts into a block no larger than maxLen,
// including the 2-byte length prefix. Keys are written in the order given
// by keys, so callers control determinism instead of relying on Go's
// randomized map iteration.
func (OptionsCodec) EncodeOptions(opts map[string]string, keys []string, maxLen int) ([]byte, error) {
	if maxLen < 2 {
		return nil, oops.Wrapf(ErrInvalidArgument, "options budget too small")
	}
	body := make([]byte, 0, maxLen-2)
	for _, k := range keys {
		v, ok := opts[k]
		if !ok {
			continue
		}
		if len(k) > 255 || len(v) > 255 {
			return nil, oops.Wrapf(ErrOversizedOptions, "key or value exceeds 255 bytes: %q", k)
		}
		entry := make([]byte, 0, 4+len(k)+len(v))
		entry = append(entry, byte(len(k)))
		entry = append(entry, k...)
		entry = append(entry, '=')
		entry = append(entry, byte(len(v)))
		entry = append(entry, v...)
		entry = append(entry, ';')
		body = append(body, entry...)
	}
	if len(body) > maxLen-2 {
		return nil, oops.Wrapf(ErrOversizedOptions, "options body of %d bytes exceeds budget of %d", len(body), maxLen-2)
	}
	out := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))
	copy(out[2:], body)
	return out, nil
}

// DecodeOptions parses a block previously produced by EncodeOptions. It
// returns the options in a map plus the number of bytes consumed from buf
// (the 2-byte prefix plus the declared body length), so callers can locate
// any padding that follows within a fixed-size record.
func (OptionsCodec) DecodeOptions(buf []byte) (map[string]string, int, error) {
	if len(buf) < 2 {
		return nil, 0, oops.Wrapf(ErrMalformedCleartext, "options block shorter than length prefix")
	}
	n := int(binary.BigEndian.Uint16(buf))
	if 2+n > len(buf) {
		return nil, 0, oops.Wrapf(ErrMalformedCleartext, "options length %d exceeds available %d bytes", n, len(buf)-2)
	}
	body := buf[2 : 2+n]
	opts := make(map[string]string)
	for len(body) > 0 {
		klen := int(body[0])
		body = body[1:]
		if klen+1 > len(body) || body[klen] != '=' {
			return nil, 0, oops.Wrapf(ErrMalformedCleartext, "truncated or malformed option key")
		}
		key := string(body[:klen])
		body = body[klen+1:]
		if len(body) < 1 {
			return nil, 0, oops.Wrapf(ErrMalformedCleartext, "truncated option value length")
		}
		vlen := int(body[0])
		body = body[1:]
		if vlen+1 > len(body) || body[vlen] != ';' {
			return nil, 0, oops.Wrapf(ErrMalformedCleartext, "truncated or malformed option value")
		}
		opts[key] = string(body[:vlen])
		body = body[vlen+1:]
	}
	return opts, 2 + n, nil
}
