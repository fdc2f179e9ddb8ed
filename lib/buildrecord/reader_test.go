package buildrecord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordReaderRejectsUnknownLength(t *testing.T) {
	_, err := NewRecordReader(make([]byte, 17), nil)
	require.ErrorIs(t, err, ErrMalformedCleartext)
}

func TestRecordReaderModernLongFixedKeys(t *testing.T) {
	buf := make([]byte, longLength)
	layerKeySrc := sessionKeyOf(0xAB)
	ivKeySrc := sessionKeyOf(0xCD)
	replyKeySrc := sessionKeyOf(0xEF)
	copy(buf[longOffLayerKey:], layerKeySrc[:])
	copy(buf[longOffIVKey:], ivKeySrc[:])
	copy(buf[longOffReplyKey:], replyKeySrc[:])
	buf[longOffFlag] = flagOutboundEndpoint

	reader, err := NewRecordReader(buf, nil)
	require.NoError(t, err)

	layerKey, err := reader.LayerKey()
	require.NoError(t, err)
	require.Equal(t, sessionKeyOf(0xAB), layerKey)

	ivKey, err := reader.IVKey()
	require.NoError(t, err)
	require.Equal(t, sessionKeyOf(0xCD), ivKey)

	replyKey, err := reader.ReplyKey()
	require.NoError(t, err)
	require.Equal(t, sessionKeyOf(0xEF), replyKey)

	require.True(t, reader.IsOutboundEndpoint())
	require.False(t, reader.IsInboundGateway())
}

func TestRecordReaderModernShortFailsWithoutDerivedKeys(t *testing.T) {
	buf := make([]byte, shortLength)
	reader, err := NewRecordReader(buf, nil)
	require.NoError(t, err)

	_, err = reader.LayerKey()
	require.ErrorIs(t, err, ErrIllegalState)
	_, err = reader.IVKey()
	require.ErrorIs(t, err, ErrIllegalState)
	_, err = reader.ReplyKey()
	require.ErrorIs(t, err, ErrIllegalState)
	_, err = reader.ReplyIV()
	require.ErrorIs(t, err, ErrIllegalState)

	_, _, ok := reader.GarlicKeys()
	require.False(t, ok)
}

func TestRecordReaderRequestTimeMillis(t *testing.T) {
	buf := make([]byte, legacyLength)
	// 10 hours since epoch.
	buf[legacyOffReqTime] = 0
	buf[legacyOffReqTime+1] = 0
	buf[legacyOffReqTime+2] = 0
	buf[legacyOffReqTime+3] = 10

	reader, err := NewRecordReader(buf, nil)
	require.NoError(t, err)
	require.Equal(t, int64(10*hourMillis), reader.RequestTimeMillis())
	require.Equal(t, int64(defaultExpirationSecs*1000), reader.ExpirationMillis())
}

func TestRecordReaderOptionsToleratesCorruptPadding(t *testing.T) {
	buf := make([]byte, shortLength)
	for i := shortOffOptions; i < len(buf); i++ {
		buf[i] = 0xFF
	}
	reader, err := NewRecordReader(buf, nil)
	require.NoError(t, err)
	require.Empty(t, reader.Options())
}
