package buildrecord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsRoundTrip(t *testing.T) {
	codec := NewOptionsCodec()
	opts := map[string]string{"foo": "bar", "baz": "quux"}
	order := []string{"foo", "baz"}

	encoded, err := codec.EncodeOptions(opts, order, shortMaxOptions)
	require.NoError(t, err)
	require.LessOrEqual(t, len(encoded), shortMaxOptions)

	// Pad to a full record so DecodeOptions exercises trailing-padding
	// tolerance, matching how RecordReader calls it against a full buffer.
	padded := make([]byte, shortMaxOptions)
	copy(padded, encoded)

	decoded, _, err := codec.DecodeOptions(padded)
	require.NoError(t, err)
	require.Equal(t, opts, decoded)
}

func TestOptionsEmpty(t *testing.T) {
	codec := NewOptionsCodec()
	encoded, err := codec.EncodeOptions(nil, nil, shortMaxOptions)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0}, encoded)

	decoded, n, err := codec.DecodeOptions(encoded)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Empty(t, decoded)
}

func TestOptionsOverflow(t *testing.T) {
	codec := NewOptionsCodec()
	// One key/value pair of length 46/47 bytes: 4 delimiter bytes + 46 + 47
	// = 97 bytes of body, plus the 2-byte prefix = 99 total, one over the
	// modern-short budget of 98.
	key := string(make([]byte, 46))
	val := string(make([]byte, 47))
	_, err := codec.EncodeOptions(map[string]string{key: val}, []string{key}, shortMaxOptions)
	require.ErrorIs(t, err, ErrOversizedOptions)

	// Trimming the value by one byte brings the total to exactly 98, the
	// modern-short budget, which must succeed.
	val2 := string(make([]byte, 46))
	encoded, err := codec.EncodeOptions(map[string]string{key: val2}, []string{key}, shortMaxOptions)
	require.NoError(t, err)
	require.Equal(t, shortMaxOptions, len(encoded))
}

func TestDecodeOptionsRejectsTruncated(t *testing.T) {
	codec := NewOptionsCodec()
	_, _, err := codec.DecodeOptions([]byte{0, 5, 1, 'a'})
	require.ErrorIs(t, err, ErrMalformedCleartext)
}
