package buildrecord

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestPaddingIsStatisticallyUniform builds many modern-short records with
// identical structured fields and checks that the padding byte immediately
// following the options block looks uniformly distributed, rather than
// leaking structure from adjacent fields.
func TestPaddingIsStatisticallyUniform(t *testing.T) {
	const n = 10000
	clk := fixedClock{t: time.Now()}
	builder := NewRecordBuilder(clk, rand.Reader)

	var buckets [8]int // coarse 5-bit buckets to keep the sample-per-bucket count high
	paddingOff := shortOffOptions + 2

	for i := 0; i < n; i++ {
		buf, err := builder.BuildModernShort(ModernShortFields{
			CommonFields: CommonFields{ReceiveTunnelID: 1, NextTunnelID: 2, NextMsgID: 3},
		})
		require.NoError(t, err)
		buckets[buf[paddingOff]>>5]++
	}

	expected := float64(n) / float64(len(buckets))
	chiSquare := 0.0
	for _, observed := range buckets {
		diff := float64(observed) - expected
		chiSquare += diff * diff / expected
	}

	// 7 degrees of freedom; a 3-sigma-equivalent threshold (the chi-square
	// critical value at p=0.0027 is about 22.0), well above the critical
	// value at p=0.95 (14.07), to avoid flaking on a true-random source while
	// still catching gross bias (e.g. a fixed byte or an off-by-one pointing
	// at a structured field).
	require.Less(t, chiSquare, 22.0, "padding byte distribution deviates from uniform: buckets=%v", buckets)
}
