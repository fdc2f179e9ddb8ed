package buildrecord

import (
	"time"
)

// fixedClock is a Clock that always returns the same instant.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// seqRandom is a deterministic Random that emits bytes counting up from a
// seed, wrapping at 256. It exists so tests can assert on exact derived
// output without depending on crypto/rand.
type seqRandom struct{ n byte }

func (r *seqRandom) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.n
		r.n++
	}
	return len(p), nil
}

// countingKeyFactory wraps another EphemeralKeyFactory and counts calls to
// Generate.
type countingKeyFactory struct {
	inner EphemeralKeyFactory
	calls int
}

func (f *countingKeyFactory) Generate() (priv, pub [32]byte, err error) {
	f.calls++
	return f.inner.Generate()
}
