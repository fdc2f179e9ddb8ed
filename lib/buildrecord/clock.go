package buildrecord

import (
	"sync"
	"time"
)

// Clock supplies the wall-clock time used to quantize a record's
// requestTime field. It is an external collaborator: callers typically
// wire in their router's NTP-adjusted clock here, not a bare time.Now.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, an offset-adjustable wrapper around
// time.Now(), mirroring the teacher's monotonic.Clock: time.Now() already
// carries a monotonic reading in Go, so duration math derived from it stays
// correct across NTP adjustments to the offset.
type systemClock struct {
	mu     sync.RWMutex
	offset time.Duration
}

// NewSystemClock returns a Clock backed by time.Now() with zero offset.
func NewSystemClock() Clock {
	return &systemClock{}
}

func (c *systemClock) Now() time.Time {
	c.mu.RLock()
	offset := c.offset
	c.mu.RUnlock()
	return time.Now().Add(offset)
}

// SetOffset adjusts the clock, e.g. after an NTP correction. Exposed on the
// concrete type rather than the Clock interface since most callers never
// need it directly.
func (c *systemClock) SetOffset(offset time.Duration) {
	c.mu.Lock()
	c.offset = offset
	c.mu.Unlock()
}
