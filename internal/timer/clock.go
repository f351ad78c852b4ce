// Package timer provides the start/stop stopwatch used to time speeches.
package timer

import (
	"sync"
	"time"
)

// Clock supplies instants. Implementations must be monotonic: the values
// returned by Now never go backwards when compared with Time.Sub.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock. time.Now carries a monotonic reading,
// so differences between two of its values ignore wall-clock adjustments.
type SystemClock struct{}

// Now returns the current instant.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to. Used in tests and for
// replaying recorded sessions.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock positioned at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
