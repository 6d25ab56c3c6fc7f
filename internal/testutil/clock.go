package testutil

import (
	"sync"
	"time"
)

// DefaultTime is the instant a new FixedClock reports.
var DefaultTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// FixedClock is a record.Clock that only moves when told to.
//
// Checkout timestamps taken through a FixedClock are identical across test
// runs, so they can be asserted on and used in golden files.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock reading DefaultTime.
func NewFixedClock() *FixedClock {
	return &FixedClock{now: DefaultTime}
}

// Now returns the current fixed instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Reset returns the clock to DefaultTime.
func (c *FixedClock) Reset() {
	c.Set(DefaultTime)
}
