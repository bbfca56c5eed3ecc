package testutil

import (
	"sync"
	"time"
)

// Clock yields deterministic, strictly increasing timestamps for tests.
//
// The correlation store orders rows by their store-managed created_at
// column; a real wall clock can hand two inserts the same instant, which
// makes ordering assertions flaky. Clock advances by a fixed step on every
// call so each row gets a distinct, reproducible timestamp.
//
// Thread-safety: all methods are safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// DefaultEpoch is the starting instant used by NewClock when the zero time
// is passed. An arbitrary fixed point keeps golden output stable.
var DefaultEpoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// NewClock creates a clock starting at start, advancing by step per call.
// A zero start falls back to DefaultEpoch; a zero step to one second.
func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	if step == 0 {
		step = time.Second
	}
	return &Clock{now: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
// Successive calls never return the same timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Current returns the instant the next Now call will yield, without
// advancing the clock.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
