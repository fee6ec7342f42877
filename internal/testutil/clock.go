package testutil

import (
	"sync"
	"time"
)

// WallClock is a settable stand-in for the host's wall clock.
//
// Scenarios read Now once per step and hand it to the engine, so a run with
// the same steps always sees the same instants. The clock only moves when
// told to; it never reads the real time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
}

// NewWallClock creates a clock reading start, in UTC and truncated to
// whole seconds.
func NewWallClock(start time.Time) *WallClock {
	start = start.UTC().Truncate(time.Second)
	return &WallClock{start: start, now: start}
}

// Now returns the current instant.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
// A negative d is ignored; the clock never runs backwards through Advance.
func (c *WallClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d).Truncate(time.Second)
	}
	return c.now
}

// Set jumps to t, forwards or backwards.
func (c *WallClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC().Truncate(time.Second)
}

// Reset returns the clock to its start instant.
func (c *WallClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
