package engine

import "sync/atomic"

// Clock hands out journal sequence numbers.
//
// Sequence numbers order invocations; wall time never does, because two
// invocations may carry the same Now. The engine resumes the clock from
// the highest journaled seq when it first executes.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset moves the clock to seq, so the next call to Next returns seq+1.
// Used to give back a number consumed by an invocation that never reached
// the journal.
func (c *Clock) Reset(seq int64) {
	c.seq.Store(seq)
}
