package engine

import "sync/atomic"

// Clock is the monotonic logical tick counter.
//
// Every tick is stamped with a strictly increasing seq number from this
// clock. Seq numbers - never wall-clock timestamps - order the trace,
// so replay reproduces the identical sequence.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although the scheduler's single-writer design means only one
// goroutine normally calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used by replay to resume from the last recorded tick.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next tick number and advances the clock.
// The first call on a fresh clock returns 1.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current tick number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
