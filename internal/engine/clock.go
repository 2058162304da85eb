package engine

import "sync/atomic"

// Clock is a monotonic logical clock used to stamp notifications.
//
// Every event published on a Bus receives a strictly increasing Seq, so
// subscribers (and stored traces) can order events without wall-clock time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
