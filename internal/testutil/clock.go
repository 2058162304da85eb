package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall-clock time a DeterministicClock reports at step 0.
var Epoch = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

// DeterministicClock is a resettable step counter that also serves as a
// fake wall clock: Now returns Epoch plus Step for every call to Next so far.
//
// Golden traces number their lines with Next and stored sessions take their
// timestamps from Now, so reruns of the same scenario are byte-identical.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu   sync.Mutex
	seq  int64
	step time.Duration
}

// NewDeterministicClock creates a clock at step 0 that advances Now by one
// second per step.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: time.Second}
}

// WithStep changes how far Now moves per step.
func (c *DeterministicClock) WithStep(d time.Duration) *DeterministicClock {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
	return c
}

// Next increments and returns the step. The first call returns 1.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the step without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Now advances one step and returns the matching wall-clock time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return Epoch.Add(time.Duration(c.seq) * c.step)
}

// Reset returns the clock to step 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
