package testutil

import "sync"

// SeqClock is a resettable logical clock for journal tests.
//
// Two SeqClocks started at the same value hand out identical sequences,
// which keeps journaled traces byte-for-byte comparable across runs.
// Safe for concurrent use.
type SeqClock struct {
	mu    sync.Mutex
	start int64
	seq   int64
}

// NewSeqClock returns a clock whose first Next returns start+1.
func NewSeqClock(start int64) *SeqClock {
	return &SeqClock{start: start, seq: start}
}

// Next increments and returns the sequence number.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out, or start if none.
func (c *SeqClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds to the starting value.
func (c *SeqClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = c.start
}
