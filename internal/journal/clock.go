package journal

import "sync/atomic"

// Clock hands out strictly increasing sequence numbers.
type Clock interface {
	Next() int64
}

// LogicalClock is a monotonic counter starting at 0; the first Next
// returns 1. Safe for concurrent use.
type LogicalClock struct {
	seq atomic.Int64
}

// NewLogicalClock returns a clock at 0.
func NewLogicalClock() *LogicalClock {
	return &LogicalClock{}
}

func (c *LogicalClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *LogicalClock) Current() int64 {
	return c.seq.Load()
}
