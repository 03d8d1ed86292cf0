package testutil

import (
	"fmt"
	"sync"
)

// FixedRunID always generates the same run ID.
//
// An empty ID becomes "test-run-default".
type FixedRunID string

func (f FixedRunID) Generate() string {
	if f == "" {
		return "test-run-default"
	}
	return string(f)
}

// SequentialRunIDs generates "<prefix>-0001", "<prefix>-0002", ...
// for tests that open several journals and need to tell them apart.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
