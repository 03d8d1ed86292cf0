// Package resolve decides, for one test block and its ancestor chain, the
// effective timeout and whether the test runs or is skipped.
//
// Everything here is a pure function of the tree's IsOnly, IsSkipped and
// Timeout fields. Execution order and the runtime has-run flags never
// influence a decision.
package resolve

import (
	"time"

	"github.com/roach88/orchard/internal/tree"
)

// DefaultTimeout applies when no timeout is set anywhere in a test's lineage
// and the caller supplies none.
const DefaultTimeout = 5 * time.Second

// Skip reasons reported to event sinks.
const (
	ReasonSkippedExplicitly = "skipped explicitly"
	ReasonOnlyElsewhere     = "only tests are present elsewhere in the suite"
)

// Disposition is the run/skip verdict for a test.
type Disposition int

const (
	// Run means the test executes.
	Run Disposition = iota

	// SkipExplicit means the test or an ancestor scope is marked skip.
	SkipExplicit

	// SkipOnly means only-marked tests exist elsewhere in the tree and
	// nothing in this test's lineage is marked only.
	SkipOnly
)

// String returns a short name for d.
func (d Disposition) String() string {
	switch d {
	case Run:
		return "run"
	case SkipExplicit:
		return "skip"
	case SkipOnly:
		return "skip-only"
	default:
		return "unknown"
	}
}

// Skipped reports whether d excludes the test.
func (d Disposition) Skipped() bool {
	return d != Run
}

// Reason returns the human-readable skip reason, empty for Run.
func (d Disposition) Reason() string {
	switch d {
	case SkipExplicit:
		return ReasonSkippedExplicitly
	case SkipOnly:
		return ReasonOnlyElsewhere
	default:
		return ""
	}
}

// EffectiveTimeout returns the nearest explicit timeout, looking at tb first
// and then each scope from s up to the root. def is used when none is set;
// a non-positive def falls back to DefaultTimeout.
func EffectiveTimeout(s *tree.Scope, tb *tree.TestBlock, def time.Duration) time.Duration {
	if tb.Timeout > 0 {
		return tb.Timeout
	}
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Timeout > 0 {
			return cur.Timeout
		}
	}
	if def <= 0 {
		return DefaultTimeout
	}
	return def
}

// AnyOnly reports whether any scope or test block in the tree rooted at root
// is marked only.
func AnyOnly(root *tree.Scope) bool {
	return root.AnyDescendant(func(s *tree.Scope) bool {
		if s.IsOnly {
			return true
		}
		for _, tb := range s.Tests {
			if tb.IsOnly {
				return true
			}
		}
		return false
	})
}

// Decide computes the disposition of tb, owned by s, given whether the tree
// contains any only marks.
//
// An explicit skip anywhere in the lineage wins. Otherwise, when anyOnly is
// set, the test runs only if it or some ancestor scope is itself marked only.
func Decide(s *tree.Scope, tb *tree.TestBlock, anyOnly bool) Disposition {
	if tb.IsSkipped || s.AnyAncestor(func(sc *tree.Scope) bool { return sc.IsSkipped }) {
		return SkipExplicit
	}
	if anyOnly && !tb.IsOnly && !s.AnyAncestor(func(sc *tree.Scope) bool { return sc.IsOnly }) {
		return SkipOnly
	}
	return Run
}

// Of is Decide with AnyOnly computed from s's root. Callers deciding many
// tests of one tree should use a Resolver, which computes AnyOnly once.
func Of(s *tree.Scope, tb *tree.TestBlock) Disposition {
	return Decide(s, tb, AnyOnly(s.Root()))
}

// Resolver caches the per-root only scan and carries the process default
// timeout. It is not safe for concurrent use.
type Resolver struct {
	defaultTimeout time.Duration
	anyOnly        map[*tree.Scope]bool
}

// NewResolver returns a Resolver using def as the fallback timeout.
func NewResolver(def time.Duration) *Resolver {
	if def <= 0 {
		def = DefaultTimeout
	}
	return &Resolver{
		defaultTimeout: def,
		anyOnly:        make(map[*tree.Scope]bool),
	}
}

// DefaultTimeout returns the fallback timeout in use.
func (r *Resolver) DefaultTimeout() time.Duration {
	return r.defaultTimeout
}

// Timeout returns the effective timeout of tb.
func (r *Resolver) Timeout(s *tree.Scope, tb *tree.TestBlock) time.Duration {
	return EffectiveTimeout(s, tb, r.defaultTimeout)
}

// Disposition returns the run/skip verdict of tb.
func (r *Resolver) Disposition(s *tree.Scope, tb *tree.TestBlock) Disposition {
	root := s.Root()
	anyOnly, ok := r.anyOnly[root]
	if !ok {
		anyOnly = AnyOnly(root)
		r.anyOnly[root] = anyOnly
	}
	return Decide(s, tb, anyOnly)
}
