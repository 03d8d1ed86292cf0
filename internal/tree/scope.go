package tree

import "time"

// SetupFunc is a beforeAll or beforeEach hook.
type SetupFunc func(in TestInput) error

// AfterEachFunc is an afterEach hook. It receives the outcome of the test
// that just ran.
type AfterEachFunc func(fc FinishedTestContext) error

// TeardownFunc is an afterAll hook.
type TeardownFunc func() error

// BodyFunc is the body of a test block. Returning a non-nil error fails the
// test. Long-running bodies should watch in.Done() and return once it closes.
type BodyFunc func(in TestInput) error

// Scope is one describe-level grouping.
type Scope struct {
	Description string
	Parent      *Scope

	// Index is the position of this scope among its siblings. The root is 0.
	Index int

	IsOnly    bool
	IsSkipped bool

	// Timeout applies to every test below this scope that does not set a
	// closer one. Zero means unset.
	Timeout time.Duration

	Children   []*Scope
	BeforeAll  []SetupFunc
	BeforeEach []SetupFunc
	AfterEach  []AfterEachFunc
	AfterAll   []TeardownFunc
	Tests      []*TestBlock

	HasRunBeforeAlls bool
	HasRunAfterAlls  bool
}

// TestBlock is a leaf test.
type TestBlock struct {
	Description string
	Body        BodyFunc

	// Index is the position of this block among the tests of its scope.
	Index int

	IsOnly    bool
	IsSkipped bool

	// Timeout overrides every ancestor timeout. Zero means unset.
	Timeout time.Duration

	// HasRun is set once the body has been attempted, whatever the outcome.
	// Skipped tests never set it.
	HasRun bool

	// File and Line locate the registration call, when known.
	File string
	Line int
}

// Root returns the top of the tree s belongs to.
func (s *Scope) Root() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Lineage returns the chain of scopes from the root down to s, inclusive.
func (s *Scope) Lineage() []*Scope {
	depth := 0
	for cur := s; cur != nil; cur = cur.Parent {
		depth++
	}
	chain := make([]*Scope, depth)
	for cur := s; cur != nil; cur = cur.Parent {
		depth--
		chain[depth] = cur
	}
	return chain
}

// AnyAncestor reports whether pred holds for s or any scope above it.
func (s *Scope) AnyAncestor(pred func(*Scope) bool) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if pred(cur) {
			return true
		}
	}
	return false
}

// AnyDescendant reports whether pred holds for s or any scope below it.
func (s *Scope) AnyDescendant(pred func(*Scope) bool) bool {
	stack := []*Scope{s}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pred(cur) {
			return true
		}
		stack = append(stack, cur.Children...)
	}
	return false
}

// HasRunAllTests reports whether every test block in the subtree rooted at s
// has been attempted. A subtree without tests has trivially run them all.
func (s *Scope) HasRunAllTests() bool {
	return !s.AnyDescendant(func(sc *Scope) bool {
		for _, tb := range sc.Tests {
			if !tb.HasRun {
				return true
			}
		}
		return false
	})
}

// CountTests returns the number of test blocks in the subtree rooted at s.
func (s *Scope) CountTests() int {
	n := 0
	s.AnyDescendant(func(sc *Scope) bool {
		n += len(sc.Tests)
		return false
	})
	return n
}
