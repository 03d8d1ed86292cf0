package tree

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Option adjusts a scope or test block at registration time.
type Option func(*options)

type options struct {
	only    bool
	skip    bool
	timeout time.Duration
	badTO   bool
}

// Only marks the scope or test as exclusive. When anything in a tree is
// marked only, every test outside an only-marked lineage is skipped.
func Only() Option {
	return func(o *options) { o.only = true }
}

// Skip marks the scope or test as never runnable. It cascades to every
// descendant and wins over Only.
func Skip() Option {
	return func(o *options) { o.skip = true }
}

// WithTimeout sets an explicit timeout. d must be positive.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			o.badTO = true
			return
		}
		o.timeout = d
	}
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.badTO {
		constructionPanic(ErrCodeInvalidTimeout, "timeout must be positive")
	}
	return o
}

// Builder is the construction context handed to populate callbacks. All
// registrations attach to the innermost scope currently being described.
//
// A Builder must only be used from the goroutine running the populate
// callback, and only until that callback returns.
type Builder struct {
	mu      sync.Mutex
	current *Scope
	sealed  bool
}

// Build creates a root scope named description and runs populate against it.
//
// populate must register everything synchronously. Any registration made
// after it returns (from a goroutine it started, say) panics with
// ErrCodeSealed. Misuse detected while populate is running is returned as a
// *ConstructionError and no tree is produced.
func Build(description string, populate func(*Builder), opts ...Option) (root *Scope, err error) {
	if populate == nil {
		return nil, &ConstructionError{Code: ErrCodeNilCallback, Message: "populate callback is nil"}
	}

	b := &Builder{}
	defer func() {
		b.seal()
		if r := recover(); r != nil {
			ce, ok := r.(*ConstructionError)
			if !ok {
				panic(r)
			}
			root, err = nil, ce
		}
	}()

	o := collect(opts)
	root = &Scope{
		Description: normalize(description),
		IsOnly:      o.only,
		IsSkipped:   o.skip,
		Timeout:     o.timeout,
	}
	b.current = root

	populate(b)
	return root, nil
}

func (b *Builder) seal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	b.current = nil
}

// active returns the scope registrations attach to, panicking on misuse.
func (b *Builder) active(what string) *Scope {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		constructionPanic(ErrCodeSealed, "%s registered after the tree was built; populate callbacks must be synchronous", what)
	}
	if b.current == nil {
		constructionPanic(ErrCodeNoScope, "%s registered outside any scope; use Build to obtain a builder", what)
	}
	return b.current
}

func (b *Builder) enter(s *Scope) (restore func()) {
	b.mu.Lock()
	prev := b.current
	b.current = s
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		if !b.sealed {
			b.current = prev
		}
		b.mu.Unlock()
	}
}

// Describe registers a child scope and runs fn to populate it.
func (b *Builder) Describe(description string, fn func(*Builder), opts ...Option) {
	parent := b.active("Describe")
	if fn == nil {
		constructionPanic(ErrCodeNilCallback, "Describe(%q) has a nil body", description)
	}
	o := collect(opts)

	child := &Scope{
		Description: normalize(description),
		Parent:      parent,
		Index:       len(parent.Children),
		IsOnly:      o.only,
		IsSkipped:   o.skip,
		Timeout:     o.timeout,
	}
	parent.Children = append(parent.Children, child)

	restore := b.enter(child)
	defer restore()
	fn(b)
}

// It registers a test block in the current scope.
func (b *Builder) It(description string, body BodyFunc, opts ...Option) {
	b.it(description, body, 2, opts)
}

func (b *Builder) it(description string, body BodyFunc, callerSkip int, opts []Option) *TestBlock {
	s := b.active("It")
	if body == nil {
		constructionPanic(ErrCodeNilCallback, "It(%q) has a nil body", description)
	}
	o := collect(opts)

	tb := &TestBlock{
		Description: normalize(description),
		Body:        body,
		Index:       len(s.Tests),
		IsOnly:      o.only,
		IsSkipped:   o.skip,
		Timeout:     o.timeout,
	}
	if _, file, line, ok := runtime.Caller(callerSkip); ok {
		tb.File, tb.Line = file, line
	}
	s.Tests = append(s.Tests, tb)
	return tb
}

// BeforeAll registers a hook run once, before the first test of the current
// scope's subtree executes.
func (b *Builder) BeforeAll(fn SetupFunc) {
	s := b.active("BeforeAll")
	if fn == nil {
		constructionPanic(ErrCodeNilCallback, "BeforeAll hook is nil")
	}
	s.BeforeAll = append(s.BeforeAll, fn)
}

// BeforeEach registers a hook run before every test in the current scope's
// subtree.
func (b *Builder) BeforeEach(fn SetupFunc) {
	s := b.active("BeforeEach")
	if fn == nil {
		constructionPanic(ErrCodeNilCallback, "BeforeEach hook is nil")
	}
	s.BeforeEach = append(s.BeforeEach, fn)
}

// AfterEach registers a hook run after every test in the current scope's
// subtree.
func (b *Builder) AfterEach(fn AfterEachFunc) {
	s := b.active("AfterEach")
	if fn == nil {
		constructionPanic(ErrCodeNilCallback, "AfterEach hook is nil")
	}
	s.AfterEach = append(s.AfterEach, fn)
}

// AfterAll registers a hook run once, after every test of the current
// scope's subtree has run.
func (b *Builder) AfterAll(fn TeardownFunc) {
	s := b.active("AfterAll")
	if fn == nil {
		constructionPanic(ErrCodeNilCallback, "AfterAll hook is nil")
	}
	s.AfterAll = append(s.AfterAll, fn)
}

// Each registers one test per value. The description is format applied to
// the value.
func Each[T any](b *Builder, values []T, format string, body func(v T, in TestInput) error, opts ...Option) {
	EachFunc(b, values, func(v T) string { return fmt.Sprintf(format, v) }, body, opts...)
}

// EachFunc is Each with a description resolver.
func EachFunc[T any](b *Builder, values []T, describe func(T) string, body func(v T, in TestInput) error, opts ...Option) {
	if body == nil || describe == nil {
		b.active("Each")
		constructionPanic(ErrCodeNilCallback, "Each has a nil body or description resolver")
	}
	for _, v := range values {
		v := v
		b.it(describe(v), func(in TestInput) error { return body(v, in) }, 3, opts)
	}
}

// DescribeEach registers one child scope per value, populated by fn.
func DescribeEach[T any](b *Builder, values []T, format string, fn func(b *Builder, v T), opts ...Option) {
	if fn == nil {
		b.active("DescribeEach")
		constructionPanic(ErrCodeNilCallback, "DescribeEach has a nil body")
	}
	for _, v := range values {
		v := v
		b.Describe(fmt.Sprintf(format, v), func(b *Builder) { fn(b, v) }, opts...)
	}
}

func normalize(s string) string {
	return norm.NFC.String(s)
}
