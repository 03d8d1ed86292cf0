package suitefile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/orchard/internal/events"
	"github.com/roach88/orchard/internal/output"
	"github.com/roach88/orchard/internal/tree"
)

// Compiled is a suite turned into a runnable tree. It also records what the
// run does: marks made by steps, and each test's outcome when its Sink is
// attached to the runner.
type Compiled struct {
	Suite *Suite
	Root  *tree.Scope

	expect map[*tree.TestBlock]string

	mu       sync.Mutex
	trace    []string
	outcomes map[*tree.TestBlock]string
}

// Compile validates s and builds its scope tree.
func Compile(s *Suite) (*Compiled, error) {
	if err := Validate(s); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	c := &Compiled{
		Suite:    s,
		expect:   make(map[*tree.TestBlock]string),
		outcomes: make(map[*tree.TestBlock]string),
	}
	root, err := tree.Build(s.Name, func(b *tree.Builder) {
		c.populate(b, &s.Scope)
	}, scopeOptions(&s.Scope)...)
	if err != nil {
		return nil, fmt.Errorf("build suite %q: %w", s.Name, err)
	}
	c.Root = root
	c.collectExpectations(&s.Scope, root)
	return c, nil
}

// collectExpectations pairs document tests with built blocks. Both sides
// keep declaration order, so indices line up.
func (c *Compiled) collectExpectations(s *Scope, built *tree.Scope) {
	for i, t := range s.Tests {
		if t.Expect != "" {
			c.expect[built.Tests[i]] = t.Expect
		}
	}
	for i := range s.Scopes {
		c.collectExpectations(&s.Scopes[i], built.Children[i])
	}
}

func scopeOptions(s *Scope) []tree.Option {
	return options(s.Only, s.Skip, s.Timeout)
}

func options(only, skip bool, timeout string) []tree.Option {
	var opts []tree.Option
	if only {
		opts = append(opts, tree.Only())
	}
	if skip {
		opts = append(opts, tree.Skip())
	}
	if timeout != "" {
		// Validate already rejected unparsable and non-positive values.
		d, _ := time.ParseDuration(timeout)
		opts = append(opts, tree.WithTimeout(d))
	}
	return opts
}

func (c *Compiled) populate(b *tree.Builder, s *Scope) {
	if steps := s.BeforeAll; len(steps) > 0 {
		b.BeforeAll(func(in tree.TestInput) error {
			return c.exec(in.Context(), in.Output(), steps)
		})
	}
	if steps := s.BeforeEach; len(steps) > 0 {
		b.BeforeEach(func(in tree.TestInput) error {
			return c.exec(in.Context(), in.Output(), steps)
		})
	}
	if steps := s.AfterEach; len(steps) > 0 {
		b.AfterEach(func(tree.FinishedTestContext) error {
			return c.exec(context.Background(), nil, steps)
		})
	}
	if steps := s.AfterAll; len(steps) > 0 {
		b.AfterAll(func() error {
			return c.exec(context.Background(), nil, steps)
		})
	}

	for i := range s.Tests {
		t := &s.Tests[i]
		steps := t.Steps
		b.It(t.Name, func(in tree.TestInput) error {
			return c.exec(in.Context(), in.Output(), steps)
		}, options(t.Only, t.Skip, t.Timeout)...)
	}

	for i := range s.Scopes {
		child := &s.Scopes[i]
		b.Describe(child.Name, func(b *tree.Builder) {
			c.populate(b, child)
		}, scopeOptions(child)...)
	}
}

// exec runs steps in order and stops at the first error. out is nil in
// after hooks, where log lines go to slog instead.
func (c *Compiled) exec(ctx context.Context, out output.Writer, steps []Step) error {
	for _, st := range steps {
		switch {
		case st.Log != nil:
			if out != nil {
				out.WriteLine(*st.Log)
			} else {
				slog.Info("suite log", "message", *st.Log)
			}
		case st.Mark != nil:
			c.mark(*st.Mark)
		case st.Sleep != nil:
			d, _ := time.ParseDuration(*st.Sleep)
			if err := sleep(ctx, d); err != nil {
				return err
			}
		case st.Fail != nil:
			return errors.New(*st.Fail)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (c *Compiled) mark(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trace = append(c.trace, name)
}

// Trace returns the marks made so far, in order.
func (c *Compiled) Trace() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.trace)
}

// Sink returns an events.Sink that records test outcomes for Check.
func (c *Compiled) Sink() events.Sink {
	return events.Adapt(events.HandlerFunc(c.record))
}

func (c *Compiled) record(e events.Event) {
	var outcome string
	switch e.Type {
	case events.TypeTestPassed:
		outcome = ExpectPassed
	case events.TypeTestFailed:
		outcome = ExpectFailed
	case events.TypeTestSkipped:
		outcome = ExpectSkipped
	default:
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[e.Ref.Test] = outcome
}

// Outcome returns the recorded outcome of tb, or "" if none was recorded.
func (c *Compiled) Outcome(tb *tree.TestBlock) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[tb]
}

// HasExpectations reports whether the document declares any expected
// outcome or an expected trace.
func (c *Compiled) HasExpectations() bool {
	return len(c.expect) > 0 || c.Suite.Trace != nil
}
