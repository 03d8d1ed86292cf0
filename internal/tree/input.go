package tree

import (
	"context"

	"github.com/roach88/orchard/internal/output"
)

// TestInput is handed to beforeAll, beforeEach and body callbacks. A fresh
// value is created for every test execution.
type TestInput struct {
	ctx context.Context
	out output.Writer
}

// NewTestInput binds an output writer and a cancellation context.
func NewTestInput(ctx context.Context, out output.Writer) TestInput {
	return TestInput{ctx: ctx, out: out}
}

// Context is cancelled when the test's effective timeout elapses.
func (in TestInput) Context() context.Context {
	if in.ctx == nil {
		return context.Background()
	}
	return in.ctx
}

// Done is shorthand for in.Context().Done().
func (in TestInput) Done() <-chan struct{} {
	return in.Context().Done()
}

// Output returns the test's output writer.
func (in TestInput) Output() output.Writer {
	return in.out
}

// Log writes message to the test's output.
func (in TestInput) Log(message string) {
	if in.out != nil {
		in.out.WriteLine(message)
	}
}

// Logf formats and writes to the test's output.
func (in TestInput) Logf(format string, args ...any) {
	if in.out != nil {
		in.out.WriteLinef(format, args...)
	}
}

// FinishedTestContext describes a completed test to afterEach hooks.
type FinishedTestContext struct {
	Passed      bool
	Output      output.Output
	Description string

	// Err is the failure, nil when Passed.
	Err error
}
