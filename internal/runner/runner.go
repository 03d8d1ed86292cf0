package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/roach88/orchard/internal/events"
	"github.com/roach88/orchard/internal/output"
	"github.com/roach88/orchard/internal/resolve"
	"github.com/roach88/orchard/internal/tree"
)

// Body run states, see runBody.
const (
	bodyRunning int32 = iota
	bodyReturned
	bodyAbandoned
)

// Runner executes test blocks and reports to an events.Sink.
// A Runner is not safe for concurrent use.
type Runner struct {
	sink     events.Sink
	resolver *resolve.Resolver
	logger   *slog.Logger

	// detached counts timed-out bodies that have not returned yet.
	detached atomic.Int64
}

// Option configures a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// WithDefaultTimeout sets the timeout used when a test's lineage sets none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *runnerConfig) { c.defaultTimeout = d }
}

// WithLogger sets the logger for runner diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *runnerConfig) { c.logger = l }
}

// New returns a Runner reporting to sink. A nil sink discards events.
func New(sink events.Sink, opts ...Option) *Runner {
	cfg := runnerConfig{defaultTimeout: resolve.DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if sink == nil {
		sink = events.Nop
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		sink:     sink,
		resolver: resolve.NewResolver(cfg.defaultTimeout),
		logger:   cfg.logger,
	}
}

// Detached returns the number of timed-out bodies still running.
func (r *Runner) Detached() int64 {
	return r.detached.Load()
}

// Run executes tb, owned by s, and returns its one-test summary.
//
// The error is non-nil only when a hook fails. For a before hook the
// returned Summary is zero since the body never ran; for an after hook it
// describes the body's outcome.
func (r *Runner) Run(ctx context.Context, s *tree.Scope, tb *tree.TestBlock) (Summary, error) {
	ref := events.TestRef{Scope: s, Test: tb}

	if d := r.resolver.Disposition(s, tb); d.Skipped() {
		r.logger.Debug("test skipped", "test", ref.Name(), "reason", d.Reason())
		r.sink.TestSkipped(ref, d.Reason())
		return Summary{Total: 1, Skipped: 1}, nil
	}

	start := time.Now()
	timeout := r.resolver.Timeout(s, tb)

	testCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	sink := output.New()
	in := tree.NewTestInput(testCtx, sink)

	r.sink.BeforeSetupStarting(ref)
	if err := r.runBeforeAlls(s, in); err != nil {
		return Summary{}, err
	}
	if err := r.runBeforeEaches(s, in); err != nil {
		return Summary{}, err
	}
	r.sink.BeforeSetupFinished(ref)

	r.sink.TestStarting(ref)
	bodyErr := r.runBody(ctx, ref, in, timeout, cancel)
	elapsed := time.Since(start)
	out := sink.Output()

	result := Summary{Total: 1, Elapsed: elapsed}
	if bodyErr != nil {
		result.Failed = 1
		result.Err = fmt.Errorf("%s: %w", ref.Name(), bodyErr)
		r.sink.TestFailed(ref, bodyErr, elapsed, out)
	} else {
		result.Passed = 1
		r.sink.TestPassed(ref, elapsed, out)
	}
	r.sink.TestFinished(ref, elapsed, out)
	tb.HasRun = true

	fc := tree.FinishedTestContext{
		Passed:      bodyErr == nil,
		Output:      out,
		Description: tb.Description,
		Err:         bodyErr,
	}

	r.sink.AfterSetupStarting(ref)
	if err := r.runAfterEaches(s, fc); err != nil {
		return result, err
	}
	if err := r.runAfterAlls(s); err != nil {
		return result, err
	}
	r.sink.AfterSetupFinished(ref)

	return result, nil
}

// RunAll runs every test under root in enumeration order and folds the
// results. It stops at the first hook failure or when ctx is cancelled.
func (r *Runner) RunAll(ctx context.Context, root *tree.Scope) (Summary, error) {
	return r.RunMatching(ctx, root, nil)
}

// RunMatching is RunAll restricted to the tests match accepts. Rejected
// tests are not run and not reported; a nil match accepts everything.
// Note that a scope holding a rejected test never runs its afterAll hooks.
func (r *Runner) RunMatching(ctx context.Context, root *tree.Scope, match func(*tree.Scope, *tree.TestBlock) bool) (Summary, error) {
	var total Summary
	for s, tb := range tree.Enumerate(root) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if match != nil && !match(s, tb) {
			continue
		}
		res, err := r.Run(ctx, s, tb)
		total = Combine(total, res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// runBody races tb's body against timeout. The body runs in its own
// goroutine; if the timer wins, the body's context is cancelled with a
// *TimeoutError as cause and the goroutine is left to finish on its own.
func (r *Runner) runBody(ctx context.Context, ref events.TestRef, in tree.TestInput, timeout time.Duration, cancel context.CancelCauseFunc) error {
	var state atomic.Int32
	done := make(chan error, 1)

	go func() {
		err := invokeBody(ref.Test.Body, in)
		done <- err
		if !state.CompareAndSwap(bodyRunning, bodyReturned) {
			r.logger.Debug("detached test body returned", "test", ref.Name(), "error", err)
			r.detached.Add(-1)
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var abandonErr error
	select {
	case err := <-done:
		return err
	case <-timer.C:
		abandonErr = &TimeoutError{Timeout: timeout}
	case <-ctx.Done():
		abandonErr = fmt.Errorf("test aborted: %w", context.Cause(ctx))
	}

	if !state.CompareAndSwap(bodyRunning, bodyAbandoned) {
		// The body returned while the timer fired; keep its result.
		return <-done
	}
	r.detached.Add(1)
	cancel(abandonErr)
	r.logger.Warn("test body still running after cancellation; leaving it detached",
		"test", ref.Name(),
		"timeout", timeout,
		"reason", abandonErr,
	)
	return abandonErr
}

func invokeBody(body tree.BodyFunc, in tree.TestInput) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return body(in)
}

// runBeforeAlls walks root-first and runs the beforeAll hooks of every scope
// that has not run them yet.
func (r *Runner) runBeforeAlls(s *tree.Scope, in tree.TestInput) error {
	for _, sc := range s.Lineage() {
		if sc.HasRunBeforeAlls {
			continue
		}
		for i, hook := range sc.BeforeAll {
			if err := hook(in); err != nil {
				return &HookError{Kind: HookBeforeAll, Scope: sc, Index: i, Err: err}
			}
		}
		sc.HasRunBeforeAlls = true
		r.logger.Debug("beforeAll hooks ran", "scope", sc.IndexPath(), "count", len(sc.BeforeAll))
	}
	return nil
}

func (r *Runner) runBeforeEaches(s *tree.Scope, in tree.TestInput) error {
	for _, sc := range s.Lineage() {
		for i, hook := range sc.BeforeEach {
			if err := hook(in); err != nil {
				return &HookError{Kind: HookBeforeEach, Scope: sc, Index: i, Err: err}
			}
		}
	}
	return nil
}

func (r *Runner) runAfterEaches(s *tree.Scope, fc tree.FinishedTestContext) error {
	for sc := s; sc != nil; sc = sc.Parent {
		for i, hook := range sc.AfterEach {
			if err := hook(fc); err != nil {
				return &HookError{Kind: HookAfterEach, Scope: sc, Index: i, Err: err}
			}
		}
	}
	return nil
}

// runAfterAlls walks leaf-first, running a scope's afterAll hooks once its
// whole subtree has run, and stops at the first scope still waiting on tests.
func (r *Runner) runAfterAlls(s *tree.Scope) error {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.HasRunAfterAlls || !sc.HasRunAllTests() {
			return nil
		}
		for i, hook := range sc.AfterAll {
			if err := hook(); err != nil {
				return &HookError{Kind: HookAfterAll, Scope: sc, Index: i, Err: err}
			}
		}
		sc.HasRunAfterAlls = true
		r.logger.Debug("afterAll hooks ran", "scope", sc.IndexPath(), "count", len(sc.AfterAll))
	}
	return nil
}
