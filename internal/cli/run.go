package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/roach88/orchard/internal/config"
	"github.com/roach88/orchard/internal/events"
	"github.com/roach88/orchard/internal/journal"
	"github.com/roach88/orchard/internal/metrics"
	"github.com/roach88/orchard/internal/runner"
	"github.com/roach88/orchard/internal/suitefile"
	"github.com/roach88/orchard/internal/tree"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter         string        // doublestar glob over "scope/child/test" names
	DefaultTimeout time.Duration // overrides ORCHARD_DEFAULT_TIMEOUT_SECONDS when set
	MetricsFile    string        // Prometheus textfile destination
	Trace          bool          // include the journaled event trace
}

// TestRow is one reported test.
type TestRow struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Elapsed string `json:"elapsed,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// RunResult is the outcome of one run command.
type RunResult struct {
	Suite    string    `json:"suite"`
	RunID    string    `json:"run_id"`
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
	Elapsed  string    `json:"elapsed"`
	Tests    []TestRow `json:"tests"`
	Problems []string  `json:"problems,omitempty"`
	Trace    []string  `json:"trace,omitempty"`
	Detached int64     `json:"detached,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite-file>",
		Short: "Run a suite document",
		Long: `Run every test of a YAML or CUE suite document in declaration order.

Hooks cascade through the scope tree; only/skip marks and timeouts are
resolved per test. When the document declares expected outcomes or an
expected trace, the run is checked against them.

Exit codes:
  0 - All tests passed, or the run matched every expectation
  1 - Test failures, or expectations not met
  2 - Command error (bad suite, hook failure, I/O error)

Examples:
  orchard run suite.yaml
  orchard run suite.cue --filter "checkout/**"
  orchard run suite.yaml --default-timeout 30s --metrics-file orchard.prom
  orchard run suite.yaml --trace --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only tests whose slash-joined name matches this glob")
	cmd.Flags().DurationVar(&opts.DefaultTimeout, "default-timeout", 0, "timeout for tests that set none (default from "+config.EnvDefaultTimeout+" or 5s)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print every lifecycle event")

	return cmd
}

func runSuite(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := opts.logger()

	cfg, err := resolveConfig(cmd, opts.DefaultTimeout)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	match, err := globMatcher(opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadFilter, err.Error(), nil)
	}

	compiled, err := loadAndCompile(path)
	if err != nil {
		return failLoad(f, err)
	}
	name := compiled.Suite.Name

	j, err := journal.Open(journal.MemoryPath, journal.WithLabel(name))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}
	defer j.Close()

	collector := metrics.NewCollector(name)

	sinks := []events.Sink{compiled.Sink(), j.Sink(), collector.Sink()}
	if opts.Verbose {
		sinks = append(sinks, events.LogSink(logger))
	}
	r := runner.New(events.Multi(sinks...),
		runner.WithDefaultTimeout(cfg.DefaultTimeout),
		runner.WithLogger(logger),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Debug("running suite", "suite", name, "path", path, "run_id", j.RunID(), "default_timeout", cfg.DefaultTimeout)
	sum, runErr := r.RunMatching(ctx, compiled.Root, match)

	collector.RecordSummary(sum)
	if opts.MetricsFile != "" {
		if err := collector.WriteTextfile(opts.MetricsFile); err != nil {
			return f.Fail(ExitCommandError, ErrCodeMetrics, err.Error(), nil)
		}
	}
	if err := j.Err(); err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	if runErr != nil {
		if runner.IsHookError(runErr) {
			return f.Fail(ExitCommandError, ErrCodeHookFailed, runErr.Error(), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeAborted, runErr.Error(), nil)
	}

	result, err := buildRunResult(ctx, name, j, sum, opts.Trace)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	// A filtered run leaves tests unreported on purpose, so expectations
	// only apply to full runs.
	conformance := opts.Filter == "" && compiled.HasExpectations()
	if conformance {
		result.Problems = compiled.Check()
	}
	if n := r.Detached(); n > 0 {
		logger.Warn("test bodies still running after the run finished", "count", n)
		result.Detached = n
	}

	if f.json() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		renderRunText(f.Writer, result, conformance)
	}

	switch {
	case conformance && len(result.Problems) > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) not met", len(result.Problems)))
	case !conformance && sum.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", sum.Failed))
	}
	return nil
}

func resolveConfig(cmd *cobra.Command, flagTimeout time.Duration) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("default-timeout") {
		if flagTimeout <= 0 {
			return cfg, fmt.Errorf("--default-timeout must be positive, got %s", flagTimeout)
		}
		cfg.DefaultTimeout = flagTimeout
	}
	return cfg, nil
}

// globMatcher returns nil for an empty pattern, meaning every test.
func globMatcher(pattern string) (func(*tree.Scope, *tree.TestBlock) bool, error) {
	if pattern == "" {
		return nil, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid filter pattern %q", pattern)
	}
	return func(s *tree.Scope, tb *tree.TestBlock) bool {
		ok, _ := doublestar.Match(pattern, tree.SlashName(s, tb))
		return ok
	}, nil
}

func loadAndCompile(path string) (*suitefile.Compiled, error) {
	suite, err := suitefile.Load(path)
	if err != nil {
		return nil, err
	}
	return suitefile.Compile(suite)
}

func failLoad(f *OutputFormatter, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeInvalidSuite, err.Error(), nil)
}

func buildRunResult(ctx context.Context, suite string, j *journal.Journal, sum runner.Summary, withTrace bool) (RunResult, error) {
	result := RunResult{
		Suite:   suite,
		RunID:   j.RunID(),
		Total:   sum.Total,
		Passed:  sum.Passed,
		Failed:  sum.Failed,
		Skipped: sum.Skipped,
		Elapsed: formatDuration(sum.Elapsed),
		Tests:   []TestRow{},
	}

	entries, err := j.Events(ctx)
	if err != nil {
		return result, err
	}
	for _, e := range entries {
		if withTrace {
			result.Trace = append(result.Trace, e.String())
		}
		row := TestRow{Path: e.Path, Name: e.Test}
		switch e.Type {
		case events.TypeTestPassed:
			row.Status = metrics.StatusPassed
			row.Elapsed = formatDuration(e.Elapsed)
		case events.TypeTestFailed:
			row.Status = metrics.StatusFailed
			row.Elapsed = formatDuration(e.Elapsed)
			row.Detail = e.Err
		case events.TypeTestSkipped:
			row.Status = metrics.StatusSkipped
			row.Detail = e.Reason
		default:
			continue
		}
		result.Tests = append(result.Tests, row)
	}
	return result, nil
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func renderRunText(w io.Writer, r RunResult, conformance bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s (run %s)", r.Suite, r.RunID))
	t.AppendHeader(table.Row{"Path", "Test", "Status", "Duration", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, row := range r.Tests {
		t.AppendRow(table.Row{row.Path, row.Name, row.Status, row.Elapsed, row.Detail})
	}

	status := metrics.StatusPassed
	if r.Failed > 0 {
		status = metrics.StatusFailed
	}
	t.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("%d tests", r.Total),
		status,
		r.Elapsed,
		fmt.Sprintf("%d passed, %d failed, %d skipped", r.Passed, r.Failed, r.Skipped),
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	if conformance {
		if len(r.Problems) == 0 {
			fmt.Fprintln(w, "✓ Run matches expectations")
		} else {
			fmt.Fprintln(w, "✗ Run does not match expectations:")
			for _, p := range r.Problems {
				fmt.Fprintf(w, "  - %s\n", p)
			}
		}
	}

	if len(r.Trace) > 0 {
		fmt.Fprintln(w, "Trace:")
		for _, line := range r.Trace {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
