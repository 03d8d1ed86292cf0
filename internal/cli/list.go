package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/orchard/internal/config"
	"github.com/roach88/orchard/internal/resolve"
	"github.com/roach88/orchard/internal/tree"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filter string
}

// ListedTest describes one test without running it. Path re-identifies the
// test in any tree built from the same document.
type ListedTest struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Disposition string `json:"disposition"`
	Reason      string `json:"reason,omitempty"`
	Timeout     string `json:"timeout"`
}

// ListResult is the output of the list command.
type ListResult struct {
	Suite   string       `json:"suite"`
	Tests   []ListedTest `json:"tests"`
	ToRun   int          `json:"to_run"`
	Skipped int          `json:"skipped"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <suite-file>",
		Short: "List the tests of a suite in run order",
		Long: `List every test of a suite document in the order run would execute it,
with its index path, whether it would run or be skipped, and its
effective timeout.

Examples:
  orchard list suite.yaml
  orchard list suite.yaml --filter "**/login*" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "list only tests whose slash-joined name matches this glob")

	return cmd
}

func runList(opts *ListOptions, path string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := config.FromEnv()
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

	resolver := resolve.NewResolver(cfg.DefaultTimeout)
	result := ListResult{Suite: compiled.Suite.Name, Tests: []ListedTest{}}
	for s, tb := range tree.Enumerate(compiled.Root) {
		if match != nil && !match(s, tb) {
			continue
		}
		d := resolver.Disposition(s, tb)
		result.Tests = append(result.Tests, ListedTest{
			Path:        tree.TestPath(s, tb),
			Name:        tree.FullName(s, tb),
			Disposition: d.String(),
			Reason:      d.Reason(),
			Timeout:     resolver.Timeout(s, tb).String(),
		})
		if d.Skipped() {
			result.Skipped++
		} else {
			result.ToRun++
		}
	}

	if f.json() {
		return f.Success(result)
	}
	renderListText(f.Writer, result)
	return nil
}

func renderListText(w io.Writer, r ListResult) {
	for _, t := range r.Tests {
		fmt.Fprintf(w, "%s %s [%s timeout=%s]\n", t.Path, t.Name, t.Disposition, t.Timeout)
	}
	fmt.Fprintf(w, "%d tests: %d to run, %d skipped\n", len(r.Tests), r.ToRun, r.Skipped)
}
