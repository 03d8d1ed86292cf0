package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/orchard/internal/suitefile"
)

// FileValidation is the validation outcome of one suite file.
type FileValidation struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Tests  int      `json:"tests,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds the outcome of every validated file.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite-file>...",
		Short: "Validate suite documents without running them",
		Long: `Parse and validate YAML or CUE suite documents.

Reports every problem in each file: unknown fields, missing names, steps
with zero or several kinds, unparsable durations and unknown expected
outcomes.

Exit codes:
  0 - All files valid
  1 - At least one file is invalid
  2 - A file could not be read`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := opts.logger()

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	missing := false

	for _, path := range paths {
		logger.Debug("validating suite", "path", path)
		fv := FileValidation{Path: path, Valid: true}

		suite, err := suitefile.Load(path)
		if err != nil {
			fv.Valid = false
			fv.Errors = strings.Split(err.Error(), "\n")
			result.Valid = false
			if errors.Is(err, fs.ErrNotExist) {
				missing = true
			}
		} else {
			fv.Tests = suite.CountTests()
		}
		result.Files = append(result.Files, fv)
	}

	if f.json() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(f.Writer, "✓ %s (%d tests)\n", fv.Path, fv.Tests)
				continue
			}
			fmt.Fprintf(f.Writer, "✗ %s\n", fv.Path)
			for _, e := range fv.Errors {
				fmt.Fprintf(f.Writer, "  %s\n", e)
			}
		}
	}

	switch {
	case missing:
		return NewExitError(ExitCommandError, "suite file not found")
	case !result.Valid:
		return NewExitError(ExitFailure, "invalid suite")
	}
	return nil
}
