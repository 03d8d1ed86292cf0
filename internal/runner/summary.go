package runner

import (
	"errors"
	"fmt"
	"time"
)

// Summary aggregates test outcomes. A single Run produces a summary with
// Total 1; callers fold many with Combine.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Elapsed time.Duration

	// Err carries test failures. Combining joins them.
	Err error
}

// Combine sums every count and duration of a and b and joins their errors.
// The zero Summary is the identity.
func Combine(a, b Summary) Summary {
	return Summary{
		Total:   a.Total + b.Total,
		Passed:  a.Passed + b.Passed,
		Failed:  a.Failed + b.Failed,
		Skipped: a.Skipped + b.Skipped,
		Elapsed: a.Elapsed + b.Elapsed,
		Err:     joinErrs(a.Err, b.Err),
	}
}

// Add is Combine(s, o).
func (s Summary) Add(o Summary) Summary {
	return Combine(s, o)
}

// OK reports whether nothing failed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// String renders the counts on one line.
func (s Summary) String() string {
	return fmt.Sprintf("%d total, %d passed, %d failed, %d skipped in %s",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Elapsed)
}

func joinErrs(a, b error) error {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return errors.Join(a, b)
	}
}
