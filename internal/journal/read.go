package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/orchard/internal/events"
)

// Entry is one journaled event.
type Entry struct {
	Seq     int64
	RunID   string
	Type    events.Type
	Test    string
	Path    string
	Elapsed time.Duration
	Reason  string
	Err     string
	Output  string
}

// String renders e as "<type> <test>", plus the reason for skips and the
// error for failures.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteByte(' ')
	b.WriteString(e.Test)
	switch {
	case e.Reason != "":
		fmt.Fprintf(&b, " (%s)", e.Reason)
	case e.Err != "":
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	return b.String()
}

const entryColumns = `seq, run_id, type, test_name, test_path, elapsed_ns, reason, error, output`

// Events returns every event of the run ordered by seq.
// Returns an empty slice (not nil) when nothing was recorded.
func (j *Journal) Events(ctx context.Context) ([]Entry, error) {
	return j.query(ctx, `
		SELECT `+entryColumns+`
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, j.runID)
}

// EventsFor returns the events of the test at path (see tree.TestPath)
// ordered by seq.
func (j *Journal) EventsFor(ctx context.Context, path string) ([]Entry, error) {
	return j.query(ctx, `
		SELECT `+entryColumns+`
		FROM events
		WHERE run_id = ? AND test_path = ?
		ORDER BY seq ASC
	`, j.runID, path)
}

// Counts returns how many events of each type were recorded.
func (j *Journal) Counts(ctx context.Context) (map[events.Type]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM events
		WHERE run_id = ?
		GROUP BY type
	`, j.runID)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[events.Type]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[events.Type(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// Failures returns the test_failed events ordered by seq.
func (j *Journal) Failures(ctx context.Context) ([]Entry, error) {
	return j.query(ctx, `
		SELECT `+entryColumns+`
		FROM events
		WHERE run_id = ? AND type = ?
		ORDER BY seq ASC
	`, j.runID, string(events.TypeTestFailed))
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			typ       string
			elapsedNs int64
		)
		if err := rows.Scan(&e.Seq, &e.RunID, &typ, &e.Test, &e.Path, &elapsedNs, &e.Reason, &e.Err, &e.Output); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = events.Type(typ)
		e.Elapsed = time.Duration(elapsedNs)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return entries, nil
}
