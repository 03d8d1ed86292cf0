package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orchard/internal/events"
	"github.com/roach88/orchard/internal/runner"
	"github.com/roach88/orchard/internal/testutil"
	"github.com/roach88/orchard/internal/tree"
)

func openTestJournal(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	j, err := Open(MemoryPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleSuite(t *testing.T) *tree.Scope {
	t.Helper()
	root, err := tree.Build("suite", func(b *tree.Builder) {
		b.It("passes", func(in tree.TestInput) error {
			in.Log("hello")
			return nil
		})
		b.It("fails", func(tree.TestInput) error { return errors.New("boom") })
		b.It("skipped", func(tree.TestInput) error { return nil }, tree.Skip())
	})
	require.NoError(t, err)
	return root
}

func TestOpen_RegistersRun(t *testing.T) {
	j := openTestJournal(t, WithRunIDGenerator(testutil.FixedRunID("run-1")), WithLabel("suite"))
	assert.Equal(t, "run-1", j.RunID())

	var label string
	var seq int64
	require.NoError(t, j.db.QueryRow(`SELECT label, created_seq FROM runs WHERE id = ?`, "run-1").Scan(&label, &seq))
	assert.Equal(t, "suite", label)
	assert.Equal(t, int64(1), seq)

	var version int
	require.NoError(t, j.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_DefaultRunIDIsUUIDv7(t *testing.T) {
	j := openTestJournal(t)
	id, err := uuid.Parse(j.RunID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestOpen_FileBackedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ids := testutil.NewSequentialRunIDs("run")

	first, err := Open(path, WithRunIDGenerator(ids))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path, WithRunIDGenerator(ids))
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, "run-0002", second.RunID())
}

func TestJournal_RecordsRunInOrder(t *testing.T) {
	j := openTestJournal(t,
		WithRunIDGenerator(testutil.FixedRunID("run-1")),
		WithClock(testutil.NewSeqClock(0)),
	)
	root := sampleSuite(t)

	_, err := runner.New(j.Sink()).RunAll(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, j.Err())

	entries, err := j.Events(context.Background())
	require.NoError(t, err)

	var lines []string
	for i, e := range entries {
		assert.Equal(t, int64(i+2), e.Seq, "seq 1 belongs to the run row")
		assert.Equal(t, "run-1", e.RunID)
		lines = append(lines, e.String())
	}
	assert.Equal(t, []string{
		"before_setup_starting suite.passes",
		"before_setup_finished suite.passes",
		"test_starting suite.passes",
		"test_passed suite.passes",
		"test_finished suite.passes",
		"after_setup_starting suite.passes",
		"after_setup_finished suite.passes",
		"before_setup_starting suite.fails",
		"before_setup_finished suite.fails",
		"test_starting suite.fails",
		"test_failed suite.fails: boom",
		"test_finished suite.fails",
		"after_setup_starting suite.fails",
		"after_setup_finished suite.fails",
		"test_skipped suite.skipped (skipped explicitly)",
	}, lines)

	assert.Equal(t, "hello", entries[3].Output)
	assert.Equal(t, "0:0", entries[3].Path)
}

func TestJournal_Queries(t *testing.T) {
	j := openTestJournal(t)
	_, err := runner.New(j.Sink()).RunAll(context.Background(), sampleSuite(t))
	require.NoError(t, err)

	counts, err := j.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[events.TypeTestPassed])
	assert.Equal(t, 1, counts[events.TypeTestFailed])
	assert.Equal(t, 1, counts[events.TypeTestSkipped])
	assert.Equal(t, 2, counts[events.TypeTestStarting])

	failures, err := j.Failures(context.Background())
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "suite.fails", failures[0].Test)
	assert.Equal(t, "boom", failures[0].Err)

	forSkipped, err := j.EventsFor(context.Background(), "0:2")
	require.NoError(t, err)
	require.Len(t, forSkipped, 1)
	assert.Equal(t, events.TypeTestSkipped, forSkipped[0].Type)

	none, err := j.EventsFor(context.Background(), "0:9")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestJournal_ElapsedRoundTrips(t *testing.T) {
	j := openTestJournal(t)
	root, err := tree.Build("suite", func(b *tree.Builder) {
		b.It("t", func(tree.TestInput) error { return nil })
	})
	require.NoError(t, err)

	j.Handle(events.Event{
		Type:    events.TypeTestPassed,
		Ref:     events.TestRef{Scope: root, Test: root.Tests[0]},
		Elapsed: 1500 * time.Microsecond,
	})
	entries, err := j.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1500*time.Microsecond, entries[0].Elapsed)
}

func TestJournal_SeparateJournalsAreIsolated(t *testing.T) {
	a := openTestJournal(t)
	b := openTestJournal(t)

	_, err := runner.New(a.Sink()).RunAll(context.Background(), sampleSuite(t))
	require.NoError(t, err)

	entries, err := b.Events(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_KeepsFirstWriteError(t *testing.T) {
	j, err := Open(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	root := sampleSuite(t)
	ref := events.TestRef{Scope: root, Test: root.Tests[0]}
	j.Handle(events.Event{Type: events.TypeTestStarting, Ref: ref})
	first := j.Err()
	require.Error(t, first)
	assert.Contains(t, first.Error(), "test_starting")

	j.Handle(events.Event{Type: events.TypeTestPassed, Ref: ref})
	assert.Same(t, first, j.Err())
}

func TestLogicalClock(t *testing.T) {
	c := NewLogicalClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "test_passed a.b", Entry{Type: events.TypeTestPassed, Test: "a.b"}.String())
	assert.Equal(t, "test_failed a.b: x", Entry{Type: events.TypeTestFailed, Test: "a.b", Err: "x"}.String())
	assert.Equal(t, "test_skipped a.b (why)", Entry{Type: events.TypeTestSkipped, Test: "a.b", Reason: "why"}.String())
}
