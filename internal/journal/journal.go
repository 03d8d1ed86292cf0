package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/orchard/internal/events"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and events tables
const currentSchemaVersion = 1

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// RunIDGenerator produces the identifier stamped on a journal's run row.
type RunIDGenerator interface {
	Generate() string
}

// UUIDGenerator generates time-ordered UUIDv7 run IDs.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures Open.
type Option func(*options)

type options struct {
	ids   RunIDGenerator
	clock Clock
	label string
}

// WithRunIDGenerator replaces the UUIDv7 generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithClock replaces the logical clock that stamps seq.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLabel sets a human-readable label on the run row, usually the suite name.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// Journal is a per-run event log.
type Journal struct {
	db    *sql.DB
	runID string
	clock Clock

	mu  sync.Mutex
	err error
}

// Open creates a journal database at path and registers a new run in it.
// Pass MemoryPath for a journal that lives only as long as the Journal.
func Open(path string, opts ...Option) (*Journal, error) {
	o := options{ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = NewLogicalClock()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// A :memory: database belongs to one connection; a second connection
	// would see an empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{db: db, runID: o.ids.Generate(), clock: o.clock}
	if _, err := db.Exec(
		`INSERT INTO runs (id, label, created_seq) VALUES (?, ?, ?)`,
		j.runID, o.label, j.clock.Next(),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}
	return j, nil
}

// Close closes the database. An in-memory journal's contents are gone
// afterwards.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// RunID returns the run's identifier.
func (j *Journal) RunID() string {
	return j.runID
}

// Sink returns j as an events.Sink.
func (j *Journal) Sink() events.Sink {
	return events.Adapt(j)
}

// Handle appends e to the journal. Sinks cannot fail, so the first write
// error is kept and later events are dropped; check Err after the run.
func (j *Journal) Handle(e events.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	if err := j.write(context.Background(), e); err != nil {
		j.err = err
	}
}

// Err returns the first write error, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Journal) write(ctx context.Context, e events.Event) error {
	var errText string
	if e.Err != nil {
		errText = e.Err.Error()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events
		(seq, run_id, type, test_name, test_path, elapsed_ns, reason, error, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.clock.Next(),
		j.runID,
		string(e.Type),
		e.Ref.Name(),
		e.Ref.Path(),
		e.Elapsed.Nanoseconds(),
		e.Reason,
		errText,
		e.Output.Text,
	)
	if err != nil {
		return fmt.Errorf("write %s event for %q: %w", e.Type, e.Ref.Name(), err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return errors.New("journal schema is newer than this binary")
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
