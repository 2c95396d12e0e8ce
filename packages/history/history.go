// Package history records the outcome of each run in a SQLite database.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/db"
	"github.com/google/uuid"
)

// DefaultPath is the history database used when none is configured.
const DefaultPath = ".factcheck/history.db"

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	file        TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	errored     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	p50_us      INTEGER NOT NULL,
	p99_us      INTEGER NOT NULL
)`

// Run is one recorded run of a case file.
type Run struct {
	ID        uuid.UUID
	File      string
	StartedAt time.Time
	Passed    int
	Failed    int
	Skipped   int
	Errored   int
	Duration  time.Duration
	P50       time.Duration
	P99       time.Duration
}

// Store reads and writes runs.
type Store struct {
	client *db.Client
}

// Open opens the history database at path, creating the table if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	client, err := db.Open(ctx, "sqlite://"+path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := client.Exec(ctx, schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{client: client}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.client.Close()
}

// Record stores r. A zero ID is replaced with a new one.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return s.client.Exec(ctx,
		`INSERT INTO runs (id, file, started_at, passed, failed, skipped, errored, duration_ms, p50_us, p99_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.File, r.StartedAt.UnixMilli(),
		r.Passed, r.Failed, r.Skipped, r.Errored,
		r.Duration.Milliseconds(), r.P50.Microseconds(), r.P99.Microseconds(),
	)
}

// Recent returns up to n runs, newest first. A file other than "" limits
// the result to runs of that file.
func (s *Store) Recent(ctx context.Context, file string, n int) ([]*Run, error) {
	query := `SELECT id, file, started_at, passed, failed, skipped, errored, duration_ms, p50_us, p99_us FROM runs`
	var args []any
	if file != "" {
		query += ` WHERE file = ?`
		args = append(args, file)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, n)

	result, err := s.client.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	runs := make([]*Run, 0, len(result.Rows))
	for _, row := range result.Rows {
		r, err := scanRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

func scanRun(row []any) (*Run, error) {
	if len(row) != 10 {
		return nil, fmt.Errorf("history row has %d columns", len(row))
	}
	id, err := uuid.Parse(fmt.Sprint(row[0]))
	if err != nil {
		return nil, fmt.Errorf("history row id: %w", err)
	}
	n := func(v any) int64 {
		i, _ := v.(int64)
		return i
	}
	return &Run{
		ID:        id,
		File:      fmt.Sprint(row[1]),
		StartedAt: time.UnixMilli(n(row[2])),
		Passed:    int(n(row[3])),
		Failed:    int(n(row[4])),
		Skipped:   int(n(row[5])),
		Errored:   int(n(row[6])),
		Duration:  time.Duration(n(row[7])) * time.Millisecond,
		P50:       time.Duration(n(row[8])) * time.Microsecond,
		P99:       time.Duration(n(row[9])) * time.Microsecond,
	}, nil
}
