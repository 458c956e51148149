// Package history keeps a SQLite log of past runs.
package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/ivlev/pixelsculptor/internal/logging"
	"github.com/ivlev/pixelsculptor/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	source TEXT,
	target TEXT,
	width INTEGER,
	height INTEGER,
	block_size INTEGER,
	threshold REAL,
	score REAL,
	passed INTEGER,
	resized INTEGER,
	output TEXT,
	elapsed_ms INTEGER
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`

// timeLayout is fixed-width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one row of the runs table.
type Run struct {
	ID        string
	StartedAt time.Time
	Source    string
	Target    string
	Width     int
	Height    int
	BlockSize int
	Threshold float64
	Score     float64
	Passed    bool
	Resized   bool
	Output    string
	Elapsed   time.Duration
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating runs table")
	}
	logging.Debugf("history database ready at %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record stores a finished run. Recording the same ID twice replaces the row.
func (s *Store) Record(ctx context.Context, r *report.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, started_at, finished_at, source, target, width, height,
			 block_size, threshold, score, passed, resized, output, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
		r.Source,
		r.Target,
		r.TargetSize.Width,
		r.TargetSize.Height,
		r.BlockSize,
		r.Threshold,
		r.Score,
		r.Passed,
		r.Resized,
		r.Output,
		r.Timings.Total().Milliseconds(),
	)
	return errors.Wrapf(err, "recording run %s", r.ID)
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, source, target, width, height, block_size,
		       threshold, score, passed, resized, output, elapsed_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started string
			elapsed int64
		)
		if err := rows.Scan(&r.ID, &started, &r.Source, &r.Target, &r.Width, &r.Height,
			&r.BlockSize, &r.Threshold, &r.Score, &r.Passed, &r.Resized, &r.Output, &elapsed); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, errors.Wrapf(err, "run %s has bad start time", r.ID)
		}
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "iterating runs")
}
