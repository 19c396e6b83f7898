// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog persists a local history of submitted task runs in a
// SQLite database, so detached submissions can be listed and resumed later.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ptask/pkg/types"
)

const (
	dbFile = "runs.db"

	defaultDir       = ".ptask"
	defaultListLimit = 20
)

// Record is one submitted run as remembered locally. Result holds the
// rendered JSON document once the run completes.
type Record struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"` // query, enrich, or report
	Processor string    `json:"processor"`
	Input     string    `json:"input"` // short summary of the submitted input
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dir/runs.db, creating the
// directory and schema as needed.
func Open(cfg types.RunLogConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run log directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			processor TEXT NOT NULL,
			input TEXT,
			status TEXT NOT NULL,
			result TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put inserts a run record, or refreshes the status, result, and update
// time of an existing one. Creation time, mode, processor, and input are
// never overwritten.
func (s *Store) Put(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, mode, processor, input, status, result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			status=excluded.status, result=excluded.result, updated_at=excluded.updated_at`,
		rec.RunID, rec.Mode, rec.Processor, rec.Input, rec.Status, rec.Result,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", rec.RunID, err)
	}
	return nil
}

// Update sets the status and, when non-empty, the rendered result of an
// existing record. Updating an unknown run id is not an error.
func (s *Store) Update(ctx context.Context, runID, status, result string) error {
	var err error
	if result != "" {
		_, err = s.db.ExecContext(ctx,
			`UPDATE runs SET status = ?, result = ?, updated_at = ? WHERE run_id = ?`,
			status, result, formatTime(time.Now().UTC()), runID,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE runs SET status = ?, updated_at = ? WHERE run_id = ?`,
			status, formatTime(time.Now().UTC()), runID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating run %s: %w", runID, err)
	}
	return nil
}

// Get returns the record for runID, or nil if it was never recorded.
func (s *Store) Get(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, mode, processor, input, status, result, created_at, updated_at
		 FROM runs WHERE run_id = ?`, runID)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	return rec, nil
}

// List returns the most recently created records, newest first. A limit of
// zero or less applies the default of 20. The returned slice is never nil,
// so an empty history encodes as an empty JSON list.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, mode, processor, input, status, result, created_at, updated_at
		 FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning run record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return records, nil
}

func scanRecord(scan func(...any) error) (*Record, error) {
	var rec Record
	var created, updated string
	if err := scan(&rec.RunID, &rec.Mode, &rec.Processor, &rec.Input,
		&rec.Status, &rec.Result, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
