package runstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mural/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump when the schema
// changes; the run database is disposable telemetry and can be deleted
// on mismatch.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of the schema.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Cycle triggers.
const (
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// Run is one recorded acquisition cycle.
type Run struct {
	ID         int64
	CycleID    string
	Trigger    string
	Status     string
	Outcome    string
	Candidates int
	Accepted   int
	Committed  int
	Updated    bool
	Stitched   bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// FinishRecord carries the terminal facts of a cycle.
type FinishRecord struct {
	Status     string
	Outcome    string
	Candidates int
	Accepted   int
	Committed  int
	Updated    bool
	Stitched   bool
	Error      string
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the run database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.RunDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordStart inserts a running record for cycleID.
func (s *Store) RecordStart(ctx context.Context, cycleID, trigger string) error {
	return s.execWithRetry(ctx,
		`INSERT INTO cycle_runs (cycle_id, trigger_kind, status, started_at) VALUES (?, ?, ?, ?)`,
		cycleID, trigger, StatusRunning, time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// RecordFinish stamps the terminal state of cycleID.
func (s *Store) RecordFinish(ctx context.Context, cycleID string, record FinishRecord) error {
	return s.execWithRetry(ctx,
		`UPDATE cycle_runs
		 SET status = ?, outcome = ?, candidates = ?, accepted = ?, committed = ?,
		     updated = ?, stitched = ?, error = ?, finished_at = ?
		 WHERE cycle_id = ?`,
		record.Status, record.Outcome, record.Candidates, record.Accepted, record.Committed,
		boolToInt(record.Updated), boolToInt(record.Stitched), record.Error,
		time.Now().UTC().Format(time.RFC3339Nano), cycleID,
	)
}

// List returns up to limit runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, trigger_kind, status, outcome, candidates, accepted, committed,
		        updated, stitched, error, started_at, finished_at
		 FROM cycle_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                   Run
			updated, stitched     int
			startedAt, finishedAt string
		)
		if err := rows.Scan(&run.ID, &run.CycleID, &run.Trigger, &run.Status, &run.Outcome,
			&run.Candidates, &run.Accepted, &run.Committed,
			&updated, &stitched, &run.Error, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Updated = updated != 0
		run.Stitched = stitched != 0
		run.StartedAt = parseTime(startedAt)
		run.FinishedAt = parseTime(finishedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
