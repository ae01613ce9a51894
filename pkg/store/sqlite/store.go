// Package sqlite stores the execution log in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"

	_ "modernc.org/sqlite"
)

// ExecutionStore execution log on SQLite
type ExecutionStore struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path. ":memory:" is accepted.
func New(path string) (*ExecutionStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &ExecutionStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

func (s *ExecutionStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id             TEXT PRIMARY KEY,
			task_name      TEXT NOT NULL,
			priority       TEXT NOT NULL DEFAULT '',
			location       TEXT NOT NULL,
			decision       TEXT NOT NULL,
			rationale      TEXT NOT NULL DEFAULT '',
			confidence     REAL NOT NULL DEFAULT 0,
			estimated_cost REAL NOT NULL DEFAULT 0,
			fail_safe      INTEGER NOT NULL DEFAULT 0,
			fallback_used  INTEGER NOT NULL DEFAULT 0,
			status         TEXT NOT NULL,
			error          TEXT NOT NULL DEFAULT '',
			duration_ms    INTEGER NOT NULL DEFAULT 0,
			created_at     INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at);
		CREATE INDEX IF NOT EXISTS idx_executions_task_name ON executions(task_name);
	`)
	return err
}

// Close closes the underlying database connection
func (s *ExecutionStore) Close() error {
	return s.db.Close()
}

// Create inserts a record
func (s *ExecutionStore) Create(ctx context.Context, r *model.ExecutionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, task_name, priority, location, decision, rationale, confidence,
			estimated_cost, fail_safe, fallback_used, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskName, r.Priority, r.Location, r.Decision, r.Rationale, r.Confidence,
		r.EstimatedCost, r.FailSafe, r.FallbackUsed, string(r.Status), r.Error, r.DurationMs,
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert execution: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, task_name, priority, location, decision, rationale, confidence,
	estimated_cost, fail_safe, fallback_used, status, error, duration_ms, created_at FROM executions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.ExecutionRecord, error) {
	var r model.ExecutionRecord
	var status string
	var createdAt int64
	err := row.Scan(&r.ID, &r.TaskName, &r.Priority, &r.Location, &r.Decision, &r.Rationale,
		&r.Confidence, &r.EstimatedCost, &r.FailSafe, &r.FallbackUsed, &status, &r.Error,
		&r.DurationMs, &createdAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.ExecutionStatus(status)
	r.CreatedAt = time.Unix(0, createdAt)
	return &r, nil
}

// Get retrieves a record by id
func (s *ExecutionStore) Get(ctx context.Context, id string) (*model.ExecutionRecord, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("execution %s: %w", id, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get execution: %w", err)
	}
	return r, nil
}

// List returns matching records, newest first
func (s *ExecutionStore) List(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, error) {
	var where []string
	var args []any
	if filter.TaskName != "" {
		where = append(where, "task_name = ?")
		args = append(args, filter.TaskName)
	}
	if filter.Location != "" {
		where = append(where, "location = ?")
		args = append(args, filter.Location)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list executions: %w", err)
	}
	defer rows.Close()

	records := make([]*model.ExecutionRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan execution: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteOlderThan removes records created before t
func (s *ExecutionStore) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM executions WHERE created_at < ?`, t.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete executions: %w", err)
	}
	return res.RowsAffected()
}
