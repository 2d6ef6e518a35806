// SPDX-License-Identifier: Apache-2.0

// Package store persists execution timelines in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("timeline store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS timeline_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	plan_id    TEXT NOT NULL,
	run_id     TEXT NOT NULL,
	step_id    INTEGER NOT NULL DEFAULT 0,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeline_plan ON timeline_events(plan_id, id);
`

// Event is one entry of an execution timeline
type Event struct {
	ID        int64     `json:"id" yaml:"id"`
	PlanID    string    `json:"plan_id" yaml:"plan_id"`
	RunID     string    `json:"run_id" yaml:"run_id"`
	StepID    int       `json:"step_id,omitempty" yaml:"step_id,omitempty"`
	Kind      string    `json:"kind" yaml:"kind"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Detail    string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Store is a SQLite backed timeline
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the timeline database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Record appends an event. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, event Event) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO timeline_events (plan_id, run_id, step_id, kind, title, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.PlanID, event.RunID, event.StepID, event.Kind, event.Title, event.Detail,
		event.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record event: %w", err)
	}

	return result.LastInsertId()
}

// List returns the most recent events of a plan in chronological order.
// An empty planID lists events of every plan; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, planID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, run_id, step_id, kind, title, detail, created_at FROM (
			SELECT * FROM timeline_events
			WHERE ? = '' OR plan_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`,
		planID, planID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var created int64
		if err := rows.Scan(&e.ID, &e.PlanID, &e.RunID, &e.StepID, &e.Kind, &e.Title, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}

// Runs returns the distinct run ids recorded for a plan, oldest first
func (s *Store) Runs(ctx context.Context, planID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM timeline_events
		WHERE plan_id = ?
		GROUP BY run_id
		ORDER BY MIN(id)`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
