// Package runlog records training runs and per-step statistics in SQLite.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Run describes one training run.
type Run struct {
	ID        uuid.UUID
	Optimizer string
	Lazy      bool
	Config    map[string]any
	StartedAt time.Time
}

// Step is the outcome of one applied training step.
type Step struct {
	Step         int
	Loss         float64
	ActiveRows   int   // embedding rows updated
	TotalRows    int   // embedding rows in the registered tables
	SkippedBytes int64 // embedding bytes not rewritten thanks to masking
}

// Store persists runs and steps.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewStore creates a store at path. Call Init before use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init opens the database and creates the tables.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// StartRun records a run. A zero ID is replaced by a new random one.
func (s *Store) StartRun(ctx context.Context, run Run) (uuid.UUID, error) {
	db, err := s.getDB()
	if err != nil {
		return uuid.Nil, err
	}

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	config, err := json.Marshal(run.Config)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode config: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, optimizer, lazy, config, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID.String(), run.Optimizer, run.Lazy, string(config), run.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}

// RecordStep appends one step to a run. Recording the same step twice overwrites it.
func (s *Store) RecordStep(ctx context.Context, runID uuid.UUID, step Step) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO steps (run_id, step, loss, active_rows, total_rows, skipped_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			loss = excluded.loss,
			active_rows = excluded.active_rows,
			total_rows = excluded.total_rows,
			skipped_bytes = excluded.skipped_bytes
	`, runID.String(), step.Step, step.Loss, step.ActiveRows, step.TotalRows, step.SkippedBytes)
	return err
}

// GetRun loads a run. The boolean is false when the run does not exist.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run       Run
		config    string
		startedAt string
	)
	err = db.QueryRowContext(ctx, `
		SELECT optimizer, lazy, config, started_at FROM runs WHERE id = ?
	`, runID.String()).Scan(&run.Optimizer, &run.Lazy, &config, &startedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}

	run.ID = runID
	if err := json.Unmarshal([]byte(config), &run.Config); err != nil {
		return Run{}, false, fmt.Errorf("decode config of run %s: %w", runID, err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, false, fmt.Errorf("decode start of run %s: %w", runID, err)
	}
	return run, true, nil
}

// Steps returns a run's steps in order.
func (s *Store) Steps(ctx context.Context, runID uuid.UUID) ([]Step, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT step, loss, active_rows, total_rows, skipped_bytes
		FROM steps WHERE run_id = ? ORDER BY step
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Step, &st.Loss, &st.ActiveRows, &st.TotalRows, &st.SkippedBytes); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("runlog store not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			optimizer TEXT NOT NULL,
			lazy BOOLEAN NOT NULL,
			config TEXT NOT NULL,
			started_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL REFERENCES runs(id),
			step INTEGER NOT NULL,
			loss REAL NOT NULL,
			active_rows INTEGER NOT NULL,
			total_rows INTEGER NOT NULL,
			skipped_bytes INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		);
	`)
	return err
}
