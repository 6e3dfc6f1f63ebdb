package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// sqlDialect holds the statements that differ between SQL backends.
type sqlDialect struct {
	schema     []string
	upsertRun  string
	upsertStep string
}

const (
	selectRunQuery   = `SELECT data FROM graphflow_runs WHERE run_id = ?`
	selectStepsQuery = `SELECT step, node_id, state, created_at FROM graphflow_steps WHERE run_id = ? ORDER BY step ASC`
)

// sqlStore implements Store over database/sql. SQLiteStore and MySQLStore
// embed it with their own dialect.
type sqlStore struct {
	db      *sql.DB
	dialect sqlDialect
	mu      sync.RWMutex
	closed  bool
}

func (s *sqlStore) createTables(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// SaveRun implements Store.
func (s *sqlStore) SaveRun(ctx context.Context, rec RunRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsertRun,
		rec.RunID, rec.GraphID, rec.Status, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// LoadRun implements Store.
func (s *sqlStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return RunRecord{}, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, selectRunQuery, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to load run: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return rec, nil
}

// SaveStep implements Store.
func (s *sqlStore) SaveStep(ctx context.Context, runID string, step int, nodeID string, state map[string]any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsertStep,
		runID, step, nodeID, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// LoadSteps implements Store.
func (s *sqlStore) LoadSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectStepsQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []StepRecord{}
	for rows.Next() {
		var (
			rec       StepRecord
			data      []byte
			createdMs int64
		)
		if err := rows.Scan(&rec.Step, &rec.NodeID, &data, &createdMs); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if err := json.Unmarshal(data, &rec.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal step %d: %w", rec.Step, err)
		}
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	return out, nil
}

// Close implements Store. Closing twice is a no-op.
func (s *sqlStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
