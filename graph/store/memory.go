package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

// MemStore keeps records in process memory. It is the default backend.
type MemStore struct {
	mu     sync.RWMutex
	runs   map[string]RunRecord
	steps  map[string]map[int]StepRecord
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:  make(map[string]RunRecord),
		steps: make(map[string]map[int]StepRecord),
	}
}

// SaveRun implements Store.
func (m *MemStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.runs[rec.RunID] = rec.Clone()
	return nil
}

// LoadRun implements Store.
func (m *MemStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return RunRecord{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return RunRecord{}, ErrClosed
	}
	rec, ok := m.runs[runID]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// SaveStep implements Store.
func (m *MemStore) SaveStep(ctx context.Context, runID string, step int, nodeID string, state map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.steps[runID] == nil {
		m.steps[runID] = make(map[int]StepRecord)
	}
	m.steps[runID][step] = StepRecord{
		Step:      step,
		NodeID:    nodeID,
		State:     maps.Clone(state),
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// LoadSteps implements Store.
func (m *MemStore) LoadSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]StepRecord, 0, len(m.steps[runID]))
	for _, rec := range m.steps[runID] {
		rec.State = maps.Clone(rec.State)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out, nil
}

// Close implements Store. Records are dropped.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.runs = nil
	m.steps = nil
	return nil
}
