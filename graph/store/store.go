// Package store keeps run records and per-step history so finished and
// in-flight runs can be looked up by id.
//
// Backends are lookup tables only: they make no promise that an in-flight
// run survives a restart, and nothing resumes a run from a stored record.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"
)

// ErrNotFound is returned when a run has no stored record.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store persists run records and step history.
//
// Implementations must be safe for concurrent use. Records passed to
// SaveRun and SaveStep are copied or serialized before the call returns, so
// callers may keep mutating their own values.
type Store interface {
	// SaveRun inserts or replaces the record for rec.RunID.
	SaveRun(ctx context.Context, rec RunRecord) error

	// LoadRun returns the record for runID, or ErrNotFound.
	LoadRun(ctx context.Context, runID string) (RunRecord, error)

	// SaveStep records the state after the given 1-indexed step of a run.
	// Saving the same step twice replaces it.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state map[string]any) error

	// LoadSteps returns the recorded steps of a run in step order. A run
	// with no steps yields an empty slice, not ErrNotFound.
	LoadSteps(ctx context.Context, runID string) ([]StepRecord, error)

	// Close releases backend resources.
	Close() error
}

// RunRecord is the stored form of a run.
type RunRecord struct {
	RunID       string         `json:"run_id"`
	GraphID     string         `json:"graph_id"`
	State       map[string]any `json:"state"`
	CurrentNode string         `json:"current_node"`
	Status      string         `json:"status"`
	Log         []string       `json:"log"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at,omitzero"`
}

// StepRecord is the state of a run right after one node executed.
type StepRecord struct {
	Step      int            `json:"step"`
	NodeID    string         `json:"node_id"`
	State     map[string]any `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
}

// Clone returns a copy of rec sharing no top-level map or slice with it.
func (rec RunRecord) Clone() RunRecord {
	rec.State = maps.Clone(rec.State)
	rec.Log = slices.Clone(rec.Log)
	return rec
}
