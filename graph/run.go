package graph

import (
	"slices"
	"time"

	"github.com/dshills/graphflow/graph/store"
)

// Status is the lifecycle state of a run.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunState is the mutable record of one execution of a workflow.
//
// It is owned by a single Run call while the run is in progress. Use
// Snapshot to hand a copy to anything that may read it concurrently.
type RunState struct {
	RunID       string    `json:"run_id"`
	GraphID     string    `json:"graph_id"`
	State       State     `json:"state"`
	CurrentNode string    `json:"current_node"`
	Status      Status    `json:"status"`
	Log         []string  `json:"log"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

// NewRunState creates a running record positioned at entryPoint. The initial
// state is copied, so later changes to the caller's map are not observed.
func NewRunState(runID, graphID, entryPoint string, initial map[string]any) *RunState {
	return &RunState{
		RunID:       runID,
		GraphID:     graphID,
		State:       State(initial).Clone(),
		CurrentNode: entryPoint,
		Status:      StatusRunning,
		Log:         []string{},
		StartedAt:   time.Now().UTC(),
	}
}

// Snapshot returns a copy of rs that shares no maps or slices with it.
// State values themselves are copied shallowly.
func (rs *RunState) Snapshot() *RunState {
	cp := *rs
	cp.State = rs.State.Clone()
	cp.Log = slices.Clone(rs.Log)
	if cp.Log == nil {
		cp.Log = []string{}
	}
	return &cp
}

// Done reports whether the run has left the running status.
func (rs *RunState) Done() bool {
	return rs.Status != StatusRunning
}

// Record converts a snapshot of rs into its stored form.
func (rs *RunState) Record() store.RunRecord {
	snap := rs.Snapshot()
	return store.RunRecord{
		RunID:       snap.RunID,
		GraphID:     snap.GraphID,
		State:       snap.State,
		CurrentNode: snap.CurrentNode,
		Status:      string(snap.Status),
		Log:         snap.Log,
		Error:       snap.Error,
		StartedAt:   snap.StartedAt,
		FinishedAt:  snap.FinishedAt,
	}
}

// RunStateFromRecord rebuilds a RunState from its stored form.
func RunStateFromRecord(rec store.RunRecord) *RunState {
	rs := &RunState{
		RunID:       rec.RunID,
		GraphID:     rec.GraphID,
		State:       State(rec.State).Clone(),
		CurrentNode: rec.CurrentNode,
		Status:      Status(rec.Status),
		Log:         slices.Clone(rec.Log),
		Error:       rec.Error,
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
	}
	if rs.Log == nil {
		rs.Log = []string{}
	}
	return rs
}
