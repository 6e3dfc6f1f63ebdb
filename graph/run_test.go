package graph

import "testing"

func TestNewRunState(t *testing.T) {
	initial := map[string]any{"code": "x"}
	rs := NewRunState("run-1", "graph_1", "extract", initial)

	if rs.Status != StatusRunning || rs.CurrentNode != "extract" {
		t.Errorf("rs = %+v", rs)
	}
	if rs.Log == nil || len(rs.Log) != 0 {
		t.Errorf("Log = %v, want empty non-nil", rs.Log)
	}
	if rs.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}

	initial["code"] = "changed"
	if rs.State["code"] != "x" {
		t.Error("run state should copy the initial state")
	}

	if NewRunState("r", "g", "a", nil).State == nil {
		t.Error("nil initial state should become empty state")
	}
}

func TestRunState_Snapshot(t *testing.T) {
	rs := NewRunState("run-1", "g", "a", map[string]any{"k": 1})
	rs.Log = append(rs.Log, "Running node: a")

	snap := rs.Snapshot()
	rs.State["k"] = 2
	rs.Log = append(rs.Log, "Running node: b")
	rs.Log[0] = "mutated"

	if snap.State["k"] != 1 {
		t.Error("snapshot state should not follow later changes")
	}
	if len(snap.Log) != 1 || snap.Log[0] != "Running node: a" {
		t.Errorf("snapshot log = %v", snap.Log)
	}
}

func TestRunState_RecordRoundTrip(t *testing.T) {
	rs := NewRunState("run-1", "g", "a", map[string]any{"k": "v"})
	rs.Status = StatusFailed
	rs.Error = "UNKNOWN_NODE: node not found during execution: b"
	rs.Log = []string{"Running node: a"}

	rec := rs.Record()
	if rec.Status != "failed" || rec.Error != rs.Error {
		t.Errorf("record = %+v", rec)
	}
	rec.State["k"] = "changed"
	if rs.State["k"] != "v" {
		t.Error("record should not alias run state")
	}

	back := RunStateFromRecord(rs.Record())
	if back.Status != StatusFailed || back.RunID != "run-1" || len(back.Log) != 1 {
		t.Errorf("round trip = %+v", back)
	}
	if !back.Done() {
		t.Error("failed run should be done")
	}
}
