package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing run", func(t *testing.T) {
		_, err := st.LoadRun(ctx, "does-not-exist")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("save and load run", func(t *testing.T) {
		started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		rec := RunRecord{
			RunID:       "run-1",
			GraphID:     "graph_1",
			State:       map[string]any{"code": "def a(): pass", "quality_score": 2.0},
			CurrentNode: "extract",
			Status:      "running",
			Log:         []string{},
			StartedAt:   started,
		}
		if err := st.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}

		rec.Status = "completed"
		rec.CurrentNode = "suggest_improvements"
		rec.Log = []string{"Running node: extract"}
		if err := st.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun() overwrite error = %v", err)
		}

		got, err := st.LoadRun(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadRun() error = %v", err)
		}
		if got.Status != "completed" || got.CurrentNode != "suggest_improvements" {
			t.Errorf("got status=%s current=%s, want completed/suggest_improvements", got.Status, got.CurrentNode)
		}
		if got.GraphID != "graph_1" {
			t.Errorf("GraphID = %q", got.GraphID)
		}
		if len(got.Log) != 1 || got.Log[0] != "Running node: extract" {
			t.Errorf("Log = %v", got.Log)
		}
		if got.State["quality_score"] != 2.0 {
			t.Errorf("quality_score = %v", got.State["quality_score"])
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
		}
	})

	t.Run("steps in order and replaced", func(t *testing.T) {
		steps, err := st.LoadSteps(ctx, "no-steps")
		if err != nil {
			t.Fatalf("LoadSteps() error = %v", err)
		}
		if steps == nil || len(steps) != 0 {
			t.Fatalf("expected empty non-nil slice, got %v", steps)
		}

		for _, s := range []struct {
			step int
			node string
		}{{2, "check_complexity"}, {1, "extract"}, {3, "detect_issues"}} {
			if err := st.SaveStep(ctx, "run-2", s.step, s.node, map[string]any{"step": float64(s.step)}); err != nil {
				t.Fatalf("SaveStep(%d) error = %v", s.step, err)
			}
		}
		if err := st.SaveStep(ctx, "run-2", 3, "suggest_improvements", map[string]any{"replaced": true}); err != nil {
			t.Fatalf("SaveStep() replace error = %v", err)
		}

		steps, err = st.LoadSteps(ctx, "run-2")
		if err != nil {
			t.Fatalf("LoadSteps() error = %v", err)
		}
		if len(steps) != 3 {
			t.Fatalf("len(steps) = %d, want 3", len(steps))
		}
		for i, s := range steps {
			if s.Step != i+1 {
				t.Errorf("steps[%d].Step = %d, want %d", i, s.Step, i+1)
			}
		}
		if steps[0].NodeID != "extract" {
			t.Errorf("steps[0].NodeID = %q, want extract", steps[0].NodeID)
		}
		if steps[2].NodeID != "suggest_improvements" || steps[2].State["replaced"] != true {
			t.Errorf("step 3 was not replaced: %+v", steps[2])
		}
	})
}
