package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     *Definition
		wantErr bool
	}{
		{name: "nil", def: nil, wantErr: true},
		{name: "missing nodes", def: &Definition{EntryPoint: "a"}, wantErr: true},
		{name: "missing entry point", def: &Definition{Nodes: map[string]string{"a": "t"}}, wantErr: true},
		{name: "empty node name", def: &Definition{Nodes: map[string]string{"": "t"}, Edges: []EdgeDef{}, EntryPoint: "a"}, wantErr: true},
		{name: "edge without target", def: &Definition{Nodes: map[string]string{"a": "t"}, Edges: []EdgeDef{{Source: "a"}}, EntryPoint: "a"}, wantErr: true},
		{name: "loop without source", def: &Definition{Nodes: map[string]string{"a": "t"}, Edges: []EdgeDef{}, Loops: []LoopRule{{Target: "a"}}, EntryPoint: "a"}, wantErr: true},
		{name: "negative max visits", def: &Definition{Nodes: map[string]string{"a": "t"}, Edges: []EdgeDef{}, Loops: []LoopRule{{Source: "a", Target: "a", MaxVisits: -1}}, EntryPoint: "a"}, wantErr: true},
		{name: "missing edges", def: &Definition{Nodes: map[string]string{"a": "t"}, EntryPoint: "a"}, wantErr: true},
		{name: "minimal", def: &Definition{Nodes: map[string]string{"a": "t"}, Edges: []EdgeDef{}, EntryPoint: "a"}, wantErr: false},
		{name: "dangling references allowed", def: &Definition{Nodes: map[string]string{}, Edges: []EdgeDef{{Source: "x", Target: "y"}}, EntryPoint: "ghost"}, wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidDefinition) {
					t.Errorf("err = %v, want ErrInvalidDefinition", err)
				}
				if ErrorCode(err) != CodeInvalidDefinition {
					t.Errorf("code = %q", ErrorCode(err))
				}
			}
		})
	}
}

func TestParseDefinition(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`{
			"nodes": {"a": "t1", "b": "t2"},
			"edges": [{"source": "a", "target": "b"}],
			"entry_point": "a"
		}`))
		if err != nil {
			t.Fatalf("ParseDefinition() error = %v", err)
		}
		if def.EntryPoint != "a" || len(def.Nodes) != 2 || len(def.Edges) != 1 {
			t.Errorf("def = %+v", def)
		}
		if def.Loops != nil {
			t.Error("omitted loops should stay nil")
		}
	})

	t.Run("yaml with loops", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`
nodes:
  draft: write
  review: score
edges:
  - source: draft
    target: review
entry_point: draft
loops:
  - source: review
    target: draft
    score_key: score
    max_visits: 4
`))
		if err != nil {
			t.Fatalf("ParseDefinition() error = %v", err)
		}
		if len(def.Loops) != 1 || def.Loops[0].ScoreKey != "score" || def.Loops[0].MaxVisits != 4 {
			t.Errorf("loops = %+v", def.Loops)
		}
	})

	t.Run("explicit empty loops", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`{"nodes": {"a": "t"}, "edges": [], "entry_point": "a", "loops": []}`))
		if err != nil {
			t.Fatalf("ParseDefinition() error = %v", err)
		}
		if def.Loops == nil {
			t.Error("explicit empty loops should be non-nil")
		}
	})

	t.Run("missing edges key", func(t *testing.T) {
		_, err := ParseDefinition([]byte(`{"nodes":{"a":"x"},"entry_point":"a"}`))
		if !errors.Is(err, ErrInvalidDefinition) {
			t.Fatalf("err = %v, want ErrInvalidDefinition", err)
		}
		if !strings.Contains(err.Error(), "missing required key: edges") {
			t.Errorf("err = %q, want missing edges message", err)
		}
	})

	t.Run("empty edges list", func(t *testing.T) {
		def, err := ParseDefinition([]byte("nodes:\n  a: x\nedges: []\nentry_point: a\n"))
		if err != nil {
			t.Fatalf("ParseDefinition() error = %v", err)
		}
		if def.Edges == nil || len(def.Edges) != 0 {
			t.Errorf("edges = %#v, want empty non-nil", def.Edges)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, in := range []string{`{"nodes": `, "nodes: [unclosed", `{"edges": []}`, `{"nodes":{"a":"x"},"entry_point":"a"}`, "nodes:\n  a: x\nentry_point: a\n"} {
			if _, err := ParseDefinition([]byte(in)); !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("ParseDefinition(%q) err = %v, want ErrInvalidDefinition", in, err)
			}
		}
	})
}

func TestDefinition_DefaultQualityLoop(t *testing.T) {
	nodes := map[string]string{"detect_issues": "d", "suggest_improvements": "s"}

	def := &Definition{Nodes: nodes, EntryPoint: "detect_issues"}
	if rules := def.loopRules(); len(rules) != 1 || rules[0].Source != "suggest_improvements" {
		t.Errorf("expected default quality loop, got %+v", rules)
	}

	def.Loops = []LoopRule{}
	if rules := def.loopRules(); len(rules) != 0 {
		t.Errorf("explicit empty loops should disable default, got %+v", rules)
	}

	onlySource := &Definition{Nodes: map[string]string{"suggest_improvements": "s"}, EntryPoint: "suggest_improvements"}
	if rules := onlySource.loopRules(); len(rules) != 1 || rules[0].Target != "detect_issues" {
		t.Errorf("suggest_improvements alone should still get the quality loop, got %+v", rules)
	}

	other := &Definition{Nodes: map[string]string{"a": "t"}, EntryPoint: "a"}
	if rules := other.loopRules(); len(rules) != 0 {
		t.Errorf("graph without loop nodes should get no loops, got %+v", rules)
	}
}

func TestLoadDefinitionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.yaml")
	content := "nodes:\n  a: t\nedges: []\nentry_point: a\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	id, def, err := LoadDefinitionFile(path)
	if err != nil {
		t.Fatalf("LoadDefinitionFile() error = %v", err)
	}
	if id != "triage" {
		t.Errorf("id = %q, want triage", id)
	}
	if def.EntryPoint != "a" {
		t.Errorf("EntryPoint = %q", def.EntryPoint)
	}

	if _, _, err := LoadDefinitionFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
