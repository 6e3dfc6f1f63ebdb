package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v2"
)

// Definition is the declarative description of a workflow graph.
//
// Nodes maps node names to tool names. Edges are kept in declaration order,
// which decides the default branch at branch points. Loops declares
// conditional loop-back edges; leaving it nil on a definition that contains
// a suggest_improvements node installs QualityLoop, while an empty non-nil
// slice disables it.
type Definition struct {
	Nodes      map[string]string `json:"nodes" yaml:"nodes"`
	Edges      []EdgeDef         `json:"edges" yaml:"edges"`
	EntryPoint string            `json:"entry_point" yaml:"entry_point"`
	Loops      []LoopRule        `json:"loops,omitempty" yaml:"loops,omitempty"`
}

// EdgeDef is a plain source to target edge in a Definition.
type EdgeDef struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Validate checks that the definition carries its required keys (nodes,
// edges and entry_point; an empty edge list is fine, an absent one is not)
// and that every edge is well formed. It does not check that entry_point or edge
// endpoints name defined nodes; those surface as ErrUnknownNode during a run.
func (d *Definition) Validate() error {
	if d == nil {
		return invalidDefinition("definition is nil")
	}
	if d.Nodes == nil {
		return invalidDefinition("missing required key: nodes")
	}
	if d.Edges == nil {
		return invalidDefinition("missing required key: edges")
	}
	if d.EntryPoint == "" {
		return invalidDefinition("missing required key: entry_point")
	}
	for name := range d.Nodes {
		if name == "" {
			return invalidDefinition("node name must not be empty")
		}
	}
	for i, e := range d.Edges {
		if e.Source == "" || e.Target == "" {
			return invalidDefinition(fmt.Sprintf("edge %d: source and target are required", i))
		}
	}
	for i, l := range d.Loops {
		if l.Source == "" || l.Target == "" {
			return invalidDefinition(fmt.Sprintf("loop %d: source and target are required", i))
		}
		if l.MaxVisits < 0 {
			return invalidDefinition(fmt.Sprintf("loop %d: max_visits must not be negative", i))
		}
	}
	return nil
}

// loopRules returns the loops to install, applying the quality loop default.
func (d *Definition) loopRules() []LoopRule {
	if d.Loops != nil {
		return d.Loops
	}
	loop := QualityLoop()
	if _, ok := d.Nodes[loop.Source]; ok {
		return []LoopRule{loop}
	}
	return nil
}

// ParseDefinition decodes a definition from JSON or YAML and validates it.
// Input starting with '{' is treated as JSON.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &def); err != nil {
			return nil, &EngineError{Message: "decode JSON: " + err.Error(), Code: CodeInvalidDefinition, Err: ErrInvalidDefinition}
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &def); err != nil {
			return nil, &EngineError{Message: "decode YAML: " + err.Error(), Code: CodeInvalidDefinition, Err: ErrInvalidDefinition}
		}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitionFile reads and parses a definition file. The returned id is
// the file's base name without extension.
func LoadDefinitionFile(path string) (id string, def *Definition, err error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied definition path
	if err != nil {
		return "", nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	def, err = ParseDefinition(data)
	if err != nil {
		return "", nil, fmt.Errorf("parse definition %s: %w", path, err)
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), def, nil
}
