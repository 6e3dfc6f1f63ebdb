package graph

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/dshills/graphflow/graph/emit"
	"github.com/dshills/graphflow/graph/store"
	"github.com/dshills/graphflow/graph/tool"
)

// ToolResolver looks tools up by name. *tool.Registry implements it.
type ToolResolver interface {
	Get(name string) (tool.Tool, bool)
}

// Workflow is an immutable, executable workflow graph.
//
// A Workflow holds no per-run data, so any number of runs may execute
// against it concurrently, each with its own RunState.
//
// Example:
//
//	reg := tool.NewRegistry()
//	codereview.Register(reg)
//
//	wf, err := graph.New("code_review_example", codereview.Definition(), reg)
//	if err != nil {
//	    return err
//	}
//	rs := wf.NewRun(uuid.NewString(), map[string]any{"code": src})
//	if err := wf.Run(ctx, rs); err != nil {
//	    return err
//	}
//	fmt.Println(rs.Status, rs.State["quality_score"])
type Workflow struct {
	graphID    string
	entryPoint string

	nodes       map[string]*Node
	edges       map[string][]string
	conditional map[string][]Edge

	emitter     emit.Emitter
	metrics     *PrometheusMetrics
	store       store.Store
	maxSteps    int
	nodeTimeout time.Duration
}

// New builds a workflow from def, binding each node to the tool its
// definition names. A node whose tool cannot be resolved becomes a no-op.
// Invalid definitions fail with ErrInvalidDefinition.
func New(graphID string, def *Definition, tools ToolResolver, opts ...Option) (*Workflow, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	cfg := workflowConfig{emitter: emit.NewNullEmitter()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, &EngineError{Message: "invalid option: " + err.Error(), Code: CodeInvalidDefinition, Err: ErrInvalidDefinition}
		}
	}

	w := &Workflow{
		graphID:     graphID,
		entryPoint:  def.EntryPoint,
		nodes:       make(map[string]*Node, len(def.Nodes)),
		edges:       make(map[string][]string),
		conditional: make(map[string][]Edge),
		emitter:     cfg.emitter,
		metrics:     cfg.metrics,
		store:       cfg.store,
		maxSteps:    cfg.maxSteps,
		nodeTimeout: cfg.nodeTimeout,
	}

	names := make([]string, 0, len(def.Nodes))
	for name := range def.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		toolName := def.Nodes[name]
		var t tool.Tool
		if tools != nil {
			t, _ = tools.Get(toolName)
		}
		w.nodes[name] = NewNode(name, toolName, t)
		if t == nil {
			w.emitter.Emit(emit.Event{
				GraphID: graphID,
				NodeID:  name,
				Msg:     emit.MsgToolUnresolved,
				Meta:    map[string]any{"tool": toolName},
			})
		}
	}

	for _, e := range def.Edges {
		w.edges[e.Source] = append(w.edges[e.Source], e.Target)
	}
	for _, rule := range def.loopRules() {
		edge := rule.Edge()
		w.conditional[edge.From] = append(w.conditional[edge.From], edge)
	}

	return w, nil
}

// GraphID returns the id the workflow was registered under.
func (w *Workflow) GraphID() string { return w.graphID }

// EntryPoint returns the node a run starts at.
func (w *Workflow) EntryPoint() string { return w.entryPoint }

// NodeCount returns the number of nodes in the workflow.
func (w *Workflow) NodeCount() int { return len(w.nodes) }

// Node returns the node named name.
func (w *Workflow) Node(name string) (*Node, bool) {
	n, ok := w.nodes[name]
	return n, ok
}

// Successors returns the plain-edge targets of name in declaration order.
func (w *Workflow) Successors(name string) []string {
	return slices.Clone(w.edges[name])
}

// NewRun creates a RunState positioned at the workflow's entry point.
func (w *Workflow) NewRun(runID string, initial map[string]any) *RunState {
	return NewRunState(runID, w.graphID, w.entryPoint, initial)
}

// Run traverses the workflow from rs.CurrentNode until a node with no
// outgoing edge has executed, mutating rs in place. A completed run ends
// with an empty CurrentNode.
//
// Each step logs "Running node: X", executes the node and merges its delta
// into rs.State. Conditional edges of the node just executed are checked
// first; otherwise the single plain edge is followed, or at a branch point
// the target named by state["branch"], falling back to the first target.
//
// Tool failures never stop the run. Reaching an unknown node, exceeding the
// step limit or a done ctx mark the run failed and return the error.
func (w *Workflow) Run(ctx context.Context, rs *RunState) error {
	if rs == nil {
		return errors.New("run state is nil")
	}
	if rs.State == nil {
		rs.State = State{}
	}

	w.metrics.RunStarted()
	w.emit(rs, 0, "", emit.MsgRunStart, map[string]any{"entry_point": rs.CurrentNode})

	current := rs.CurrentNode
	last := ""
	visits := make(map[string]int)
	step := 0

	for current != "" {
		if err := ctx.Err(); err != nil {
			return w.fail(rs, current, &EngineError{Message: "run canceled: " + err.Error(), Code: CodeCanceled, Err: err})
		}
		if w.maxSteps > 0 && step >= w.maxSteps {
			return w.fail(rs, current, &EngineError{Message: ErrMaxStepsExceeded.Error(), Code: CodeMaxSteps, Err: ErrMaxStepsExceeded})
		}

		node, ok := w.nodes[current]
		if !ok {
			return w.fail(rs, current, unknownNode(current))
		}
		visits[current]++
		step++

		rs.Log = append(rs.Log, "Running node: "+current)
		w.emit(rs, step, current, emit.MsgNodeStart, map[string]any{"tool": node.ToolName})

		start := time.Now()
		delta, err := w.execute(ctx, node, rs.State)
		latency := time.Since(start)
		rs.State.Merge(delta)

		w.metrics.RecordNodeLatency(w.graphID, current, latency)
		if err != nil {
			w.metrics.IncrementNodeFailures(w.graphID, current)
			w.emit(rs, step, current, emit.MsgNodeFailed, map[string]any{
				"error":       delta.String("error", err.Error()),
				"duration_ms": latency.Milliseconds(),
			})
		} else {
			w.emit(rs, step, current, emit.MsgNodeEnd, map[string]any{
				"duration_ms": latency.Milliseconds(),
				"delta_keys":  len(delta),
			})
		}
		w.saveStep(ctx, rs, step, current)

		if edge, ok := w.conditionalEdge(current, rs.State, visits[current]); ok {
			if edge.Note != nil {
				rs.Log = append(rs.Log, edge.Note(rs.State))
			}
			w.metrics.IncrementLoopbacks(w.graphID, edge.From, edge.To)
			w.emit(rs, step, current, emit.MsgLoopBack, map[string]any{
				"target": edge.To,
				"visits": visits[current],
			})
			current = edge.To
			continue
		}

		last = current
		current = w.next(current, rs.State)
	}

	rs.CurrentNode = current
	rs.Status = StatusCompleted
	rs.FinishedAt = time.Now().UTC()
	w.metrics.RunFinished(w.graphID, rs.Status)
	w.emit(rs, 0, "", emit.MsgRunComplete, map[string]any{"steps": step, "last_node": last})
	return nil
}

// conditionalEdge returns the first conditional edge out of from that fires.
func (w *Workflow) conditionalEdge(from string, state State, visits int) (Edge, bool) {
	for _, e := range w.conditional[from] {
		if e.fires(state, visits) {
			return e, true
		}
	}
	return Edge{}, false
}

// next picks the plain-edge successor of from, or "" when from has no
// outgoing edge.
func (w *Workflow) next(from string, state State) string {
	targets := w.edges[from]
	switch len(targets) {
	case 0:
		return ""
	case 1:
		return targets[0]
	}
	if branch, ok := state["branch"].(string); ok && slices.Contains(targets, branch) {
		return branch
	}
	return targets[0]
}

func (w *Workflow) fail(rs *RunState, current string, err error) error {
	rs.CurrentNode = current
	rs.Status = StatusFailed
	rs.Error = err.Error()
	rs.FinishedAt = time.Now().UTC()
	w.metrics.RunFinished(w.graphID, rs.Status)
	w.emit(rs, 0, current, emit.MsgRunFailed, map[string]any{
		"error": err.Error(),
		"code":  ErrorCode(err),
	})
	return err
}

func (w *Workflow) saveStep(ctx context.Context, rs *RunState, step int, nodeID string) {
	if w.store == nil {
		return
	}
	if err := w.store.SaveStep(ctx, rs.RunID, step, nodeID, rs.State); err != nil {
		w.emit(rs, step, nodeID, emit.MsgStoreError, map[string]any{"error": err.Error()})
	}
}

func (w *Workflow) emit(rs *RunState, step int, nodeID, msg string, meta map[string]any) {
	w.emitter.Emit(emit.Event{
		RunID:   rs.RunID,
		GraphID: w.graphID,
		Step:    step,
		NodeID:  nodeID,
		Msg:     msg,
		Meta:    meta,
	})
}
