// Package service owns the graph table and run lookup behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/graphflow/graph"
	"github.com/dshills/graphflow/graph/store"
)

// ErrGraphNotFound is returned for an unregistered graph id.
var ErrGraphNotFound = errors.New("graph_id not found")

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run_id not found")

// ErrGraphExists is returned by RegisterGraph when the id is taken.
var ErrGraphExists = errors.New("graph_id already registered")

// GraphInfo summarizes a registered graph.
type GraphInfo struct {
	GraphID    string `json:"graph_id"`
	EntryPoint string `json:"entry_point"`
	Nodes      int    `json:"nodes"`
}

// Service registers workflows and executes runs against them.
//
// Graphs live in memory for the life of the process. Run records go to the
// configured store: saved when a run starts and again when it ends.
type Service struct {
	mu     sync.RWMutex
	graphs map[string]*graph.Workflow
	order  []string

	tools  graph.ToolResolver
	store  store.Store
	logger zerolog.Logger
	opts   []graph.Option
	newID  func() string
}

// New creates a service that binds graphs to tools and records runs in st.
// opts are applied to every workflow the service builds; WithStore(st) is
// always added so step history is recorded.
func New(tools graph.ToolResolver, st store.Store, logger zerolog.Logger, opts ...graph.Option) *Service {
	return &Service{
		graphs: make(map[string]*graph.Workflow),
		tools:  tools,
		store:  st,
		logger: logger,
		opts:   append(slices.Clone(opts), graph.WithStore(st)),
		newID:  uuid.NewString,
	}
}

// RegisterGraph builds def and registers it under id.
func (s *Service) RegisterGraph(id string, def *graph.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[id]; ok {
		return fmt.Errorf("%w: %s", ErrGraphExists, id)
	}
	return s.registerLocked(id, def)
}

// CreateGraph builds def and registers it under the next free id of the
// form graph_N, where N starts at the number of registered graphs plus one.
func (s *Service) CreateGraph(def *graph.Definition) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.graphs) + 1
	id := fmt.Sprintf("graph_%d", n)
	for s.graphs[id] != nil {
		n++
		id = fmt.Sprintf("graph_%d", n)
	}
	if err := s.registerLocked(id, def); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) registerLocked(id string, def *graph.Definition) error {
	wf, err := graph.New(id, def, s.tools, s.opts...)
	if err != nil {
		return err
	}
	s.graphs[id] = wf
	s.order = append(s.order, id)
	s.logger.Info().Str("graph_id", id).Int("nodes", len(def.Nodes)).Msg("graph registered")
	return nil
}

// ListGraphs returns the registered graphs in registration order.
func (s *Service) ListGraphs() []GraphInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GraphInfo, 0, len(s.order))
	for _, id := range s.order {
		wf := s.graphs[id]
		out = append(out, GraphInfo{GraphID: id, EntryPoint: wf.EntryPoint(), Nodes: wf.NodeCount()})
	}
	return out
}

func (s *Service) workflow(id string) (*graph.Workflow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.graphs[id]
	return wf, ok
}

// Run executes graphID synchronously with a fresh run id.
//
// The returned RunState is non-nil whenever the graph exists, including when
// the traversal fails; its Status then is failed and the error is returned.
func (s *Service) Run(ctx context.Context, graphID string, initial map[string]any) (*graph.RunState, error) {
	wf, ok := s.workflow(graphID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, graphID)
	}

	rs := wf.NewRun(s.newID(), initial)
	s.save(ctx, rs)

	runErr := wf.Run(ctx, rs)
	// The final record is saved even when ctx is done.
	s.save(context.WithoutCancel(ctx), rs)

	ev := s.logger.Info()
	if runErr != nil {
		ev = s.logger.Warn().Err(runErr)
	}
	ev.Str("run_id", rs.RunID).
		Str("graph_id", graphID).
		Str("status", string(rs.Status)).
		Int("log_entries", len(rs.Log)).
		Msg("run finished")

	return rs, runErr
}

func (s *Service) save(ctx context.Context, rs *graph.RunState) {
	if err := s.store.SaveRun(ctx, rs.Record()); err != nil {
		s.logger.Error().Err(err).Str("run_id", rs.RunID).Msg("failed to save run")
	}
}

// GetRun returns the stored record of runID.
func (s *Service) GetRun(ctx context.Context, runID string) (*graph.RunState, error) {
	rec, err := s.store.LoadRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return graph.RunStateFromRecord(rec), nil
}

// GetSteps returns the per-node state history of runID.
func (s *Service) GetSteps(ctx context.Context, runID string) ([]store.StepRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	steps, err := s.store.LoadSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load steps %s: %w", runID, err)
	}
	return steps, nil
}
