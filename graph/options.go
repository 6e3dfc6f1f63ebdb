package graph

import (
	"errors"
	"time"

	"github.com/dshills/graphflow/graph/emit"
	"github.com/dshills/graphflow/graph/store"
)

// Option configures a Workflow at construction time.
//
// Example:
//
//	wf, err := graph.New("graph_1", def, reg,
//	    graph.WithEmitter(emit.NewLogEmitter(logger)),
//	    graph.WithStore(st),
//	    graph.WithMaxSteps(100),
//	)
type Option func(*workflowConfig) error

type workflowConfig struct {
	emitter     emit.Emitter
	metrics     *PrometheusMetrics
	store       store.Store
	maxSteps    int
	nodeTimeout time.Duration
}

// WithEmitter sets the event sink. The default discards events.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *workflowConfig) error {
		if e == nil {
			return errors.New("emitter must not be nil")
		}
		cfg.emitter = e
		return nil
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *workflowConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithStore records the state after every node execution via SaveStep.
// Run records themselves are saved by the caller.
func WithStore(st store.Store) Option {
	return func(cfg *workflowConfig) error {
		cfg.store = st
		return nil
	}
}

// WithMaxSteps fails a run with ErrMaxStepsExceeded once n nodes have
// executed without termination. Zero, the default, means no limit, so a
// plain-edge cycle with no conditional exit runs until its context is done.
func WithMaxSteps(n int) Option {
	return func(cfg *workflowConfig) error {
		if n < 0 {
			return errors.New("max steps must not be negative")
		}
		cfg.maxSteps = n
		return nil
	}
}
