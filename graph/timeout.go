package graph

import (
	"context"
	"errors"
	"time"
)

// WithNodeTimeout bounds each node execution. A tool that honors its
// context and overruns fails like any other tool: the run records
// "Node X failed: context deadline exceeded" and moves on. Zero disables
// the bound.
func WithNodeTimeout(d time.Duration) Option {
	return func(cfg *workflowConfig) error {
		if d < 0 {
			return errors.New("node timeout must not be negative")
		}
		cfg.nodeTimeout = d
		return nil
	}
}

func (w *Workflow) execute(ctx context.Context, node *Node, state State) (State, error) {
	if w.nodeTimeout <= 0 {
		return node.Execute(ctx, state)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, w.nodeTimeout)
	defer cancel()
	return node.Execute(timeoutCtx, state)
}
