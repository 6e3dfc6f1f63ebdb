// Package tool defines the Tool capability bound to workflow nodes and the
// registry that resolves tools by name.
package tool

import "context"

// Tool is the unit of work a workflow node executes.
//
// A tool receives the full current run state and returns a partial update
// (delta) that the engine merges back into the state. Returning a nil map is
// the same as returning an empty one.
//
// Implementations should:
//   - Treat the input map as read-only; the engine owns merging
//   - Respect context cancellation for long-running calls
//   - Report failures through the returned error
//
// Example implementation:
//
//	type WordCount struct{}
//
//	func (WordCount) Call(ctx context.Context, state map[string]any) (map[string]any, error) {
//	    text, ok := state["text"].(string)
//	    if !ok {
//	        return nil, errors.New("text is required")
//	    }
//	    return map[string]any{"words": len(strings.Fields(text))}, nil
//	}
type Tool interface {
	// Call executes the tool against the current state and returns the delta.
	// Call blocks until the work is finished; the engine never overlaps two
	// calls belonging to the same run.
	Call(ctx context.Context, state map[string]any) (map[string]any, error)
}

// Func adapts an ordinary function to the Tool interface.
//
// Example:
//
//	reg.Register("double", tool.Func(func(ctx context.Context, s map[string]any) (map[string]any, error) {
//	    n, _ := s["n"].(int)
//	    return map[string]any{"n": n * 2}, nil
//	}))
type Func func(ctx context.Context, state map[string]any) (map[string]any, error)

// Call implements Tool.
func (f Func) Call(ctx context.Context, state map[string]any) (map[string]any, error) {
	return f(ctx, state)
}

// Simple adapts a context-free, infallible function to the Tool interface.
// Useful for pure state transforms such as the code review tools.
func Simple(fn func(state map[string]any) map[string]any) Tool {
	return Func(func(_ context.Context, state map[string]any) (map[string]any, error) {
		return fn(state), nil
	})
}
