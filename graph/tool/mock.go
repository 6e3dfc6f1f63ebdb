package tool

import (
	"context"
	"maps"
	"sync"
)

// MockTool is a scripted Tool for tests.
//
// It returns Responses in order (repeating the last one once exhausted),
// records every input state, and can inject an error or a panic.
//
// Example:
//
//	mock := &tool.MockTool{
//	    Responses: []map[string]any{{"score": 3}, {"score": 8}},
//	}
//	reg.Register("score", mock)
//
// Example with error injection:
//
//	mock := &tool.MockTool{Err: errors.New("upstream timeout")}
type MockTool struct {
	// Responses is the sequence of deltas to return.
	Responses []map[string]any

	// Err, if set, is returned instead of a response.
	Err error

	// Panic, if non-nil, is raised instead of returning.
	Panic any

	// Calls holds a copy of the state passed to each invocation.
	Calls []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records a single invocation of Call.
type MockToolCall struct {
	State map[string]any
}

// Call implements Tool. The call is recorded before any configured failure.
func (m *MockTool) Call(ctx context.Context, state map[string]any) (map[string]any, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, MockToolCall{State: maps.Clone(state)})
	if m.Panic != nil {
		p := m.Panic
		m.mu.Unlock()
		panic(p)
	}
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return maps.Clone(m.Responses[idx]), nil
}

// Reset clears call history and rewinds the response sequence.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns how many times Call has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
