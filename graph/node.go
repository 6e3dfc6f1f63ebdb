package graph

import (
	"context"
	"fmt"

	"github.com/dshills/graphflow/graph/tool"
)

// Node is a named step in a workflow bound to one tool.
//
// A node whose tool could not be resolved at construction time is a no-op:
// it contributes an empty delta and never fails.
type Node struct {
	// Name is the node's identifier within its workflow.
	Name string

	// ToolName is the registry name the node was bound to.
	ToolName string

	tool tool.Tool
}

// NewNode creates a node bound to t. A nil t produces a no-op node.
func NewNode(name, toolName string, t tool.Tool) *Node {
	return &Node{Name: name, ToolName: toolName, tool: t}
}

// Resolved reports whether the node has a tool to call.
func (n *Node) Resolved() bool {
	return n.tool != nil
}

// Execute calls the node's tool with the current state and returns its delta.
//
// Tool failures, including panics, do not abort the run. The returned delta
// then records the failure under "error" and the *NodeError is returned
// alongside it for observability. The passed state is never modified.
func (n *Node) Execute(ctx context.Context, state State) (delta State, err error) {
	if n.tool == nil {
		return State{}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			delta, err = n.failure(fmt.Errorf("panic: %v", r))
		}
	}()

	out, callErr := n.tool.Call(ctx, state.Clone())
	if callErr != nil {
		return n.failure(callErr)
	}
	if out == nil {
		return State{}, nil
	}
	return State(out), nil
}

func (n *Node) failure(cause error) (State, error) {
	nodeErr := &NodeError{
		Message: cause.Error(),
		Code:    CodeToolFailed,
		NodeID:  n.Name,
		Cause:   cause,
	}
	return State{"error": fmt.Sprintf("Node %s failed: %s", n.Name, cause.Error())}, nodeErr
}

// NodeError describes a tool failure inside a node.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error.
	Cause error
}

func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
