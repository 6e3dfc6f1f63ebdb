// Package graph provides the workflow graph executor for graphflow.
package graph

import "errors"

// ErrUnknownNode indicates that traversal reached a node name that is not part
// of the workflow's node mapping. This covers a missing entry point as well as
// edges whose target was never defined.
var ErrUnknownNode = errors.New("unknown node")

// ErrInvalidDefinition indicates that a workflow definition is missing
// required keys or carries malformed edges.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// ErrMaxStepsExceeded indicates that a run reached the configured step limit
// without terminating. Only returned when WithMaxSteps is set.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// Error codes carried by EngineError.
const (
	CodeUnknownNode       = "UNKNOWN_NODE"
	CodeInvalidDefinition = "INVALID_DEFINITION"
	CodeMaxSteps          = "MAX_STEPS_EXCEEDED"
	CodeCanceled          = "RUN_CANCELED"
	CodeToolFailed        = "TOOL_FAILED"
)

// EngineError represents a structured failure from workflow construction or
// traversal. Err links the error to one of the package sentinels so callers
// can use errors.Is.
type EngineError struct {
	Message string
	Code    string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the sentinel or cause behind this error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the EngineError code from err, or "" if err carries none.
func ErrorCode(err error) string {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Code
	}
	return ""
}

func unknownNode(name string) error {
	return &EngineError{
		Message: "node not found during execution: " + name,
		Code:    CodeUnknownNode,
		Err:     ErrUnknownNode,
	}
}

func invalidDefinition(msg string) error {
	return &EngineError{
		Message: msg,
		Code:    CodeInvalidDefinition,
		Err:     ErrInvalidDefinition,
	}
}
