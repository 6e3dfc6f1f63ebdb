package emit

// Event is an observability record produced while a workflow runs.
type Event struct {
	// RunID identifies the run that emitted this event.
	RunID string

	// GraphID identifies the workflow the run belongs to.
	GraphID string

	// Step is the 1-indexed node execution count within the run.
	// Zero for run-level events.
	Step int

	// NodeID is the node the event concerns. Empty for run-level events.
	NodeID string

	// Msg is the event kind, one of the Msg* constants.
	Msg string

	// Meta carries event-specific data such as "duration_ms", "error",
	// "target" or "status".
	Meta map[string]any
}

// Event kinds emitted by the workflow engine.
const (
	MsgRunStart       = "run_start"
	MsgRunComplete    = "run_complete"
	MsgRunFailed      = "run_failed"
	MsgNodeStart      = "node_start"
	MsgNodeEnd        = "node_end"
	MsgNodeFailed     = "node_failed"
	MsgLoopBack       = "loop_back"
	MsgToolUnresolved = "tool_unresolved"
	MsgStoreError     = "store_error"
)

// IsWarning reports whether the event describes a failure or misconfiguration.
func (e Event) IsWarning() bool {
	switch e.Msg {
	case MsgNodeFailed, MsgRunFailed, MsgToolUnresolved, MsgStoreError:
		return true
	}
	return false
}
