// Package emit delivers workflow execution events to logging and tracing
// backends.
package emit

// Emitter receives events from workflow execution.
//
// Implementations must be safe for concurrent use, because runs of the same
// workflow may execute in parallel, and must not panic or block for long.
type Emitter interface {
	Emit(event Event)
}

// MultiEmitter fans every event out to each of its emitters in order.
type MultiEmitter []Emitter

// NewMultiEmitter combines emitters, skipping nil entries.
func NewMultiEmitter(emitters ...Emitter) MultiEmitter {
	out := make(MultiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Emit implements Emitter.
func (m MultiEmitter) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}
