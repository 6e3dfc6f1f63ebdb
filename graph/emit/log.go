package emit

import (
	"github.com/rs/zerolog"
)

// LogEmitter writes events as structured log lines through a zerolog logger.
//
// Events for which Event.IsWarning holds are logged at warn level and
// everything else at info. Meta entries become log fields.
//
// Example output with a JSON logger:
//
//	{"level":"info","run_id":"9b1f...","graph_id":"graph_1","step":2,"node_id":"check_complexity","duration_ms":0,"message":"node_end"}
type LogEmitter struct {
	logger zerolog.Logger
}

// NewLogEmitter creates a LogEmitter that logs through logger.
func NewLogEmitter(logger zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(event Event) {
	var ev *zerolog.Event
	if event.IsWarning() {
		ev = l.logger.Warn()
	} else {
		ev = l.logger.Info()
	}

	ev = ev.Str("run_id", event.RunID)
	if event.GraphID != "" {
		ev = ev.Str("graph_id", event.GraphID)
	}
	if event.Step > 0 {
		ev = ev.Int("step", event.Step)
	}
	if event.NodeID != "" {
		ev = ev.Str("node_id", event.NodeID)
	}
	if len(event.Meta) > 0 {
		ev = ev.Fields(event.Meta)
	}
	ev.Msg(event.Msg)
}
