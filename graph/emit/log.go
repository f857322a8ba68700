package emit

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogEmitter implements Emitter by writing each event as a structured
// zerolog entry.
//
// Events named "node_error", or carrying an "error" meta key, are logged
// at error level; node-level events at debug; everything else at info.
//
// Example output (JSON logger):
//
//	{"level":"debug","run_id":"5b1c...","step":1,"node_id":"llm","latency_ms":412,"message":"node_end"}
type LogEmitter struct {
	logger zerolog.Logger
}

// NewLogEmitter creates a LogEmitter writing to logger.
func NewLogEmitter(logger zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Emit writes event to the logger.
func (l *LogEmitter) Emit(event Event) {
	entry := l.level(event)
	if entry == nil {
		return
	}

	entry = entry.Str("run_id", event.RunID)
	if event.Step > 0 {
		entry = entry.Int("step", event.Step)
	}
	if event.NodeID != "" {
		entry = entry.Str("node_id", event.NodeID)
	}

	for key, value := range event.Meta {
		switch v := value.(type) {
		case string:
			entry = entry.Str(key, v)
		case int:
			entry = entry.Int(key, v)
		case int64:
			entry = entry.Int64(key, v)
		case float64:
			entry = entry.Float64(key, v)
		case bool:
			entry = entry.Bool(key, v)
		case time.Duration:
			entry = entry.Int64(key, v.Milliseconds())
		default:
			entry = entry.Str(key, fmt.Sprintf("%v", v))
		}
	}

	entry.Msg(event.Msg)
}

func (l *LogEmitter) level(event Event) *zerolog.Event {
	if _, failed := event.Meta["error"]; failed || event.Msg == "node_error" {
		return l.logger.Error()
	}
	if event.NodeID != "" {
		return l.logger.Debug()
	}
	return l.logger.Info()
}
