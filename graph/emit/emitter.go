// Package emit provides observability events for graph invocations.
package emit

// Emitter receives observability events from graph invocations.
//
// Implementations must be:
//   - Non-blocking: Emit runs inline with the invocation
//   - Thread-safe: a compiled graph is shared by concurrent invocations
//   - Resilient: Emit never panics and never fails the invocation
type Emitter interface {
	// Emit records a single event.
	Emit(event Event)
}

// MultiEmitter fans each event out to several emitters in order.
type MultiEmitter []Emitter

// NewMultiEmitter drops nil entries and returns the remaining emitters
// as one Emitter.
func NewMultiEmitter(emitters ...Emitter) MultiEmitter {
	out := make(MultiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Emit forwards event to every emitter.
func (m MultiEmitter) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}
