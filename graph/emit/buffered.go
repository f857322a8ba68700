package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory, keyed
// by run ID.
//
// It backs the `ask --events` CLI flag and tests that assert on the
// event sequence of an invocation. Events are kept until Clear is called,
// so it is not meant for a long-running server.
//
// Example usage:
//
//	events := emit.NewBufferedEmitter()
//	g, _ := builder.Compile(graph.WithEmitter(events))
//	_, _ = g.Invoke(graph.ContextWithRunID(ctx, "run-001"), state)
//	for _, e := range events.History("run-001") {
//	    fmt.Println(e.Msg)
//	}
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
	runs   []string           // run IDs in first-seen order
}

// HistoryFilter selects events; empty fields match everything and set
// fields are combined with AND.
type HistoryFilter struct {
	NodeID string
	Msg    string
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores event under its run ID.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.events[event.RunID]; !seen {
		b.runs = append(b.runs, event.RunID)
	}
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// Runs returns the run IDs seen so far, oldest first.
func (b *BufferedEmitter) Runs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.runs))
	copy(out, b.runs)
	return out
}

// History returns a copy of the events for runID in emission order.
func (b *BufferedEmitter) History(runID string) []Event {
	return b.Filter(runID, HistoryFilter{})
}

// Filter returns the events for runID that match filter.
func (b *BufferedEmitter) Filter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if filter.NodeID != "" && event.NodeID != filter.NodeID {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		result = append(result, event)
	}
	return result
}

// Clear removes the events of runID, or of every run if runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		b.runs = nil
		return
	}

	delete(b.events, runID)
	for i, id := range b.runs {
		if id == runID {
			b.runs = append(b.runs[:i], b.runs[i+1:]...)
			break
		}
	}
}
