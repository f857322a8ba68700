package emit

// Event represents an observability event emitted during an invocation.
type Event struct {
	// RunID identifies the invocation that emitted this event.
	RunID string

	// Step is the 1-indexed position of the node in the graph path.
	// Zero for invocation-level events.
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for invocation-level events.
	NodeID string

	// Msg names the event (e.g. "node_start", "node_error").
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "graph": graph name
	//   - "status": invocation outcome
	//   - "latency_ms": time.Duration spent in the node or invocation
	//   - "error": error text
	Meta map[string]interface{}
}
