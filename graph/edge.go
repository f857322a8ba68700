// Package graph provides the compiled graph executor used by chatgraph.
package graph

// Reserved node names marking graph entry and exit. They are not real
// nodes and cannot be registered with AddNode.
const (
	Start = "__start__"
	End   = "__end__"
)

// Edge represents a directed connection between two nodes.
//
// From may be Start and To may be End. Edges are unconditional: the
// executor supports linear chains only, so every node has exactly one
// outgoing edge.
type Edge struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string
}

// isSentinel reports whether name is one of the reserved sentinels.
func isSentinel(name string) bool {
	return name == Start || name == End
}
