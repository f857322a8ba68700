package graph

import (
	"github.com/dshills/chatgraph/graph/emit"
)

// Option is a functional option applied when compiling a graph.
//
// Example:
//
//	g, err := graph.NewBuilder(reducer).
//	    AddNode("llm", node).
//	    AddEdge(graph.Start, "llm").
//	    AddEdge("llm", graph.End).
//	    Compile(
//	        graph.WithName("live"),
//	        graph.WithEmitter(emit.NewLogEmitter(logger)),
//	        graph.WithMetrics(metrics),
//	    )
type Option func(*graphConfig) error

// graphConfig collects options before they are copied into a Graph.
type graphConfig struct {
	name    string
	emitter emit.Emitter
	metrics *PrometheusMetrics
}

// WithName labels the graph in events and metrics. Default: "graph".
func WithName(name string) Option {
	return func(cfg *graphConfig) error {
		if name == "" {
			return &CompileError{Message: "graph name cannot be empty", Code: CodeInvalidOptions}
		}
		cfg.name = name
		return nil
	}
}

// WithEmitter sets the observability event receiver. A nil emitter
// disables event emission.
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *graphConfig) error {
		cfg.emitter = emitter
		return nil
	}
}

// WithMetrics records invocation and node metrics into m.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *graphConfig) error {
		cfg.metrics = m
		return nil
	}
}
