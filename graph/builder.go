package graph

import (
	"sort"
	"strings"
)

// Reducer merges a node's partial update into the accumulated state.
//
// Reducers must not mutate prev: the initial state belongs to the caller
// and must come back unchanged as the prefix of the result.
type Reducer[S any] func(prev, delta S) S

// Validator checks the initial state handed to Invoke. Returned errors
// are reported as ErrInvalidState.
type Validator[S any] func(state S) error

// Builder accumulates nodes and edges and compiles them into an
// immutable Graph.
//
// Builder methods are chainable; the first registration error is kept
// and reported by Compile. A Builder is not safe for concurrent use, and
// the Graph it produces does not share any mutable data with it.
type Builder[S any] struct {
	reducer   Reducer[S]
	validator Validator[S]
	nodes     map[string]Node[S]
	order     []string
	edges     []Edge
	err       error
}

// NewBuilder creates a Builder that merges node updates with reducer.
func NewBuilder[S any](reducer Reducer[S]) *Builder[S] {
	return &Builder[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
	}
}

// Validate sets the invariant check run against every initial state.
func (b *Builder[S]) Validate(v Validator[S]) *Builder[S] {
	b.validator = v
	return b
}

// AddNode registers a node under a unique name.
//
// The name must be non-empty, must not be a sentinel and must not be
// registered already.
func (b *Builder[S]) AddNode(name string, node Node[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	switch {
	case name == "":
		b.err = &CompileError{Message: "node ID cannot be empty", Code: CodeInvalidNode}
	case isSentinel(name):
		b.err = &CompileError{Message: "node ID is reserved: " + name, Code: CodeInvalidNode}
	case node == nil:
		b.err = &CompileError{Message: "node cannot be nil: " + name, Code: CodeInvalidNode}
	default:
		if _, exists := b.nodes[name]; exists {
			b.err = &CompileError{Message: "duplicate node ID: " + name, Code: CodeDuplicateNode}
			return b
		}
		b.nodes[name] = node
		b.order = append(b.order, name)
	}
	return b
}

// AddEdge connects from to to. Either end may be a sentinel; node
// existence is checked at Compile so edges can be declared in any order.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	if b.err != nil {
		return b
	}
	if from == "" || to == "" {
		b.err = &CompileError{Message: "edge endpoints cannot be empty", Code: CodeInvalidEdge}
		return b
	}
	b.edges = append(b.edges, Edge{From: from, To: to})
	return b
}

// Compile validates the topology and returns an immutable Graph.
//
// The edges must form exactly one acyclic chain Start -> n1 -> ... -> End
// that visits every registered node. Compiling the same definition twice
// yields graphs with identical behaviour.
func (b *Builder[S]) Compile(opts ...Option) (*Graph[S], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.reducer == nil {
		return nil, &CompileError{Message: "reducer is required", Code: CodeNoReducer}
	}
	if len(b.nodes) == 0 {
		return nil, &CompileError{Message: "graph has no nodes", Code: CodeEmptyGraph}
	}

	cfg := graphConfig{name: "graph"}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	path, err := b.linearPath()
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]Node[S], len(b.nodes))
	for name, node := range b.nodes {
		nodes[name] = node
	}
	edges := make([]Edge, len(b.edges))
	copy(edges, b.edges)

	return &Graph[S]{
		name:      cfg.name,
		reducer:   b.reducer,
		validator: b.validator,
		nodes:     nodes,
		edges:     edges,
		path:      path,
		emitter:   cfg.emitter,
		metrics:   cfg.metrics,
	}, nil
}

// linearPath checks the edge set and returns node names in traversal order.
func (b *Builder[S]) linearPath() ([]string, error) {
	next := make(map[string]string, len(b.edges))
	for _, e := range b.edges {
		if err := b.checkEdge(e); err != nil {
			return nil, err
		}
		if prev, exists := next[e.From]; exists {
			return nil, &CompileError{
				Message: "node " + e.From + " has more than one outgoing edge (" + prev + ", " + e.To + ")",
				Code:    CodeBranching,
			}
		}
		next[e.From] = e.To
	}

	cur, ok := next[Start]
	if !ok {
		return nil, &CompileError{Message: "no edge from " + Start, Code: CodeNoStart}
	}

	visited := make(map[string]bool, len(b.nodes))
	path := make([]string, 0, len(b.nodes))
	for cur != End {
		if visited[cur] {
			return nil, &CompileError{Message: "cycle detected at node " + cur, Code: CodeCycle}
		}
		visited[cur] = true
		path = append(path, cur)

		to, ok := next[cur]
		if !ok {
			return nil, &CompileError{Message: "node " + cur + " has no path to " + End, Code: CodeNoEnd}
		}
		cur = to
	}

	if len(visited) != len(b.nodes) {
		var orphans []string
		for _, name := range b.order {
			if !visited[name] {
				orphans = append(orphans, name)
			}
		}
		sort.Strings(orphans)
		return nil, &CompileError{
			Message: "nodes not reachable from " + Start + ": " + strings.Join(orphans, ", "),
			Code:    CodeUnreachable,
		}
	}

	return path, nil
}

func (b *Builder[S]) checkEdge(e Edge) error {
	if e.From == End {
		return &CompileError{Message: "edge cannot leave " + End, Code: CodeInvalidEdge}
	}
	if e.To == Start {
		return &CompileError{Message: "edge cannot enter " + Start, Code: CodeInvalidEdge}
	}
	if e.From == Start && e.To == End {
		return &CompileError{Message: "edge " + Start + " -> " + End + " skips every node", Code: CodeInvalidEdge}
	}
	for _, name := range []string{e.From, e.To} {
		if isSentinel(name) {
			continue
		}
		if _, ok := b.nodes[name]; !ok {
			return &CompileError{Message: "edge references unknown node: " + name, Code: CodeUnknownNode}
		}
	}
	return nil
}
