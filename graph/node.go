package graph

import "context"

// Node represents a processing unit in the graph.
// It receives the accumulated state of type S and returns a NodeResult
// carrying the partial update to merge.
//
// Nodes must not keep mutable state between calls: a compiled Graph is
// shared by every concurrent invocation.
//
// Type parameter S is the state type shared across the graph.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	// The context is the caller's; long-running work (network calls)
	// must observe its cancellation.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult represents the output of a node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node.
	// It is merged into the accumulated state by the graph's reducer.
	Delta S

	// Err contains any error that occurred during node execution.
	// A non-nil Err aborts the invocation.
	Err error
}

// NodeFunc is a function adapter that implements the Node interface.
//
// Example:
//
//	upper := NodeFunc[MyState](func(ctx context.Context, s MyState) NodeResult[MyState] {
//	    return NodeResult[MyState]{Delta: MyState{Text: strings.ToUpper(s.Text)}}
//	})
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodeError is returned by Invoke when a node fails.
// It records which node failed and wraps the underlying cause.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error that caused this NodeError.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}

// Failed wraps err into a NodeResult. Nodes use it to report failures
// without building the result by hand.
func Failed[S any](err error) NodeResult[S] {
	return NodeResult[S]{Err: err}
}
