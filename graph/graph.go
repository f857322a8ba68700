package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/chatgraph/graph/emit"
)

// Event messages emitted during Invoke.
const (
	EventInvokeStart = "invoke_start"
	EventInvokeEnd   = "invoke_end"
	EventNodeStart   = "node_start"
	EventNodeEnd     = "node_end"
	EventNodeError   = "node_error"
)

// Graph is a compiled, immutable chain of nodes running from Start to End.
//
// A Graph holds no per-invocation state: Invoke may be called
// concurrently from any number of goroutines. Each call works on its own
// state value and returns either the complete final state or an error,
// never a partially updated state.
//
// Type parameter S is the state type threaded through the nodes.
type Graph[S any] struct {
	name      string
	reducer   Reducer[S]
	validator Validator[S]
	nodes     map[string]Node[S]
	edges     []Edge
	path      []string
	emitter   emit.Emitter
	metrics   *PrometheusMetrics
}

// Name returns the label given with WithName.
func (g *Graph[S]) Name() string {
	return g.name
}

// Path returns the node names in traversal order, sentinels excluded.
func (g *Graph[S]) Path() []string {
	out := make([]string, len(g.path))
	copy(out, g.path)
	return out
}

// Edges returns the edges the graph was compiled from.
func (g *Graph[S]) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Invoke runs every node in edge order, merging each node's update into
// the accumulated state with the graph's reducer.
//
// Errors:
//   - ErrInvalidState (wrapped) if the validator rejects initial
//   - *NodeError if a node fails; the traversal stops at that node
//   - ctx.Err() if the context is done before a node starts
//
// On error the zero value of S is returned.
func (g *Graph[S]) Invoke(ctx context.Context, initial S) (S, error) {
	var zero S

	if g.validator != nil {
		if err := g.validator(initial); err != nil {
			if !errors.Is(err, ErrInvalidState) {
				err = fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			g.metrics.observeInvocation(g.name, StatusInvalid)
			return zero, err
		}
	}

	runID := RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}

	started := time.Now()
	g.metrics.invocationStarted(g.name)
	defer g.metrics.invocationDone(g.name)

	g.emit(runID, 0, "", EventInvokeStart, map[string]interface{}{"graph": g.name})

	state := initial
	for i, nodeID := range g.path {
		step := i + 1

		if err := ctx.Err(); err != nil {
			g.finish(runID, step, started, StatusCanceled, err)
			return zero, err
		}

		g.emit(runID, step, nodeID, EventNodeStart, nil)

		nodeStarted := time.Now()
		result := g.nodes[nodeID].Run(ctx, state)
		latency := time.Since(nodeStarted)

		if result.Err != nil {
			nodeErr := asNodeError(nodeID, result.Err)
			g.metrics.observeNode(g.name, nodeID, StatusError, latency)
			g.emit(runID, step, nodeID, EventNodeError, map[string]interface{}{
				"error":      nodeErr.Error(),
				"latency_ms": latency.Milliseconds(),
			})
			g.finish(runID, step, started, StatusError, nodeErr)
			return zero, nodeErr
		}

		state = g.reducer(state, result.Delta)

		g.metrics.observeNode(g.name, nodeID, StatusSuccess, latency)
		g.emit(runID, step, nodeID, EventNodeEnd, map[string]interface{}{
			"latency_ms": latency.Milliseconds(),
		})
	}

	g.finish(runID, len(g.path), started, StatusSuccess, nil)
	return state, nil
}

func (g *Graph[S]) finish(runID string, step int, started time.Time, status string, err error) {
	g.metrics.observeInvocation(g.name, status)
	meta := map[string]interface{}{
		"graph":      g.name,
		"status":     status,
		"latency_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	g.emit(runID, step, "", EventInvokeEnd, meta)
}

func (g *Graph[S]) emit(runID string, step int, nodeID, msg string, meta map[string]interface{}) {
	if g.emitter == nil {
		return
	}
	g.emitter.Emit(emit.Event{
		RunID:  runID,
		Step:   step,
		NodeID: nodeID,
		Msg:    msg,
		Meta:   meta,
	})
}

// asNodeError attributes err to nodeID, keeping an existing *NodeError
// produced by the node itself.
func asNodeError(nodeID string, err error) *NodeError {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		if nodeErr.NodeID == "" {
			cp := *nodeErr
			cp.NodeID = nodeID
			return &cp
		}
		return nodeErr
	}
	return &NodeError{
		Message: err.Error(),
		Code:    CodeNodeExecution,
		NodeID:  nodeID,
		Cause:   err,
	}
}

type runIDKey struct{}

// ContextWithRunID attaches a run identifier used in emitted events.
// The HTTP layer passes the request ID so logs and events correlate.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run identifier set by ContextWithRunID.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
