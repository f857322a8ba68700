package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// logState records which nodes ran, in order.
type logState struct {
	Log []string
}

func appendLog(prev, delta logState) logState {
	merged := make([]string, 0, len(prev.Log)+len(delta.Log))
	merged = append(merged, prev.Log...)
	return logState{Log: append(merged, delta.Log...)}
}

func logNode(name string) Node[logState] {
	return NodeFunc[logState](func(ctx context.Context, s logState) NodeResult[logState] {
		return NodeResult[logState]{Delta: logState{Log: []string{name}}}
	})
}

// TestBuilder_CompileErrors verifies malformed topologies are rejected at compile time.
func TestBuilder_CompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Builder[logState]
		wantCode string
	}{
		{
			name:     "nil reducer",
			build:    func() *Builder[logState] { return NewBuilder[logState](nil).AddNode("a", logNode("a")) },
			wantCode: CodeNoReducer,
		},
		{
			name:     "no nodes",
			build:    func() *Builder[logState] { return NewBuilder(appendLog) },
			wantCode: CodeEmptyGraph,
		},
		{
			name:     "empty node name",
			build:    func() *Builder[logState] { return NewBuilder(appendLog).AddNode("", logNode("x")) },
			wantCode: CodeInvalidNode,
		},
		{
			name:     "sentinel node name",
			build:    func() *Builder[logState] { return NewBuilder(appendLog).AddNode(Start, logNode("x")) },
			wantCode: CodeInvalidNode,
		},
		{
			name:     "nil node",
			build:    func() *Builder[logState] { return NewBuilder(appendLog).AddNode("a", nil) },
			wantCode: CodeInvalidNode,
		},
		{
			name: "duplicate node",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("a", logNode("a"))
			},
			wantCode: CodeDuplicateNode,
		},
		{
			name: "empty edge endpoint",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddEdge("", "a")
			},
			wantCode: CodeInvalidEdge,
		},
		{
			name: "edge to unknown node",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).
					AddEdge(Start, "a").AddEdge("a", "ghost")
			},
			wantCode: CodeUnknownNode,
		},
		{
			name: "edge into start",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).
					AddEdge(Start, "a").AddEdge("a", Start)
			},
			wantCode: CodeInvalidEdge,
		},
		{
			name: "edge out of end",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).
					AddEdge(Start, "a").AddEdge("a", End).AddEdge(End, "a")
			},
			wantCode: CodeInvalidEdge,
		},
		{
			name: "start straight to end",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddEdge(Start, End)
			},
			wantCode: CodeInvalidEdge,
		},
		{
			name: "missing start edge",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddEdge("a", End)
			},
			wantCode: CodeNoStart,
		},
		{
			name: "branching",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("b", logNode("b")).
					AddEdge(Start, "a").AddEdge("a", "b").AddEdge("a", End).AddEdge("b", End)
			},
			wantCode: CodeBranching,
		},
		{
			name: "two start edges",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("b", logNode("b")).
					AddEdge(Start, "a").AddEdge(Start, "b").AddEdge("a", End).AddEdge("b", End)
			},
			wantCode: CodeBranching,
		},
		{
			name: "cycle",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("b", logNode("b")).
					AddEdge(Start, "a").AddEdge("a", "b").AddEdge("b", "a")
			},
			wantCode: CodeCycle,
		},
		{
			name: "dead end",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("b", logNode("b")).
					AddEdge(Start, "a").AddEdge("a", "b")
			},
			wantCode: CodeNoEnd,
		},
		{
			name: "unreachable node",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("orphan", logNode("o")).
					AddEdge(Start, "a").AddEdge("a", End)
			},
			wantCode: CodeUnreachable,
		},
		{
			name: "unreachable node with its own edge to end",
			build: func() *Builder[logState] {
				return NewBuilder(appendLog).AddNode("a", logNode("a")).AddNode("orphan", logNode("o")).
					AddEdge(Start, "a").AddEdge("a", End).AddEdge("orphan", End)
			},
			wantCode: CodeUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build().Compile()
			if err == nil {
				t.Fatalf("expected compile error, got graph with path %v", g.Path())
			}
			if g != nil {
				t.Error("expected nil graph on error")
			}
			if !errors.Is(err, ErrMalformedGraph) {
				t.Errorf("expected error to match ErrMalformedGraph, got %v", err)
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CompileError, got %T", err)
			}
			if ce.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q (%v)", ce.Code, tt.wantCode, err)
			}
		})
	}
}

// TestBuilder_LinearPath verifies chains of any length compile into traversal order.
func TestBuilder_LinearPath(t *testing.T) {
	t.Run("single node", func(t *testing.T) {
		g, err := NewBuilder(appendLog).
			AddNode("only", logNode("only")).
			AddEdge(Start, "only").
			AddEdge("only", End).
			Compile()
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if !reflect.DeepEqual(g.Path(), []string{"only"}) {
			t.Errorf("Path = %v", g.Path())
		}
	})

	t.Run("edges declared out of order", func(t *testing.T) {
		g, err := NewBuilder(appendLog).
			AddNode("c", logNode("c")).
			AddNode("a", logNode("a")).
			AddNode("b", logNode("b")).
			AddEdge("b", "c").
			AddEdge("c", End).
			AddEdge(Start, "a").
			AddEdge("a", "b").
			Compile()
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if !reflect.DeepEqual(g.Path(), []string{"a", "b", "c"}) {
			t.Errorf("Path = %v, want [a b c]", g.Path())
		}
		if len(g.Edges()) != 4 {
			t.Errorf("Edges = %v", g.Edges())
		}
	})

	t.Run("path and edges are copies", func(t *testing.T) {
		g, err := NewBuilder(appendLog).AddNode("a", logNode("a")).
			AddEdge(Start, "a").AddEdge("a", End).Compile()
		if err != nil {
			t.Fatal(err)
		}
		g.Path()[0] = "mutated"
		g.Edges()[0].To = "mutated"
		if g.Path()[0] != "a" || g.Edges()[0].To != "a" {
			t.Error("graph internals were mutated through accessors")
		}
	})

	t.Run("builder changes after compile do not leak", func(t *testing.T) {
		b := NewBuilder(appendLog).AddNode("a", logNode("a")).AddEdge(Start, "a").AddEdge("a", End)
		g, err := b.Compile()
		if err != nil {
			t.Fatal(err)
		}
		b.AddNode("late", logNode("late"))

		out, err := g.Invoke(context.Background(), logState{Log: []string{"seed"}})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(out.Log, []string{"seed", "a"}) {
			t.Errorf("Log = %v", out.Log)
		}
	})
}

func TestCompile_Options(t *testing.T) {
	b := NewBuilder(appendLog).AddNode("a", logNode("a")).AddEdge(Start, "a").AddEdge("a", End)

	g, err := b.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "graph" {
		t.Errorf("default name = %q", g.Name())
	}

	g, err = b.Compile(WithName("live"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "live" {
		t.Errorf("name = %q", g.Name())
	}

	if _, err := b.Compile(WithName("")); !errors.Is(err, ErrMalformedGraph) {
		t.Errorf("expected empty name rejected, got %v", err)
	}
}
