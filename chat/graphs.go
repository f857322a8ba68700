package chat

import (
	"context"
	"errors"

	"github.com/dshills/chatgraph/graph"
	"github.com/dshills/chatgraph/graph/model"
)

// Graph is a compiled conversation graph.
type Graph = graph.Graph[State]

// NewLiveGraph compiles START -> llm -> END around m.
func NewLiveGraph(m model.ChatModel, opts ...graph.Option) (*Graph, error) {
	if m == nil {
		return nil, errors.New("chat: live graph needs a chat model")
	}
	return singleNode(LiveNodeName, ModelNode{Model: m}, opts...)
}

// NewMockGraph compiles START -> mock -> END.
func NewMockGraph(opts ...graph.Option) (*Graph, error) {
	return singleNode(MockNodeName, MockNode{}, opts...)
}

func singleNode(name string, node graph.Node[State], opts ...graph.Option) (*Graph, error) {
	return graph.NewBuilder[State](AppendMessages).
		Validate(ValidateState).
		AddNode(name, node).
		AddEdge(graph.Start, name).
		AddEdge(name, graph.End).
		Compile(opts...)
}

// Respond runs a single user message through g and returns the content
// of the final message.
func Respond(ctx context.Context, g *Graph, text string) (string, error) {
	final, err := g.Invoke(ctx, NewState(model.UserMessage(text)))
	if err != nil {
		return "", err
	}
	return final.Reply(), nil
}
