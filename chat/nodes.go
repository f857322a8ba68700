package chat

import (
	"context"

	"github.com/dshills/chatgraph/graph"
	"github.com/dshills/chatgraph/graph/model"
)

// Node names used by the two graphs.
const (
	LiveNodeName = "llm"
	MockNodeName = "mock"
)

// MockPrefix is prepended to the echoed content by MockNode.
const MockPrefix = "mock: "

// CodeModelError tags NodeErrors raised by ModelNode.
const CodeModelError = "MODEL_ERROR"

// ModelNode sends the whole conversation to a ChatModel and appends the
// reply as an assistant message.
//
// The node performs no retry: retry and timeout policy belongs to the
// ChatModel implementation.
type ModelNode struct {
	Model model.ChatModel
}

// Run implements graph.Node.
func (n ModelNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	out, err := n.Model.Chat(ctx, s.Messages)
	if err != nil {
		return graph.Failed[State](&graph.NodeError{
			Message: "model call failed: " + err.Error(),
			Code:    CodeModelError,
			Cause:   err,
		})
	}
	return graph.NodeResult[State]{Delta: Update(out.Message())}
}

// MockNode answers without a backend: the reply is MockPrefix followed
// by the content of the last message. A conversation with no messages
// is answered as if the content were empty.
type MockNode struct{}

// Run implements graph.Node.
func (MockNode) Run(_ context.Context, s State) graph.NodeResult[State] {
	return graph.NodeResult[State]{
		Delta: Update(model.AssistantMessage(MockPrefix + s.Reply())),
	}
}
