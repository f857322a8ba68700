// Package chat builds the conversation graphs served by chatgraph: a live
// graph whose node calls a language model and a mock graph whose node
// echoes the last message back.
package chat

import (
	"fmt"

	"github.com/dshills/chatgraph/graph"
	"github.com/dshills/chatgraph/graph/model"
)

// State is the conversation threaded through a chat graph.
//
// As a node result, State is a partial update: its Messages are appended
// to the accumulated conversation, never substituted for it.
type State struct {
	Messages []model.Message `json:"messages"`
}

// NewState returns a conversation seeded with msgs.
func NewState(msgs ...model.Message) State {
	return State{Messages: msgs}
}

// Update returns a partial update appending msgs.
func Update(msgs ...model.Message) State {
	return State{Messages: msgs}
}

// Last returns the final message and false if the conversation is empty.
func (s State) Last() (model.Message, bool) {
	if len(s.Messages) == 0 {
		return model.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Reply returns the content of the last message, or "" if there is none.
func (s State) Reply() string {
	last, _ := s.Last()
	return last.Content
}

// AppendMessages is the chat reducer: it concatenates the update's
// messages onto a fresh copy of prev so the caller's slice is never
// written through.
func AppendMessages(prev, delta State) State {
	merged := make([]model.Message, 0, len(prev.Messages)+len(delta.Messages))
	merged = append(merged, prev.Messages...)
	merged = append(merged, delta.Messages...)
	return State{Messages: merged}
}

// ValidateState enforces the invocation invariant: at least one message,
// each with a known role.
func ValidateState(s State) error {
	if len(s.Messages) == 0 {
		return fmt.Errorf("%w: conversation has no messages", graph.ErrInvalidState)
	}
	for i, msg := range s.Messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", graph.ErrInvalidState, i, msg.Role)
		}
	}
	return nil
}
