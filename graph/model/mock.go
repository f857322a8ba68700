package model

import (
	"context"
	"sync"
)

// MockChatModel is a test implementation of ChatModel.
//
// Use MockChatModel in tests to exercise graphs without making LLM API
// calls. It provides configurable responses, call history and error
// injection, and is safe for concurrent use.
//
// Example usage:
//
//	mock := &MockChatModel{
//	    Responses: []ChatOut{{Text: "First"}, {Text: "Second"}},
//	}
//	out, err := mock.Chat(ctx, messages)
//	// Returns "First", then "Second", then "Second" again
type MockChatModel struct {
	// Responses contains the sequence of responses to return.
	// If all responses are consumed, the last response repeats.
	Responses []ChatOut

	// Err, if set, is returned by Chat instead of a response.
	Err error

	// Calls tracks the messages passed to every Chat invocation.
	Calls [][]Message

	mu        sync.Mutex
	callIndex int
}

// Chat implements the ChatModel interface.
//
// The call is recorded before the configured error or response is returned.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]Message, len(messages))
	copy(recorded, messages)
	m.Calls = append(m.Calls, recorded)

	if m.Err != nil {
		return ChatOut{}, m.Err
	}

	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}

	return m.Responses[idx], nil
}

// Reset clears the call history and rewinds the responses.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of times Chat has been called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
