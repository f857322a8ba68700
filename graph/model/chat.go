// Package model provides LLM integration adapters.
package model

import (
	"context"
	"errors"
	"fmt"
)

// ChatModel defines the interface for LLM chat providers.
//
// It abstracts the differences between providers (OpenAI-compatible
// servers such as llama.cpp, Anthropic, Google) behind one call: given an
// ordered conversation, produce the assistant's reply.
//
// Implementations should:
//   - Convert Message values to the provider's wire format
//   - Respect context cancellation
//   - Own any retry, timeout and authentication policy
//   - Be safe for concurrent use
type ChatModel interface {
	// Chat sends messages to the LLM and returns the response.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Role identifies the author of a Message.
type Role string

// Standard role constants for LLM conversations.
const (
	// RoleSystem indicates a system message that sets context or instructions.
	RoleSystem Role = "system"

	// RoleUser indicates a message from the human user.
	RoleUser Role = "user"

	// RoleAssistant indicates a response from the LLM.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the standard roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a single turn in an LLM conversation.
// Messages are values; code that needs a different message builds a new one.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage returns a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant-authored message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SystemMessage returns a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ChatOut represents the output of a chat completion.
type ChatOut struct {
	// Text contains the LLM's generated response.
	Text string

	// Usage reports token accounting when the provider returns it.
	Usage Usage
}

// Message returns the output as an assistant message.
func (o ChatOut) Message() Message {
	return AssistantMessage(o.Text)
}

// Usage holds provider-reported token counts.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Params are the generation parameters shared by every provider.
type Params struct {
	// Model is the provider-specific model name.
	Model string

	// Temperature controls sampling randomness, in [0, 1].
	Temperature float64

	// MaxOutputTokens caps the length of the reply. Must be positive.
	MaxOutputTokens int
}

// Default generation parameters.
const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 512
)

// DefaultParams returns Params with the default temperature and token budget.
func DefaultParams() Params {
	return Params{
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.Temperature < 0 || p.Temperature > 1 {
		return fmt.Errorf("temperature %v out of range [0, 1]", p.Temperature)
	}
	if p.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", p.MaxOutputTokens)
	}
	return nil
}

// ErrEmptyResponse is returned when a provider answers without any choice
// or text to turn into a message.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrNoMessages is returned by adapters given an empty conversation.
var ErrNoMessages = errors.New("no messages to send")
