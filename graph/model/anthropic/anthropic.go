// Package anthropic provides a ChatModel adapter for Anthropic's Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/chatgraph/graph/model"
)

// DefaultModel is used when Config.Params.Model is empty.
const DefaultModel = "claude-3-5-haiku-latest"

// Config configures a ChatModel.
type Config struct {
	// BaseURL overrides the API root (without the /v1 segment).
	BaseURL string

	// APIKey is sent in the x-api-key header.
	APIKey string

	// Params holds model name, temperature and token budget.
	Params model.Params

	// MaxRetries is the SDK retry budget for transient failures.
	MaxRetries int

	// Timeout bounds each request attempt. Zero leaves it to ctx.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// ChatModel implements model.ChatModel for Anthropic's Claude models.
//
// Anthropic takes system instructions as a separate parameter, so system
// messages are lifted out of the conversation and sent as System blocks.
type ChatModel struct {
	client anthropic.Client
	params model.Params
}

// NewChatModel validates cfg and builds the SDK client.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}

	params := cfg.Params
	if params.Model == "" {
		params.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &ChatModel{
		client: anthropic.NewClient(opts...),
		params: params,
	}, nil
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	system, turns := splitSystem(messages)
	if len(turns) == 0 {
		return model.ChatOut{}, model.ErrNoMessages
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.params.Model),
		MaxTokens:   int64(m.params.MaxOutputTokens),
		Messages:    turns,
		Temperature: anthropic.Float(m.params.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}

	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return model.ChatOut{}, model.ErrEmptyResponse
	}

	return model.ChatOut{
		Text: text.String(),
		Usage: model.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}

// splitSystem separates system instructions from conversation turns.
func splitSystem(messages []model.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	turns := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return system, turns
}

// APIError reports a non-2xx answer from the Anthropic API.
type APIError struct {
	StatusCode int
	Cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic: API returned status %d: %v", e.StatusCode, e.Cause)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.StatusCode, Cause: err}
	}

	return fmt.Errorf("anthropic: create message: %w", err)
}
