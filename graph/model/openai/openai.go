// Package openai provides a ChatModel adapter for OpenAI-compatible
// chat completion servers (OpenAI, llama.cpp, vLLM, Ollama's /v1 API).
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/chatgraph/graph/model"
)

// DefaultModel is sent when Config.Params.Model is empty. Local servers
// such as llama.cpp ignore the name and serve whatever model they loaded.
const DefaultModel = "gpt-3.5-turbo"

// Config configures a ChatModel.
type Config struct {
	// BaseURL is the API root, including the version segment
	// (e.g. "http://127.0.0.1:7001/v1"). Empty uses the SDK default.
	BaseURL string

	// APIKey is sent as a bearer token. Local servers accept any value.
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

// ChatModel implements model.ChatModel on top of the official openai-go SDK.
//
// The SDK client is safe for concurrent use, so one ChatModel serves
// every request of the process.
//
// Example usage:
//
//	m, err := openai.NewChatModel(openai.Config{
//	    BaseURL: "http://127.0.0.1:7001/v1",
//	    APIKey:  "not-needed",
//	    Params:  model.DefaultParams(),
//	})
//	out, err := m.Chat(ctx, []model.Message{model.UserMessage("hello")})
type ChatModel struct {
	client openai.Client
	params model.Params
}

// NewChatModel validates cfg and builds the SDK client.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("openai: max retries cannot be negative")
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
		client: openai.NewClient(opts...),
		params: params,
	}, nil
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	if len(messages) == 0 {
		return model.ChatOut{}, model.ErrNoMessages
	}

	completion, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(m.params.Model),
		Messages:    convertMessages(messages),
		Temperature: openai.Float(m.params.Temperature),
		MaxTokens:   openai.Int(int64(m.params.MaxOutputTokens)),
	})
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return model.ChatOut{}, model.ErrEmptyResponse
	}

	return model.ChatOut{
		Text: completion.Choices[0].Message.Content,
		Usage: model.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}, nil
}

// convertMessages maps our roles onto the SDK's message unions.
// Unknown roles are sent as user turns.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// APIError reports a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: backend returned status %d: %v", e.StatusCode, e.Cause)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// mapError keeps context errors untouched and tags API failures with
// their status code.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.StatusCode, Cause: err}
	}

	return fmt.Errorf("openai: chat completion: %w", err)
}
