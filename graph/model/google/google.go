// Package google provides a ChatModel adapter for the Google Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/chatgraph/graph/model"
)

// DefaultModel is used when Config.Params.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Config configures a ChatModel.
type Config struct {
	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey authenticates against the Gemini API.
	APIKey string

	// Params holds model name, temperature and token budget.
	Params model.Params

	// Timeout bounds each call. Zero leaves it to ctx. Retries are left
	// to the SDK's own transport policy.
	Timeout time.Duration
}

// ChatModel implements model.ChatModel for Google's Gemini models.
//
// Unlike the HTTP-only adapters, the Gemini SDK client holds connections:
// one client is created by NewChatModel and must be released with Close
// when the process shuts down.
type ChatModel struct {
	client  *genai.Client
	params  model.Params
	timeout time.Duration
}

// NewChatModel validates cfg and opens the SDK client.
func NewChatModel(ctx context.Context, cfg Config) (*ChatModel, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}

	params := cfg.Params
	if params.Model == "" {
		params.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}

	return &ChatModel{client: client, params: params, timeout: cfg.Timeout}, nil
}

// Close releases the SDK client.
func (m *ChatModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Chat implements the model.ChatModel interface.
//
// System messages become the model's SystemInstruction, earlier turns
// are replayed as chat history and the final message is sent.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	system, history, last := splitConversation(messages)
	if last == nil {
		return model.ChatOut{}, model.ErrNoMessages
	}

	gm := m.client.GenerativeModel(m.params.Model)
	gm.SetTemperature(float32(m.params.Temperature))
	gm.SetMaxOutputTokens(int32(m.params.MaxOutputTokens))
	gm.SystemInstruction = system

	session := gm.StartChat()
	session.History = history

	ctx, cancel := m.callContext(ctx)
	defer cancel()

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.ChatOut{}, err
		}
		return model.ChatOut{}, fmt.Errorf("google: send message: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return model.ChatOut{}, model.ErrEmptyResponse
	}

	out := model.ChatOut{Text: text}
	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// callContext applies the configured per-call timeout to ctx.
func (m *ChatModel) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}

// splitConversation converts messages into Gemini's shape: a system
// instruction (nil if none), the history and the message to send.
func splitConversation(messages []model.Message) (*genai.Content, []*genai.Content, *genai.Content) {
	var system *genai.Content
	var turns []*genai.Content

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.Text(msg.Content))
			continue
		}

		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		turns = append(turns, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	if len(turns) == 0 {
		return system, nil, nil
	}
	return system, turns[:len(turns)-1], turns[len(turns)-1]
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return strings.Join(parts, "")
}
