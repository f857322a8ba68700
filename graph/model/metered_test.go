package model

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetered(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewUsageMetrics(registry)
	mock := &MockChatModel{Responses: []ChatOut{
		{Text: "one", Usage: Usage{InputTokens: 10, OutputTokens: 3}},
		{Text: "two", Usage: Usage{InputTokens: 15, OutputTokens: 4}},
	}}
	m := NewMetered(mock, "openai", metrics)

	ctx := context.Background()
	for _, want := range []string{"one", "two"} {
		out, err := m.Chat(ctx, []Message{UserMessage("hi")})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if out.Text != want {
			t.Errorf("Text = %q, want %q", out.Text, want)
		}
	}

	mock.Err = errors.New("backend down")
	if _, err := m.Chat(ctx, []Message{UserMessage("hi")}); err == nil {
		t.Fatal("expected error")
	}

	if got := m.Usage(); got != (Usage{InputTokens: 25, OutputTokens: 7}) {
		t.Errorf("Usage = %+v", got)
	}
	if got := testutil.ToFloat64(metrics.calls.WithLabelValues("openai", "success")); got != 2 {
		t.Errorf("success calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.calls.WithLabelValues("openai", "error")); got != 1 {
		t.Errorf("error calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.tokens.WithLabelValues("openai", "output")); got != 7 {
		t.Errorf("output tokens = %v, want 7", got)
	}
}

func TestMetered_NilMetrics(t *testing.T) {
	m := NewMetered(&MockChatModel{Responses: []ChatOut{{Text: "x", Usage: Usage{InputTokens: 1}}}}, "google", nil)
	if _, err := m.Chat(context.Background(), []Message{UserMessage("hi")}); err != nil {
		t.Fatal(err)
	}
	if m.Usage().InputTokens != 1 {
		t.Errorf("Usage = %+v", m.Usage())
	}
}
