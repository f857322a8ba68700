package model

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UsageMetrics counts model calls and the tokens they consume.
//
// Metrics exposed (namespaced with "chatgraph_"):
//
//  1. model_calls_total (counter). Labels: provider, status (success/error).
//  2. model_tokens_total (counter). Labels: provider, direction (input/output).
type UsageMetrics struct {
	calls  *prometheus.CounterVec
	tokens *prometheus.CounterVec
}

// NewUsageMetrics registers the usage metrics with registry. A nil
// registry means prometheus.DefaultRegisterer.
func NewUsageMetrics(registry prometheus.Registerer) *UsageMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &UsageMetrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "model_calls_total",
			Help:      "Total number of chat model calls",
		}, []string{"provider", "status"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "model_tokens_total",
			Help:      "Tokens reported by the chat model backend",
		}, []string{"provider", "direction"}),
	}
}

// Metered wraps a ChatModel and records every call's outcome and token
// usage. Running totals are also kept in memory for the CLI.
type Metered struct {
	next     ChatModel
	provider string
	metrics  *UsageMetrics

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// NewMetered wraps next. metrics may be nil, in which case only the
// in-memory totals are kept.
func NewMetered(next ChatModel, provider string, metrics *UsageMetrics) *Metered {
	return &Metered{next: next, provider: provider, metrics: metrics}
}

// Chat implements ChatModel.
func (m *Metered) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	out, err := m.next.Chat(ctx, messages)
	if err != nil {
		m.observe("error", Usage{})
		return ChatOut{}, err
	}
	m.observe("success", out.Usage)
	return out, nil
}

// Usage returns the tokens consumed so far.
func (m *Metered) Usage() Usage {
	return Usage{
		InputTokens:  m.inputTokens.Load(),
		OutputTokens: m.outputTokens.Load(),
	}
}

func (m *Metered) observe(status string, u Usage) {
	m.inputTokens.Add(u.InputTokens)
	m.outputTokens.Add(u.OutputTokens)

	if m.metrics == nil {
		return
	}
	m.metrics.calls.WithLabelValues(m.provider, status).Inc()
	if u.InputTokens > 0 {
		m.metrics.tokens.WithLabelValues(m.provider, "input").Add(float64(u.InputTokens))
	}
	if u.OutputTokens > 0 {
		m.metrics.tokens.WithLabelValues(m.provider, "output").Add(float64(u.OutputTokens))
	}
}
