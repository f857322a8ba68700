// Package app wires configuration, observability, the chat model and the
// compiled chat graphs into one process runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dshills/chatgraph/chat"
	"github.com/dshills/chatgraph/graph"
	"github.com/dshills/chatgraph/graph/emit"
	"github.com/dshills/chatgraph/graph/model"
	"github.com/dshills/chatgraph/graph/model/anthropic"
	"github.com/dshills/chatgraph/graph/model/google"
	"github.com/dshills/chatgraph/graph/model/openai"
	"github.com/dshills/chatgraph/internal/config"
	"github.com/dshills/chatgraph/internal/logging"
)

// Graph names used in events and metric labels.
const (
	LiveGraphName = "live"
	MockGraphName = "mock"
)

// App holds the long-lived objects shared by every request. All fields
// are read-only after New returns.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Live     *chat.Graph
	Mock     *chat.Graph

	// Model is the live graph's chat model, with usage accounting.
	Model *model.Metered

	closers []func(context.Context) error
}

// Options overrides parts of the runtime. The zero value builds
// everything from the configuration.
type Options struct {
	// LogOutput receives log lines. Default: stderr.
	LogOutput io.Writer

	// Model replaces the provider selected by the configuration.
	Model model.ChatModel

	// Emitter receives graph events in addition to the log emitter.
	Emitter emit.Emitter

	// SpanExporter receives spans when tracing is enabled. Without one
	// spans are created but not exported.
	SpanExporter sdktrace.SpanExporter
}

// New initialises the runtime in dependency order: logger, metrics,
// tracing, chat model, graphs. Any failure is fatal to startup; resources
// acquired before the failure are released.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	logger, err := logging.New(opts.LogOutput, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := graph.NewPrometheusMetrics(a.Registry)

	emitters := []emit.Emitter{emit.NewLogEmitter(logger), opts.Emitter}
	if cfg.Tracing.Enabled {
		var tpOpts []sdktrace.TracerProviderOption
		if opts.SpanExporter != nil {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(opts.SpanExporter))
		}
		tp := sdktrace.NewTracerProvider(tpOpts...)
		otel.SetTracerProvider(tp)
		a.closers = append(a.closers, tp.Shutdown)
		emitters = append(emitters, emit.NewOTelEmitter(tp.Tracer("github.com/dshills/chatgraph")))
	}
	emitter := emit.NewMultiEmitter(emitters...)

	m := opts.Model
	if m == nil {
		m, err = a.newChatModel(ctx)
		if err != nil {
			return nil, err
		}
	}
	a.Model = model.NewMetered(m, cfg.LLM.Provider, model.NewUsageMetrics(a.Registry))

	a.Live, err = chat.NewLiveGraph(a.Model,
		graph.WithName(LiveGraphName), graph.WithEmitter(emitter), graph.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("compile live graph: %w", err)
	}
	a.Mock, err = chat.NewMockGraph(
		graph.WithName(MockGraphName), graph.WithEmitter(emitter), graph.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("compile mock graph: %w", err)
	}

	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("base_url", cfg.LLM.ResolvedBaseURL()).
		Bool("tracing", cfg.Tracing.Enabled).
		Msg("runtime initialised")

	return a, nil
}

// newChatModel builds the adapter for the configured provider.
func (a *App) newChatModel(ctx context.Context) (model.ChatModel, error) {
	llm := a.Config.LLM

	switch llm.Provider {
	case config.ProviderOpenAI:
		m, err := openai.NewChatModel(openai.Config{
			BaseURL:    llm.ResolvedBaseURL(),
			APIKey:     llm.ResolvedAPIKey(),
			Params:     llm.Params(),
			MaxRetries: llm.MaxRetries,
			Timeout:    llm.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return m, nil

	case config.ProviderAnthropic:
		m, err := anthropic.NewChatModel(anthropic.Config{
			BaseURL:    llm.ResolvedBaseURL(),
			APIKey:     llm.ResolvedAPIKey(),
			Params:     llm.Params(),
			MaxRetries: llm.MaxRetries,
			Timeout:    llm.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return m, nil

	case config.ProviderGoogle:
		m, err := google.NewChatModel(ctx, google.Config{
			BaseURL: llm.ResolvedBaseURL(),
			APIKey:  llm.ResolvedAPIKey(),
			Params:  llm.Params(),
			Timeout: llm.Timeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return m.Close() })
		return m, nil
	}

	return nil, fmt.Errorf("unknown LLM provider %q", llm.Provider)
}

// AddCloser registers fn to run on Close, before the resources acquired
// by New.
func (a *App) AddCloser(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse acquisition order and returns the
// joined errors.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
