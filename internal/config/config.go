// Package config loads chatgraph settings from defaults, an optional TOML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dshills/chatgraph/graph/model"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// DefaultOpenAIAPIKey is sent to OpenAI-compatible servers that do not
// check credentials.
const DefaultOpenAIAPIKey = "not-needed"

// DefaultOpenAIBaseURL points at a local OpenAI-compatible server
// (llama.cpp). It applies to the openai provider only.
const DefaultOpenAIBaseURL = "http://127.0.0.1:7001/v1"

// Config is the resolved process configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	LLM     LLMConfig     `koanf:"llm"`
	Log     LogConfig     `koanf:"log"`
	Tracing TracingConfig `koanf:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address for Port on all interfaces.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LLMConfig selects and parameterises the language model backend.
//
// Timeout applies to every provider. MaxRetries is honoured by the openai
// and anthropic SDKs; the google client uses its own transport retries.
type LLMConfig struct {
	Provider    string        `koanf:"provider"`
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxRetries  int           `koanf:"max_retries"`
}

// Params returns the generation parameters for the model adapters.
func (l LLMConfig) Params() model.Params {
	return model.Params{
		Model:           l.Model,
		Temperature:     l.Temperature,
		MaxOutputTokens: l.MaxTokens,
	}
}

// ResolvedBaseURL returns BaseURL, falling back to DefaultOpenAIBaseURL
// for the openai provider. Other providers keep their SDK default.
func (l LLMConfig) ResolvedBaseURL() string {
	if l.BaseURL == "" && l.Provider == ProviderOpenAI {
		return DefaultOpenAIBaseURL
	}
	return l.BaseURL
}

// ResolvedAPIKey returns APIKey, falling back to DefaultOpenAIAPIKey for
// the openai provider. Other providers require an explicit key.
func (l LLMConfig) ResolvedAPIKey() string {
	if l.APIKey == "" && l.Provider == ProviderOpenAI {
		return DefaultOpenAIAPIKey
	}
	return l.APIKey
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TracingConfig toggles the OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

// envKeys maps the supported environment variables onto config keys.
// Variables not listed here are ignored.
var envKeys = map[string]string{
	"PORT":             "server.port",
	"SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"LLM_PROVIDER":     "llm.provider",
	"LLM_BASE_URL":     "llm.base_url",
	"LLM_API_KEY":      "llm.api_key",
	"LLM_MODEL":        "llm.model",
	"LLM_TEMPERATURE":  "llm.temperature",
	"LLM_MAX_TOKENS":   "llm.max_tokens",
	"LLM_TIMEOUT":      "llm.timeout",
	"LLM_MAX_RETRIES":  "llm.max_retries",
	"LOG_LEVEL":        "log.level",
	"LOG_FORMAT":       "log.format",
	"TRACING_ENABLED":  "tracing.enabled",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":             3001,
		"server.shutdown_timeout": "10s",
		"llm.provider":            ProviderOpenAI,
		"llm.base_url":            "",
		"llm.api_key":             "",
		"llm.model":               "",
		"llm.temperature":         model.DefaultTemperature,
		"llm.max_tokens":          model.DefaultMaxOutputTokens,
		"llm.timeout":             "60s",
		"llm.max_retries":         2,
		"log.level":               "info",
		"log.format":              "json",
		"tracing.enabled":         false,
	}
}

// DefaultPaths are searched, in order, when Load is given no path.
var DefaultPaths = []string{"./chatgraph.toml", "$HOME/.chatgraph.toml"}

// Load resolves the configuration. An explicit path must exist; without
// one the first readable file in DefaultPaths is used, if any.
// Environment variables override file values, which override defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else {
		for _, p := range DefaultPaths {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", p, err)
			}
			break
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout cannot be negative")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}

	if err := c.LLM.Params().Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout cannot be negative")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max retries cannot be negative")
	}

	if c.LLM.BaseURL != "" {
		u, err := url.Parse(c.LLM.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid LLM base URL: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid LLM base URL %q", c.LLM.BaseURL)
		}
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

const sample = `# chatgraph configuration
# Environment variables (PORT, LLM_*, LOG_*, TRACING_ENABLED,
# SHUTDOWN_TIMEOUT) override the values below.

[server]
port = 3001
shutdown_timeout = "10s"

[llm]
provider = "openai"
base_url = "http://127.0.0.1:7001/v1"
api_key = "not-needed"
temperature = 0.7
max_tokens = 512
timeout = "60s"
max_retries = 2

[log]
level = "info"
format = "json"

[tracing]
enabled = false
`

// WriteSample writes a commented sample configuration to path. It refuses
// to overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(sample), 0o644)
}
