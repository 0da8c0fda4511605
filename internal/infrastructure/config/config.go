package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	domainsearch "metasearch-gateway/internal/domain/search"
)

// ConfigError reports a configuration value that is missing or invalid.
// It is fatal at startup and never surfaces mid-run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("configuration field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing required configuration field: %s", e.Field)
}

// Config holds all configuration for the gateway. It is loaded once at
// startup and treated as immutable afterwards.
type Config struct {
	// Transport and HTTP server
	Transport string `env:"GATEWAY_TRANSPORT" envDefault:"http"` // http or stdio
	HTTPPort  string `env:"GATEWAY_HTTP_PORT" envDefault:"8091"`
	LogLevel  string `env:"GATEWAY_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GATEWAY_LOG_FORMAT" envDefault:"json"` // json or console

	// Backend selection
	Mode    string `env:"GATEWAY_MODE" envDefault:"merge"`
	Primary string `env:"GATEWAY_PRIMARY" envDefault:"searxng"`

	// Backends - both required
	SearxngURL     string `env:"SEARXNG_URL" yaml:"searxng_url"`
	TavilyAPIKey   string `env:"TAVILY_API_KEY" yaml:"tavily_api_key"`
	TavilyEndpoint string `env:"TAVILY_ENDPOINT" yaml:"tavily_endpoint"`

	// HTTP client performance
	SearchHTTPTimeout     int `env:"SEARCH_HTTP_TIMEOUT" envDefault:"10"` // seconds
	SearchMaxConnsPerHost int `env:"SEARCH_MAX_CONNS_PER_HOST" envDefault:"50"`
	SearchMaxIdleConns    int `env:"SEARCH_MAX_IDLE_CONNS" envDefault:"100"`
	SearchIdleConnTimeout int `env:"SEARCH_IDLE_CONN_TIMEOUT" envDefault:"90"` // seconds

	// Retry configuration
	RetryMaxAttempts   int     `env:"SEARCH_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryInitialDelay  int     `env:"SEARCH_RETRY_INITIAL_DELAY" envDefault:"200"` // milliseconds
	RetryMaxDelay      int     `env:"SEARCH_RETRY_MAX_DELAY" envDefault:"5000"`    // milliseconds
	RetryBackoffFactor float64 `env:"SEARCH_RETRY_BACKOFF_FACTOR" envDefault:"2.0"`

	// Circuit breaker configuration
	CBEnabled          bool `env:"CB_ENABLED" envDefault:"true"`
	CBFailureThreshold int  `env:"CB_FAILURE_THRESHOLD" envDefault:"15"`
	CBSuccessThreshold int  `env:"CB_SUCCESS_THRESHOLD" envDefault:"5"`
	CBTimeout          int  `env:"CB_TIMEOUT" envDefault:"45"` // seconds
	CBMaxHalfOpen      int  `env:"CB_MAX_HALF_OPEN" envDefault:"10"`

	// Tool result limits - controls maximum output size for MCP tool results
	MaxSnippetChars      int `env:"MAX_SNIPPET_CHARS" envDefault:"5000"`
	MaxFetchPreviewChars int `env:"MAX_FETCH_PREVIEW_CHARS" envDefault:"600"`
	MaxFetchTextChars    int `env:"MAX_FETCH_TEXT_CHARS" envDefault:"50000"`

	// Feature toggles
	EnableFetchWebpage bool `env:"ENABLE_FETCH_WEBPAGE" envDefault:"true"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses configuration from an optional YAML file overlay
// (GATEWAY_CONFIG_FILE) followed by environment variables, then validates.
// Must be called exactly once at process startup.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// File overlay runs after env parsing so envDefault values do not mask
	// it; explicitly set environment variables still win.
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.SearxngURL) == "" {
		return &ConfigError{Field: "SEARXNG_URL"}
	}
	if strings.TrimSpace(c.TavilyAPIKey) == "" {
		return &ConfigError{Field: "TAVILY_API_KEY"}
	}
	if _, ok := domainsearch.ParseMode(c.Mode); !ok {
		return &ConfigError{Field: "GATEWAY_MODE", Reason: fmt.Sprintf("unknown mode %q", c.Mode)}
	}
	switch domainsearch.Provider(strings.ToLower(strings.TrimSpace(c.Primary))) {
	case domainsearch.ProviderSearxng, domainsearch.ProviderTavily:
	default:
		return &ConfigError{Field: "GATEWAY_PRIMARY", Reason: fmt.Sprintf("unknown provider %q", c.Primary)}
	}
	switch c.Transport {
	case "http", "stdio":
	default:
		return &ConfigError{Field: "GATEWAY_TRANSPORT", Reason: fmt.Sprintf("unknown transport %q", c.Transport)}
	}
	if c.AuthEnabled {
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return &ConfigError{Field: "AUTH_ISSUER", Reason: "required when AUTH_ENABLED is true"}
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return &ConfigError{Field: "AUTH_JWKS_URL", Reason: "required when AUTH_ENABLED is true"}
		}
	}
	return nil
}

// SelectionMode returns the validated gateway mode.
func (c *Config) SelectionMode() domainsearch.Mode {
	mode, _ := domainsearch.ParseMode(c.Mode)
	return mode
}

// PrimaryProvider returns the validated priority-order head.
func (c *Config) PrimaryProvider() domainsearch.Provider {
	return domainsearch.Provider(strings.ToLower(strings.TrimSpace(c.Primary)))
}

// HTTPTimeout returns the per-request adapter timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.SearchHTTPTimeout) * time.Second
}
