package infrastructure

import (
	"time"

	"github.com/google/wire"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/config"
	"metasearch-gateway/internal/infrastructure/search"
)

// InfrastructureProvider provides the adapters and the gateway wired from
// configuration.
var InfrastructureProvider = wire.NewSet(
	ProvideClientOptions,
	ProvideSearxngAdapter,
	ProvideTavilyAdapter,
	ProvideFetcher,
	ProvideGateway,
)

// ProvideClientOptions maps configuration onto the shared adapter options.
func ProvideClientOptions(cfg *config.Config) search.ClientOptions {
	return search.ClientOptions{
		HTTPTimeout:     cfg.HTTPTimeout(),
		MaxConnsPerHost: cfg.SearchMaxConnsPerHost,
		MaxIdleConns:    cfg.SearchMaxIdleConns,
		IdleConnTimeout: time.Duration(cfg.SearchIdleConnTimeout) * time.Second,
		Retry: search.RetryConfig{
			MaxAttempts:   cfg.RetryMaxAttempts,
			InitialDelay:  time.Duration(cfg.RetryInitialDelay) * time.Millisecond,
			MaxDelay:      time.Duration(cfg.RetryMaxDelay) * time.Millisecond,
			BackoffFactor: cfg.RetryBackoffFactor,
		},
		Breaker: search.CircuitBreakerConfig{
			Enabled:          cfg.CBEnabled,
			FailureThreshold: cfg.CBFailureThreshold,
			SuccessThreshold: cfg.CBSuccessThreshold,
			Timeout:          time.Duration(cfg.CBTimeout) * time.Second,
			MaxHalfOpenCalls: cfg.CBMaxHalfOpen,
		},
	}
}

// ProvideSearxngAdapter builds the SearXNG adapter.
func ProvideSearxngAdapter(cfg *config.Config, opts search.ClientOptions) *search.SearxngAdapter {
	return search.NewSearxngAdapter(cfg.SearxngURL, opts)
}

// ProvideTavilyAdapter builds the Tavily adapter.
func ProvideTavilyAdapter(cfg *config.Config, opts search.ClientOptions) *search.TavilyAdapter {
	return search.NewTavilyAdapter(cfg.TavilyAPIKey, cfg.TavilyEndpoint, opts)
}

// ProvideFetcher builds the webpage fetch chain, with Tavily extract ahead
// of the direct fallback.
func ProvideFetcher(tavily *search.TavilyAdapter, opts search.ClientOptions) domainsearch.Fetcher {
	return search.NewFetchChain(tavily, opts)
}

// ProvideGateway orders the adapters per the configured priority and fixes
// the selection mode for the process lifetime.
func ProvideGateway(
	cfg *config.Config,
	searxng *search.SearxngAdapter,
	tavily *search.TavilyAdapter,
	fetcher domainsearch.Fetcher,
) *domainsearch.Gateway {
	var primary, secondary domainsearch.Adapter = searxng, tavily
	if cfg.PrimaryProvider() == domainsearch.ProviderTavily {
		primary, secondary = tavily, searxng
	}
	return domainsearch.NewGateway(primary, secondary, fetcher, cfg.SelectionMode())
}
