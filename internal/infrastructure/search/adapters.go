package search

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	domainsearch "metasearch-gateway/internal/domain/search"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultMaxResults  = 5
	userAgent          = "Metasearch-Gateway/1.0"

	// maxErrorBodyBytes caps how much of an error response body is carried
	// in AdapterError and logs.
	maxErrorBodyBytes = 512
)

// ClientOptions captures the knobs shared by both adapters.
type ClientOptions struct {
	HTTPTimeout     time.Duration
	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	Retry           RetryConfig
	Breaker         CircuitBreakerConfig
}

// DefaultClientOptions returns the adapter defaults: 10s request timeout,
// pooled transport, retry and breaker defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		HTTPTimeout:     defaultHTTPTimeout,
		MaxConnsPerHost: 50,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
		Retry:           DefaultRetryConfig(),
		Breaker:         DefaultCircuitBreakerConfig(),
	}
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = defaultHTTPTimeout
	}
	if o.MaxConnsPerHost <= 0 {
		o.MaxConnsPerHost = 50
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 100
	}
	if o.IdleConnTimeout <= 0 {
		o.IdleConnTimeout = 90 * time.Second
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = DefaultRetryConfig()
	}
	return o
}

// newRestyClient wires a resty client with connection pooling. Retries are
// handled by WithRetry, not resty, so classification stays typed.
func newRestyClient(opts ClientOptions) *resty.Client {
	transport := &http.Transport{
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     opts.MaxConnsPerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return resty.New().
		SetHeader("User-Agent", userAgent).
		SetTimeout(opts.HTTPTimeout).
		SetRetryCount(0).
		SetTransport(transport)
}

// classifyTransportError maps a failed round trip onto the typed taxonomy:
// deadline and net timeouts become Timeout, everything else a status-0
// backend failure.
func classifyTransportError(provider domainsearch.Provider, err error) *domainsearch.AdapterError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domainsearch.NewTimeoutError(provider, err)
	}
	return &domainsearch.AdapterError{
		Provider: provider,
		Kind:     domainsearch.ErrKindBackendFailure,
		Err:      err,
	}
}

func trimErrorBody(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes])
	}
	return string(body)
}

func resultLimit(query domainsearch.Query) int {
	if query.MaxResults > 0 {
		return query.MaxResults
	}
	return defaultMaxResults
}
