package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Gateway metrics - using explicit registration
var (
	// ToolCallsTotal counts MCP tool invocations.
	ToolCallsTotal *prometheus.CounterVec

	// ToolDuration tracks tool execution duration.
	ToolDuration *prometheus.HistogramVec

	// ProviderRequestsTotal counts outbound requests per provider.
	ProviderRequestsTotal *prometheus.CounterVec

	// ExternalProviderLatency tracks provider response time.
	ExternalProviderLatency *prometheus.HistogramVec

	// CircuitBreakerState exposes breaker state per provider.
	CircuitBreakerState *prometheus.GaugeVec
)

func init() {
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Subsystem: "gateway",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metasearch",
			Subsystem: "gateway",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Subsystem: "gateway",
			Name:      "provider_requests_total",
			Help:      "Total outbound provider requests",
		},
		[]string{"operation", "provider", "status"},
	)

	ExternalProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metasearch",
			Subsystem: "gateway",
			Name:      "external_provider_latency_seconds",
			Help:      "External provider response time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "metasearch",
			Subsystem: "gateway",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"provider"},
	)

	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ExternalProviderLatency)
	prometheus.MustRegister(CircuitBreakerState)
	log.Debug().Msg("gateway metrics registered with Prometheus")
}

// RecordToolCall records one MCP tool invocation.
func RecordToolCall(toolName, status string, durationSec float64) {
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

// RecordProviderRequest records one outbound provider request.
func RecordProviderRequest(operation, provider, status string) {
	ProviderRequestsTotal.WithLabelValues(operation, provider, status).Inc()
}

// RecordExternalProviderLatency records provider round-trip time.
func RecordExternalProviderLatency(provider string, seconds float64) {
	ExternalProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// SetCircuitBreakerState mirrors breaker state into the gauge.
func SetCircuitBreakerState(provider string, state float64) {
	CircuitBreakerState.WithLabelValues(provider).Set(state)
}
