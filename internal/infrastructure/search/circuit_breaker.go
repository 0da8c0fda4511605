package search

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"metasearch-gateway/internal/infrastructure/metrics"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig defines circuit breaker behavior.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int           // failures before opening
	SuccessThreshold int           // successes to close from half-open
	Timeout          time.Duration // how long to stay open before half-open
	MaxHalfOpenCalls int           // max concurrent calls in half-open state
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 15,
		SuccessThreshold: 5,
		Timeout:          45 * time.Second,
		MaxHalfOpenCalls: 10,
	}
}

// CircuitBreaker guards one provider against hammering a failing backend.
type CircuitBreaker struct {
	cfg      CircuitBreakerConfig
	provider string
	mu       sync.RWMutex

	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	halfOpenCalls   int
}

// NewCircuitBreaker creates a closed breaker for the named provider.
func NewCircuitBreaker(provider string, cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:      cfg,
		provider: provider,
		state:    StateClosed,
	}
}

// Allow reports whether a request may proceed, transitioning open breakers
// to half-open after the configured timeout.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.cfg.Enabled {
		return nil
	}

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.lastFailureTime) > cb.cfg.Timeout {
			log.Info().Str("provider", cb.provider).Msg("circuit breaker transitioning to half-open")
			cb.setState(StateHalfOpen)
			cb.halfOpenCalls = 1
			return nil
		}
		return fmt.Errorf("circuit breaker is open for %s", cb.provider)
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.cfg.MaxHalfOpenCalls {
			cb.halfOpenCalls++
			return nil
		}
		return fmt.Errorf("circuit breaker half-open limit reached for %s", cb.provider)
	default:
		return fmt.Errorf("circuit breaker in unknown state for %s", cb.provider)
	}
}

// RecordResult updates breaker state after an attempt completes.
func (cb *CircuitBreaker) RecordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.cfg.Enabled {
		return
	}

	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailureTime = time.Now()

		if cb.state == StateHalfOpen {
			log.Warn().
				Str("provider", cb.provider).
				Msg("circuit breaker opening from half-open due to failure")
			cb.setState(StateOpen)
			cb.halfOpenCalls = 0
		} else if cb.state == StateClosed && cb.failures >= cb.cfg.FailureThreshold {
			log.Warn().
				Str("provider", cb.provider).
				Int("failures", cb.failures).
				Msg("circuit breaker opening due to failure threshold")
			cb.setState(StateOpen)
		}
		return
	}

	cb.successes++

	if cb.state == StateHalfOpen {
		if cb.successes >= cb.cfg.SuccessThreshold {
			log.Info().
				Str("provider", cb.provider).
				Int("successes", cb.successes).
				Msg("circuit breaker closing from half-open")
			cb.setState(StateClosed)
			cb.failures = 0
			cb.successes = 0
			cb.halfOpenCalls = 0
		}
	} else if cb.state == StateClosed {
		cb.failures = 0
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	if !cb.cfg.Enabled {
		return StateClosed
	}
	return cb.state
}

// setState mutates state and mirrors it into the metrics gauge. Callers
// must hold cb.mu.
func (cb *CircuitBreaker) setState(state CircuitState) {
	cb.state = state
	var val float64
	switch state {
	case StateHalfOpen:
		val = 0.5
	case StateOpen:
		val = 1
	}
	metrics.SetCircuitBreakerState(cb.provider, val)
}
