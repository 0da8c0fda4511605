package search

import (
	"errors"
	"fmt"
	"strings"
)

// AdapterErrorKind classifies adapter failures into the retry-relevant
// categories.
type AdapterErrorKind string

const (
	// ErrKindTimeout covers requests cancelled by the per-call deadline.
	ErrKindTimeout AdapterErrorKind = "timeout"
	// ErrKindBackendFailure covers non-success HTTP responses.
	ErrKindBackendFailure AdapterErrorKind = "backend_failure"
	// ErrKindParseFailure covers bodies that could not be decoded at all.
	ErrKindParseFailure AdapterErrorKind = "parse_failure"
)

// AdapterError is the terminal failure of a single adapter invocation,
// after its retry budget is exhausted.
type AdapterError struct {
	Provider Provider
	Kind     AdapterErrorKind
	// Status and Body are set for backend failures.
	Status int
	Body   string
	Err    error
}

func (e *AdapterError) Error() string {
	switch e.Kind {
	case ErrKindBackendFailure:
		if e.Status == 0 {
			return fmt.Sprintf("%s: transport failure: %v", e.Provider, e.Err)
		}
		return fmt.Sprintf("%s: backend failure (status %d): %s", e.Provider, e.Status, e.Body)
	case ErrKindTimeout:
		return fmt.Sprintf("%s: request timed out: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed:
// timeouts and 5xx responses qualify, 4xx responses never do (429 included,
// since hammering a rate limit on a short backoff only makes it worse).
// Status 0 marks transport-level failures (connection refused, reset) that
// never produced a response.
func (e *AdapterError) Retryable() bool {
	switch e.Kind {
	case ErrKindTimeout:
		return true
	case ErrKindBackendFailure:
		return e.Status == 0 || e.Status >= 500
	default:
		return false
	}
}

// NewTimeoutError wraps a deadline failure for the given provider.
func NewTimeoutError(provider Provider, err error) *AdapterError {
	return &AdapterError{Provider: provider, Kind: ErrKindTimeout, Err: err}
}

// NewBackendError wraps a non-success HTTP response.
func NewBackendError(provider Provider, status int, body string) *AdapterError {
	return &AdapterError{Provider: provider, Kind: ErrKindBackendFailure, Status: status, Body: body}
}

// NewParseError wraps a body that could not be decoded.
func NewParseError(provider Provider, err error) *AdapterError {
	return &AdapterError{Provider: provider, Kind: ErrKindParseFailure, Err: err}
}

// GatewayErrorKind distinguishes a single selected backend failing from
// every backend failing during a merge.
type GatewayErrorKind string

const (
	ErrKindSingleBackendFailed GatewayErrorKind = "single_backend_failed"
	ErrKindAllBackendsFailed   GatewayErrorKind = "all_backends_failed"
)

// GatewayError is the typed terminal result of a failed gateway call. It is
// always returned to the caller, never allowed to crash the process.
type GatewayError struct {
	Kind GatewayErrorKind
	Errs []error
}

func (e *GatewayError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(msgs, "; "))
}

func (e *GatewayError) Unwrap() []error { return e.Errs }

// IsGatewayError reports whether err is a GatewayError of the given kind.
func IsGatewayError(err error, kind GatewayErrorKind) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Kind == kind
}

// IsAdapterError reports whether err is an AdapterError of the given kind.
func IsAdapterError(err error, kind AdapterErrorKind) bool {
	var adErr *AdapterError
	return errors.As(err, &adErr) && adErr.Kind == kind
}
