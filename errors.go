package chatstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidEndpoint indicates the configured endpoint is not a
	// well-formed http(s) URL.
	ErrInvalidEndpoint = errors.New("chatstream: invalid endpoint")

	// ErrMissingModel indicates the request configuration has no model set.
	ErrMissingModel = errors.New("chatstream: model is required")

	// ErrUnauthorized indicates the credential is missing, malformed, or
	// rejected by the endpoint.
	ErrUnauthorized = errors.New("chatstream: unauthorized")

	// ErrRateLimited indicates the endpoint's rate limit has been exceeded.
	ErrRateLimited = errors.New("chatstream: rate limit exceeded")

	// ErrServiceUnavailable indicates the endpoint is down or unreachable.
	ErrServiceUnavailable = errors.New("chatstream: service unavailable")

	// ErrSessionCancelled is carried by the terminal outcome of a cancelled
	// session.
	ErrSessionCancelled = errors.New("chatstream: session cancelled")
)

// ConfigError represents an invalid request configuration. It is returned
// synchronously, before anything reaches the transport, and is never retried.
type ConfigError struct {
	Field  string // The configuration field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped sentinel (ErrInvalidEndpoint, ErrMissingModel, ...)
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config field '%s' (value: %v): %s (%v)", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("config field '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError represents a failure reported by the network or the
// endpoint: connection errors, non-2xx statuses, or an in-band error payload.
// It surfaces as a Failed session; the core never retries.
type TransportError struct {
	StatusCode int    // HTTP status code (0 when no status was received)
	Message    string // Error message from the endpoint or transport
	Retryable  bool   // Whether retrying might succeed
	Err        error  // Wrapped sentinel or underlying network error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError represents a malformed fragment or response body. During
// streaming these are reported to the logger and dropped, never failing the
// session; only a malformed non-streaming body (nothing to recover from)
// surfaces one as a failure.
type DecodeError struct {
	Payload string // The offending payload, as received
	Err     error  // The underlying parse error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error on payload %q: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if an error is a pre-dispatch configuration failure.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return true
	}

	return errors.Is(err, ErrInvalidEndpoint) || errors.Is(err, ErrMissingModel)
}

// IsTransportError checks if an error came from the network or the endpoint.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsDecodeError checks if an error came from parsing a payload.
func IsDecodeError(err error) bool {
	if err == nil {
		return false
	}

	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// IsRetryable checks if an error is potentially retryable.
// Returns true for rate limits and temporary unavailability.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check for TransportError with Retryable flag
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}

	// Rate limits are always retryable
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	// Unavailable endpoints are retryable
	if errors.Is(err, ErrServiceUnavailable) {
		return true
	}

	return false
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUnauthorized) {
		return true
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		// HTTP 401/403 indicate auth issues
		return transportErr.StatusCode == 401 || transportErr.StatusCode == 403
	}

	return false
}
