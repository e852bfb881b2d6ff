package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrRetriesExhausted wraps the last error once the retry budget is spent
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrCircuitOpen is returned while the breaker rejects calls
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrEmptyResponse is returned when the service answers with no choices
	ErrEmptyResponse = errors.New("empty response")
)

// StatusError is an HTTP failure from a provider without a typed SDK error
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return http.StatusText(e.StatusCode) + ": " + e.Message
}

// Retryable reports whether err is transient: rate limiting, a timeout or an
// unavailable service. Anything else fails the call immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
