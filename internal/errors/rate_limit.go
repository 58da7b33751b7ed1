// Package errors holds shared error types for external API clients.
package errors

import (
	stdErrors "errors"
	"fmt"
	"time"
)

// RateLimitError represents a rate limit error from any API
type RateLimitError struct {
	Message string
	// RetryAfter is the server-suggested wait before retrying, zero when the
	// server did not say.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// NewRateLimitError creates a new RateLimitError with the given message
func NewRateLimitError(message string) *RateLimitError {
	return &RateLimitError{Message: message}
}

// NewRateLimitErrorWithRetry creates a RateLimitError carrying the
// server-suggested retry delay.
func NewRateLimitErrorWithRetry(message string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Message: message, RetryAfter: retryAfter}
}

// IsRateLimitError reports whether err is, or wraps, a RateLimitError.
func IsRateLimitError(err error) bool {
	var rateLimitErr *RateLimitError
	return stdErrors.As(err, &rateLimitErr)
}
