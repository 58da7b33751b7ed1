package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("slow down")

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := fmt.Errorf("fetch failed: %w", err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	err := NewRateLimitErrorWithRetry("too many requests", 2*time.Minute)

	expected := "too many requests (retry after 2m0s)"
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}

	if err.RetryAfter.Minutes() != 2.0 {
		t.Fatalf("RetryAfter = %v, want 2 minutes", err.RetryAfter)
	}
}

func TestIsRateLimitErrorOtherError(t *testing.T) {
	if IsRateLimitError(stdErrors.New("plain error")) {
		t.Fatal("IsRateLimitError returned true for a plain error")
	}
	if IsRateLimitError(nil) {
		t.Fatal("IsRateLimitError returned true for nil")
	}
}
