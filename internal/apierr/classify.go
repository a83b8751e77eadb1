package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ClassifyHTTPStatus maps an HTTP status code and provider message to a sentinel.
// Returns nil for 2xx statuses. Unknown statuses are wrapped as ErrBadRequest
// (4xx) or ErrTimeout (5xx) so every non-2xx response carries a sentinel.
func ClassifyHTTPStatus(status int, msg string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusTooManyRequests:
		// Distinguish between temporary rate limit and quota exceeded (billing issue).
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	}

	if status >= 500 {
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", msg, ErrBadRequest)
}

// IsRetryable reports whether err is transient and worth another network attempt.
// Only rate limits and timeouts qualify. Cancellation never does.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout)
}
