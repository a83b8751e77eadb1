// Package apierr provides shared error sentinels, status classification and
// retry infrastructure for the generation and transcription backends.
//
// Providers classify their own error types into these sentinels at the adapter
// boundary using fmt.Errorf("%s: %w", msg, sentinel). Callers check with
// errors.Is(err, apierr.ErrRateLimit) and friends.
package apierr

import "errors"

// Sentinel errors for backend interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out or the server failed transiently.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrEmptyResponse indicates a completion call returned no usable text.
	ErrEmptyResponse = errors.New("empty response from backend")

	// ErrMalformedResponse indicates a structured-output call did not return valid JSON.
	ErrMalformedResponse = errors.New("malformed structured response")
)
