package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// Default network retry configuration.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// DefaultRetryConfig returns the retry policy applied by New.
func DefaultRetryConfig() apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Compile-time interface compliance check.
var _ Backend = (*retrying)(nil)

type retrying struct {
	next Backend
	cfg  apierr.RetryConfig
}

// WithRetry wraps b so that rate-limit and timeout failures are retried with
// exponential backoff. Content-shape retries are not its concern.
func WithRetry(b Backend, cfg apierr.RetryConfig) Backend {
	return &retrying{next: b, cfg: cfg}
}

func (r *retrying) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	return apierr.RetryWithBackoff(ctx, r.cfg, func() (json.RawMessage, error) {
		return r.next.GenerateStructured(ctx, req)
	}, apierr.IsRetryable)
}

func (r *retrying) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	return apierr.RetryWithBackoff(ctx, r.cfg, func() (string, error) {
		return r.next.GenerateText(ctx, req)
	}, apierr.IsRetryable)
}
