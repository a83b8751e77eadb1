package llm

import (
	"context"
	"fmt"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider Provider
	Model    string // empty uses Provider.DefaultModel
	APIKey   string
	// Retry overrides the network retry policy. nil uses DefaultRetryConfig.
	Retry *apierr.RetryConfig
}

// New builds the configured provider wrapped with network retry.
func New(ctx context.Context, s Settings) (Backend, error) {
	p := s.Provider.OrDefault()

	var (
		b   Backend
		err error
	)
	switch p {
	case OpenAIProvider:
		b, err = NewOpenAI(s.APIKey, WithOpenAIModel(s.Model))
	case DeepSeekProvider:
		b, err = NewDeepSeek(s.APIKey, WithDeepSeekModel(s.Model))
	case GeminiProvider:
		b, err = NewGemini(ctx, s.APIKey, WithGeminiModel(s.Model))
	case AnthropicProvider:
		b, err = NewAnthropic(s.APIKey, WithAnthropicModel(s.Model))
	default:
		return nil, fmt.Errorf("provider %q: %w", p, ErrInvalidProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	cfg := DefaultRetryConfig()
	if s.Retry != nil {
		cfg = *s.Retry
	}
	return WithRetry(b, cfg), nil
}
