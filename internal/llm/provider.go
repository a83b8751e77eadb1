package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Provider represents a validated generation provider.
// Zero value means "not set" and must be defaulted with OrDefault before use.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// Pre-parsed provider constants for use in code.
var (
	OpenAIProvider    = Provider{name: ProviderOpenAI}
	DeepSeekProvider  = Provider{name: ProviderDeepSeek}
	GeminiProvider    = Provider{name: ProviderGemini}
	AnthropicProvider = Provider{name: ProviderAnthropic}
)

// apiKeyEnv maps each provider to the environment variable holding its key.
var apiKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderDeepSeek:  "DEEPSEEK_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// ParseProvider validates and parses a provider name, case-insensitively.
func ParseProvider(s string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if _, ok := apiKeyEnv[name]; !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'openai', 'deepseek', 'gemini' or 'anthropic'): %w",
			s, ErrInvalidProvider)
	}
	return Provider{name: name}, nil
}

// String returns the provider name, or "" for the zero value.
func (p Provider) String() string { return p.name }

// IsZero returns true if no provider is set.
func (p Provider) IsZero() bool { return p.name == "" }

// OrDefault returns the provider, or OpenAIProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAIProvider
	}
	return p
}

// APIKeyEnv returns the environment variable name holding this provider's API key.
func (p Provider) APIKeyEnv() string {
	return apiKeyEnv[p.OrDefault().name]
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p.OrDefault().name {
	case ProviderDeepSeek:
		return DefaultDeepSeekModel
	case ProviderGemini:
		return DefaultGeminiModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultOpenAIModel
	}
}
