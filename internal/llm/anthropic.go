package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// prompter issues one Anthropic messages call and returns the first text block.
// schema is a JSON schema string, empty for free text.
type prompter func(system, user, schema string, settings types.RequestSettings) (string, error)

// Compile-time interface compliance check.
var _ Backend = (*Anthropic)(nil)

// Anthropic generates text with the Anthropic messages API through llmkit.
type Anthropic struct {
	prompt prompter
	model  string
}

// AnthropicOption configures an Anthropic backend.
type AnthropicOption func(*Anthropic)

// WithAnthropicModel sets the model name.
func WithAnthropicModel(model string) AnthropicOption {
	return func(a *Anthropic) {
		if model != "" {
			a.model = model
		}
	}
}

func withPrompter(p prompter) AnthropicOption {
	return func(a *Anthropic) {
		a.prompt = p
	}
}

// NewAnthropic creates an Anthropic backend.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewAnthropic(apiKey string, opts ...AnthropicOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	a := &Anthropic{model: DefaultAnthropicModel}
	for _, opt := range opts {
		opt(a)
	}
	if a.prompt == nil {
		a.prompt = func(system, user, schema string, settings types.RequestSettings) (string, error) {
			resp, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings)
			if err != nil {
				return "", err
			}
			if len(resp.Content) == 0 {
				return "", nil
			}
			return resp.Content[0].Text, nil
		}
	}
	return a, nil
}

// GenerateStructured uses llmkit's schema-constrained output.
func (a *Anthropic) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	schema := ""
	if req.Schema != nil {
		b, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		schema = string(b)
	}
	text, err := a.call(ctx, req.System, req.Prompt, schema, structuredMaxTokens(req.MaxTokens), req.Temperature)
	if err != nil {
		return nil, err
	}
	return finishStructured("anthropic", text)
}

// GenerateText requests a markdown completion.
func (a *Anthropic) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	text, err := a.call(ctx, req.System, req.Prompt, "", textMaxTokens(req.MaxTokens), req.Temperature)
	if err != nil {
		return "", err
	}
	return finishText("anthropic", text)
}

type promptResult struct {
	text string
	err  error
}

// call runs the blocking llmkit request so that ctx cancellation returns promptly.
// The request itself is not interrupted.
func (a *Anthropic) call(ctx context.Context, system, user, schema string, maxTokens int, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	settings := types.RequestSettings{
		Model:       a.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	done := make(chan promptResult, 1)
	go func() {
		text, err := a.prompt(system, user, schema, settings)
		done <- promptResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", classifyAnthropicError(res.err)
		}
		return res.text, nil
	}
}

// classifyAnthropicError maps llmkit errors to sentinel errors. llmkit reports
// failures as formatted messages, so classification matches on their content.
func classifyAnthropicError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate_limit"):
		return fmt.Errorf("anthropic: %v: %w", err, apierr.ErrRateLimit)
	case strings.Contains(msg, "529") || strings.Contains(msg, "overloaded"):
		return fmt.Errorf("anthropic: %v: %w", err, apierr.ErrTimeout)
	case strings.Contains(msg, "401") || strings.Contains(msg, "authentication"):
		return fmt.Errorf("anthropic: %v: %w", err, apierr.ErrAuthFailed)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return fmt.Errorf("anthropic: %v: %w", err, apierr.ErrTimeout)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		return fmt.Errorf("anthropic: %v: %w", err, apierr.ErrTimeout)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid_request"):
		return fmt.Errorf("anthropic: %v: %w", err, apierr.ErrBadRequest)
	}
	return fmt.Errorf("anthropic: %w", err)
}
