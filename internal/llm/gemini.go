package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models we call.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Compile-time interface compliance check.
var _ Backend = (*Gemini)(nil)

// Gemini generates text with the Gemini API. Structured calls use the
// native response schema support.
type Gemini struct {
	models contentGenerator
	model  string
}

// GeminiOption configures a Gemini backend.
type GeminiOption func(*Gemini)

// WithGeminiModel sets the model name.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

func withContentGenerator(c contentGenerator) GeminiOption {
	return func(g *Gemini) {
		g.models = c
	}
}

// NewGemini creates a Gemini backend.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	g := &Gemini{model: DefaultGeminiModel}
	for _, opt := range opts {
		opt(g)
	}
	if g.models == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		g.models = client.Models
	}
	return g, nil
}

// GenerateStructured returns JSON constrained by the request schema.
func (g *Gemini) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	cfg := g.config(req.System, structuredMaxTokens(req.MaxTokens), req.Temperature)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = req.Schema.toGenai()

	text, err := g.generate(ctx, req.Prompt, cfg)
	if err != nil {
		return nil, err
	}
	return finishStructured("gemini", text)
}

// GenerateText requests a markdown completion.
func (g *Gemini) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	text, err := g.generate(ctx, req.Prompt, g.config(req.System, textMaxTokens(req.MaxTokens), req.Temperature))
	if err != nil {
		return "", err
	}
	return finishText("gemini", text)
}

func (g *Gemini) config(system string, maxTokens int, temperature float64) *genai.GenerateContentConfig {
	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(maxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func (g *Gemini) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: nil response: %w", apierr.ErrEmptyResponse)
	}
	return resp.Text(), nil
}

// classifyGeminiError maps Gemini API errors to sentinel errors.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: %w", apierr.ClassifyHTTPStatus(apiErr.Code, apiErr.Message))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fmt.Errorf("gemini: %w", apierr.ClassifyHTTPStatus(apiErrPtr.Code, apiErrPtr.Message))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini: request timed out: %w", apierr.ErrTimeout)
	}
	return fmt.Errorf("gemini: %w", err)
}
