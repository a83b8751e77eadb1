// Package llm defines the text-generation capability used by the blog
// pipeline and its provider implementations.
//
// Providers perform exactly one network attempt per call and classify
// failures into apierr sentinels. Network retry is layered on with WithRetry.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// ErrEmptyAPIKey indicates that the API key was not provided.
var ErrEmptyAPIKey = errors.New("API key is required")

// StructuredRequest asks the backend for a JSON object matching Schema.
type StructuredRequest struct {
	System      string
	Prompt      string
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// TextRequest asks the backend for free-form markdown.
type TextRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Backend is the generation capability consumed by the pipeline.
type Backend interface {
	// GenerateStructured returns a JSON value. Malformed output yields apierr.ErrMalformedResponse.
	GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
	// GenerateText returns markdown. Whitespace-only output yields apierr.ErrEmptyResponse.
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// Default token budgets when a request leaves MaxTokens unset.
const (
	defaultStructuredMaxTokens = 2048
	defaultTextMaxTokens       = 2048
)

func structuredMaxTokens(n int) int {
	if n <= 0 {
		return defaultStructuredMaxTokens
	}
	return n
}

func textMaxTokens(n int) int {
	if n <= 0 {
		return defaultTextMaxTokens
	}
	return n
}

// finishText validates a completion, stripping an enclosing markdown fence.
func finishText(provider, text string) (string, error) {
	text = stripFence(text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", provider, apierr.ErrEmptyResponse)
	}
	return text, nil
}

// finishStructured extracts and validates the JSON value in a completion.
func finishStructured(provider, text string) (json.RawMessage, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}
	return raw, nil
}

// structuredSystem appends the schema to the system prompt for providers
// without native schema enforcement.
func structuredSystem(req StructuredRequest) string {
	var b strings.Builder
	b.WriteString(req.System)
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON object and nothing else.")
	if req.Schema != nil {
		if schema, err := json.Marshal(req.Schema); err == nil {
			b.WriteString(" It must match this JSON schema:\n")
			b.Write(schema)
		}
	}
	return b.String()
}
