package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// stripFence removes a markdown code fence enclosing the whole text,
// such as "```markdown ... ```" or "```json ... ```".
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	nl := strings.IndexByte(t, '\n')
	if nl == -1 {
		return t
	}
	body := t[nl+1:]
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// ExtractJSON returns the JSON value in a model completion. It tolerates code
// fences and prose around the first object or array. Anything else yields
// apierr.ErrMalformedResponse.
func ExtractJSON(text string) (json.RawMessage, error) {
	t := stripFence(text)
	if t == "" {
		return nil, fmt.Errorf("no JSON in response: %w", apierr.ErrMalformedResponse)
	}
	if json.Valid([]byte(t)) {
		return json.RawMessage(t), nil
	}

	start := strings.IndexAny(t, "{[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON in response: %w", apierr.ErrMalformedResponse)
	}
	closer := byte('}')
	if t[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(t, closer)
	if end <= start {
		return nil, fmt.Errorf("unterminated JSON in response: %w", apierr.ErrMalformedResponse)
	}
	candidate := t[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("invalid JSON in response: %w", apierr.ErrMalformedResponse)
	}
	return json.RawMessage(candidate), nil
}

// Decode unmarshals a structured response into v, wrapping failures as malformed.
func Decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode structured response: %v: %w", err, apierr.ErrMalformedResponse)
	}
	return nil
}
