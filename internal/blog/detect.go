package blog

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/textstat"
)

// Natural section detection bounds.
const (
	detectPrefixChars  = 6000
	minNaturalSections = 2
	maxNaturalSections = 8
)

var sectionsSchema = llm.Object(map[string]*llm.Schema{
	"sections": llm.StringArray("ordered section titles", minNaturalSections, maxNaturalSections),
})

// DetectSections asks the backend for the transcript's natural topic titles.
// Any backend failure, malformed output or a count outside 2-8 falls back to
// FallbackSections. The only error returned is context cancellation.
func DetectSections(ctx context.Context, backend llm.Backend, transcript, system string, log zerolog.Logger) ([]string, error) {
	raw, err := backend.GenerateStructured(ctx, llm.StructuredRequest{
		System:      system,
		Prompt:      detectPrompt(prefix(transcript, detectPrefixChars)),
		Schema:      sectionsSchema,
		MaxTokens:   400,
		Temperature: 0.2,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Msg("section detection failed, using fallback")
		return FallbackSections(transcript), nil
	}

	titles, err := decodeSections(raw)
	if err != nil {
		log.Warn().Err(err).Msg("section detection returned malformed output, using fallback")
		return FallbackSections(transcript), nil
	}
	if len(titles) < minNaturalSections || len(titles) > maxNaturalSections {
		log.Warn().Int("count", len(titles)).Msg("section detection count out of range, using fallback")
		return FallbackSections(transcript), nil
	}
	return titles, nil
}

// decodeSections accepts {"sections": [...]} or a bare array of titles.
func decodeSections(raw json.RawMessage) ([]string, error) {
	var titles []string
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		if err := llm.Decode(raw, &titles); err != nil {
			return nil, err
		}
	} else {
		var out struct {
			Sections []string `json:"sections"`
		}
		if err := llm.Decode(raw, &out); err != nil {
			return nil, err
		}
		titles = out.Sections
	}
	return cleanTitles(titles), nil
}

// titleMarkerRe matches heading, numbering and bullet prefixes ("## ", "2. ", "- ").
var titleMarkerRe = regexp.MustCompile(`^\s*(?:#+|\d+[.)]|[-*+])\s+`)

func cleanTitles(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(titleMarkerRe.ReplaceAllString(t, ""))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FallbackSections returns generic titles sized by transcript length:
// 2 below 500 words, 3 below 1500, 4 otherwise.
func FallbackSections(transcript string) []string {
	words := textstat.CountWords(transcript)
	switch {
	case words < 500:
		return []string{"Introduction", "Key Takeaways"}
	case words < 1500:
		return []string{"Introduction", "Main Discussion", "Conclusion"}
	default:
		return []string{"Introduction", "Core Ideas", "Practical Implications", "Conclusion"}
	}
}
