package blog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/llm"
)

// Test-only exports for internal helpers.
var (
	SlicePhase       = slicePhase
	TranscriptSlice  = transcriptSlice
	ExpandShares     = expandShares
	SectionCeiling   = sectionCeiling
	TokenBudget      = tokenBudget
	QuoteBudget      = quoteBudget
	RequiresQuotes   = requiresQuotes
	FitTitles        = fitTitles
	Placeholder      = placeholder
	LongChunkChars   = longChunkChars
	SliceMaxChars    = sliceMaxChars
	UnmetRequirement = unmetRequirements
)

// ExpandResult reports what the section state machine did.
type ExpandResult struct {
	Section Section
	Retries int
	Forced  int
}

// ExpandSection runs the section state machine once against backend.
func ExpandSection(ctx context.Context, backend llm.Backend, transcript string, sec OutlineSection, alpha float64, maxRetries int) (ExpandResult, error) {
	e := &expander{
		backend:    backend,
		transcript: transcript,
		title:      "Test Post",
		system:     systemPrompt(alpha, lang.Language{}),
		alpha:      alpha,
		maxRetries: maxRetries,
		headings:   []string{sec.Heading},
		log:        zerolog.Nop(),
	}
	var res ExpandResult
	s, err := e.expand(ctx, sec, "", sectionHooks{
		retry: func(int, ValidationCheck) { res.Retries++ },
		force: func(int) { res.Forced++ },
	})
	res.Section = s
	return res, err
}

// ExpandPass runs the global expansion pass with a balanced-style expander.
func ExpandPass(ctx context.Context, backend llm.Backend, transcript string, sections []Section, target int) error {
	e := &expander{
		backend:    backend,
		transcript: transcript,
		system:     systemPrompt(0.7, lang.Language{}),
		alpha:      0.7,
		log:        zerolog.Nop(),
	}
	return expandPass(ctx, e, sections, target, zerolog.Nop(), nil)
}
