package blog

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-vidblog/internal/llm"
)

// Long-transcript strategy bounds.
const (
	DefaultLongThreshold = 12000
	longChunkChars       = 8000
	longOutlinePrefix    = 15000
	longSectionWords     = 150
	longContextChunks    = 3
)

// LongSectionCount returns ceil(target/150), at least 1.
func LongSectionCount(target int) int {
	return max(1, int(math.Ceil(float64(target)/longSectionWords)))
}

// placeholder replaces a long-form section whose generation failed.
func placeholder(heading string) string {
	return fmt.Sprintf("This section covers %s. Additional detail was unavailable when this post was generated.", heading)
}

// fitTitles merges or splits titles to exactly n entries.
func fitTitles(titles []string, n int) []string {
	return SplitSections(MergeSections(titles, n), n)
}

// longOutline plans n evenly budgeted sections from the transcript prefix in
// one structured call. Missing or malformed output keeps fallback headings.
func (g *Generator) longOutline(ctx context.Context, transcript, system string, target int) (Outline, error) {
	n := LongSectionCount(target)
	outline := Outline{Sections: budgetSections(SectionBudget{
		FinalSections: fitTitles(FallbackSections(transcript), n),
		Targets:       AllocateWords(target, n),
	})}

	raw, err := g.backend.GenerateStructured(ctx, llm.StructuredRequest{
		System:      system,
		Prompt:      longOutlinePrompt(prefix(transcript, longOutlinePrefix), n),
		Schema:      outlineSchema,
		MaxTokens:   max(1200, 80*n),
		Temperature: 0.3,
	})
	var resp outlineResponse
	if err == nil {
		err = llm.Decode(raw, &resp)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outline{}, ctxErr
		}
		g.log.Warn().Err(err).Msg("long outline generation failed, using heuristic outline")
	}

	// Positional fit: extra model sections are dropped, missing ones keep fallback headings.
	items := make([]outlineItem, n)
	copy(items, resp.Sections)
	resp.Sections = items
	applyOutlineResponse(&outline, resp)
	fillOutlineFallbacks(&outline, transcript)
	return outline, nil
}

// runLong generates each section once against the first chunks of the
// transcript. Section failures degrade to a placeholder; only cancellation aborts.
func (g *Generator) runLong(ctx context.Context, req Request, system string, p *progress) (BlogPost, error) {
	chunks := ChunkTranscript(req.Transcript, longChunkChars)
	g.log.Info().Int("chars", len(req.Transcript)).Int("chunks", len(chunks)).Msg("long transcript strategy")
	p.send(StepAnalysisStart, pctAnalysis, fmt.Sprintf("long transcript split into %d chunks", len(chunks)))

	p.send(StepOutlineStart, pctOutlineStart, "")
	outline, err := g.longOutline(ctx, req.Transcript, system, req.TargetWords)
	if err != nil {
		return BlogPost{}, err
	}
	n := len(outline.Sections)
	p.send(StepOutlineComplete, pctOutlineComplete, fmt.Sprintf("%d sections", n))

	source := strings.Join(chunks[:min(longContextChunks, len(chunks))], "\n\n")
	sections := make([]Section, n)
	var done atomic.Int32

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(max(1, g.parallel))
	for i, sec := range outline.Sections {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.send(StepSectionStart, sectionProgress(i, n, 0), sec.Heading)

			s := newSection(sec)
			text, err := g.backend.GenerateText(gctx, llm.TextRequest{
				System:      system,
				Prompt:      longSectionPrompt(outline.Title, sec, source),
				MaxTokens:   tokenBudget(sectionCeiling(sec.TargetWords)),
				Temperature: temperature(req.Alpha),
			})
			body := cleanBody(text)
			if err != nil || body == "" {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				g.log.Warn().Err(err).Str("section", sec.Heading).Msg("long section failed, using placeholder")
				body = placeholder(sec.Heading)
			}
			s.SetContent(body)
			sections[i] = s

			p.send(StepSectionComplete, sectionProgress(int(done.Add(1)), n, 0),
				fmt.Sprintf("%s (%d words)", sec.Heading, s.ActualWords))
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return BlogPost{}, err
	}

	p.send(StepAssembling, pctAssembling, "")
	post := Assemble(outline, sections, req.VideoURL)
	p.send(StepLengthCheck, pctLengthCheck, fmt.Sprintf("%d of %d words", post.WordCount, req.TargetWords))
	return post, nil
}
