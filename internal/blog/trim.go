package blog

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/textstat"
)

// Global pass limits.
const (
	shrinkPasses      = 2
	expandIterations  = 2
	minTolerance      = 50
	overshootAbort    = 1.3
	expandWeightBase  = 1.5
	expandClipFactor  = 1.1
	shrinkBoundaryMin = 0.6
)

// Tolerance is the global length slack: max(50, 10% of target).
func Tolerance(target int) int {
	return max(minTolerance, target/10)
}

// TotalWords sums the section word counts.
func TotalWords(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += s.ActualWords
	}
	return total
}

// ShrinkSections trims sections toward target when their total exceeds it.
// Sections are processed longest first and each is cut by at most half of the
// remaining overage. The first pass never cuts a section below
// max(MinWords, min(ActualWords, TargetWords)); the second pass may go down to
// MinWords. No section ever grows. It returns the number of passes that trimmed.
func ShrinkSections(sections []Section, target int) int {
	passes := 0
	for pass := 0; pass < shrinkPasses; pass++ {
		over := TotalWords(sections) - target
		if over <= 0 {
			break
		}

		order := make([]int, len(sections))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return sections[order[a]].ActualWords > sections[order[b]].ActualWords
		})

		trimmed := false
		for _, i := range order {
			if over <= 0 {
				break
			}
			s := &sections[i]
			floor := s.MinWords
			if pass == 0 {
				floor = max(s.MinWords, min(s.ActualWords, s.TargetWords))
			}
			room := s.ActualWords - floor
			if room <= 0 {
				continue
			}
			trimBy := min(room, (over+1)/2)
			keep := s.ActualWords - trimBy

			clipped := textstat.ClipWords(s.Content, keep, shrinkBoundaryMin)
			if textstat.CountWords(clipped) < floor {
				clipped = textstat.CutWords(s.Content, keep)
			}
			before := s.ActualWords
			s.SetContent(clipped)
			over -= before - s.ActualWords
			trimmed = true
		}
		if trimmed {
			passes++
		}
	}
	return passes
}

// expandShares distributes shortfall across sections, weighting shorter
// sections more: w_i = 1.5 - actual_i/total, normalized so the shares sum to
// about shortfall.
func expandShares(sections []Section, shortfall int) []int {
	out := make([]int, len(sections))
	if len(sections) == 0 || shortfall <= 0 {
		return out
	}
	total := TotalWords(sections)
	weights := make([]float64, len(sections))
	sum := 0.0
	for i, s := range sections {
		share := 1.0 / float64(len(sections))
		if total > 0 {
			share = float64(s.ActualWords) / float64(total)
		}
		weights[i] = expandWeightBase - share
		sum += weights[i]
	}
	for i, w := range weights {
		out[i] = int(math.Ceil(float64(shortfall) * w / sum))
	}
	return out
}

// expandPass appends generated material while the total falls short of target
// by more than the tolerance. Backend failures end the pass without failing the
// run; only cancellation is returned. onSection is called before each call.
func expandPass(ctx context.Context, e *expander, sections []Section, target int, log zerolog.Logger, onSection func(iter, i int)) error {
	tol := Tolerance(target)
	limit := int(math.Ceil(float64(target) * overshootAbort))

	for iter := 0; iter < expandIterations; iter++ {
		shortfall := target - TotalWords(sections)
		if shortfall <= tol {
			return nil
		}
		before := TotalWords(sections)
		shares := expandShares(sections, shortfall)
		for i := range sections {
			if err := ctx.Err(); err != nil {
				return err
			}
			if shares[i] <= 0 {
				continue
			}
			if onSection != nil {
				onSection(iter, i)
			}
			s := &sections[i]
			slice := transcriptSlice(e.transcript, s.Heading, nil, iter+1)
			more, err := e.backend.GenerateText(ctx, llm.TextRequest{
				System:      e.system,
				Prompt:      expandPassPrompt(*s, shares[i], slice),
				MaxTokens:   tokenBudget(shares[i]),
				Temperature: temperature(e.alpha),
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("section", s.Heading).Msg("expand pass call failed, stopping")
				return nil
			}
			addLimit := int(math.Ceil(float64(shares[i]) * expandClipFactor))
			s.SetContent(joinBody(s.Content, textstat.TrimToMaxWords(cleanBody(more), addLimit)))
			if TotalWords(sections) > limit {
				log.Info().Int("total", TotalWords(sections)).Int("limit", limit).Msg("expand pass overshoot, aborting")
				return nil
			}
		}
		log.Info().Int("before", before).Int("after", TotalWords(sections)).Int("iteration", iter+1).Msg("expand pass")
	}
	return nil
}
