package blog

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/textstat"
)

// Expander limits.
const (
	DefaultMaxRetries = 6
	ceilingFactor     = 1.05
	tokensPerWord     = 1.5
	tokenSlack        = 32
	minContinuation   = 20
)

// expandState enumerates the section expander states.
type expandState int

const (
	stateGenerating expandState = iota
	stateChecking
	stateRetrying
	stateForceExpand
	stateDone
)

func (s expandState) String() string {
	switch s {
	case stateGenerating:
		return "generating"
	case stateChecking:
		return "checking"
	case stateRetrying:
		return "retrying"
	case stateForceExpand:
		return "force_expand"
	default:
		return "done"
	}
}

// sectionHooks receives expander transitions for progress reporting.
type sectionHooks struct {
	retry func(attempt int, check ValidationCheck)
	force func(shortfall int)
}

// expander drives one section through the generate/check/retry machine.
// It holds no per-section state and may expand several sections in turn.
type expander struct {
	backend    llm.Backend
	transcript string
	title      string
	system     string
	alpha      float64
	maxRetries int
	headings   []string
	log        zerolog.Logger
}

// sectionCeiling is the hard word limit applied after each generation.
func sectionCeiling(target int) int {
	return int(math.Ceil(float64(target) * ceilingFactor))
}

// tokenBudget bounds a call producing about words words.
func tokenBudget(words int) int {
	return int(math.Ceil(float64(words)*tokensPerWord)) + tokenSlack
}

// CheckSection evaluates content against its band and the shape for that band.
func CheckSection(s Section, alpha float64) ValidationCheck {
	shape := SectionShape(s.MinWords, s.MaxWords)
	c := ValidationCheck{
		WordCount:          s.ActualWords,
		ParagraphCount:     textstat.ParagraphCount(s.Content),
		HasList:            textstat.HasBulletedList(s.Content),
		QuoteCount:         textstat.CountQuotes(s.Content),
		RequiredParagraphs: shape.Paragraphs.Min,
		WithinMax:          s.ActualWords <= s.MaxWords,
	}
	c.OK = c.WordCount >= s.MinWords &&
		c.WithinMax &&
		c.ParagraphCount >= c.RequiredParagraphs &&
		(!shape.RequireList || c.HasList) &&
		(!requiresQuotes(alpha) || c.QuoteCount >= 1)
	return c
}

// unmetRequirements describes each failed criterion of c for a retry prompt.
func unmetRequirements(s Section, c ValidationCheck, alpha float64) []string {
	shape := SectionShape(s.MinWords, s.MaxWords)
	var out []string
	if short := s.MinWords - c.WordCount; short > 0 {
		out = append(out, fmt.Sprintf("it has %d words and needs at least %d more (target %d, never above %d)",
			c.WordCount, s.TargetWords-c.WordCount, s.TargetWords, sectionCeiling(s.TargetWords)))
	}
	if !c.WithinMax {
		out = append(out, fmt.Sprintf("it has %d words, above the maximum of %d", c.WordCount, s.MaxWords))
	}
	if c.ParagraphCount < c.RequiredParagraphs {
		out = append(out, fmt.Sprintf("it has %d paragraph(s) and needs at least %d, separated by blank lines",
			c.ParagraphCount, c.RequiredParagraphs))
	}
	if shape.RequireList && !c.HasList {
		out = append(out, fmt.Sprintf("it needs a bulleted list of %d to %d items", shape.ListItems.Min, shape.ListItems.Max))
	}
	if requiresQuotes(alpha) && c.QuoteCount < 1 {
		out = append(out, "it needs at least one direct quote from the transcript in double quotes")
	}
	return out
}

// headingLineRe matches markdown heading lines the model may emit despite instructions.
var headingLineRe = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t].*$\n?`)

// cleanBody removes heading lines and surrounding whitespace from model output.
func cleanBody(text string) string {
	return strings.TrimSpace(headingLineRe.ReplaceAllString(text, ""))
}

// joinBody appends addition to body as a new paragraph.
func joinBody(body, addition string) string {
	addition = cleanBody(addition)
	switch {
	case addition == "":
		return body
	case body == "":
		return addition
	default:
		return body + "\n\n" + addition
	}
}

func (e *expander) spec(sec OutlineSection, slice string) sectionSpec {
	others := make([]string, 0, len(e.headings))
	for _, h := range e.headings {
		if h != sec.Heading {
			others = append(others, h)
		}
	}
	return sectionSpec{
		title:     e.title,
		section:   sec,
		shape:     SectionShape(sec.MinWords, sec.MaxWords),
		quotes:    e.quotes(),
		ceiling:   sectionCeiling(sec.TargetWords),
		slice:     slice,
		remaining: others,
	}
}

func (e *expander) quotes() int {
	if requiresQuotes(e.alpha) {
		return quoteBudget(e.alpha)
	}
	return 0
}

func (e *expander) text(ctx context.Context, prompt string, words int) (string, error) {
	return e.backend.GenerateText(ctx, llm.TextRequest{
		System:      e.system,
		Prompt:      prompt,
		MaxTokens:   tokenBudget(words),
		Temperature: temperature(e.alpha),
	})
}

// draft performs the GENERATING call for a section. It has no dependency on
// other sections, so drafts may run concurrently.
func (e *expander) draft(ctx context.Context, sec OutlineSection) (string, error) {
	slice := transcriptSlice(e.transcript, sec.Heading, sec.KeyPoints, 0)
	ceiling := sectionCeiling(sec.TargetWords)
	out, err := e.text(ctx, sectionPrompt(e.spec(sec, slice)), ceiling)
	if err != nil {
		return "", fmt.Errorf("generate section %q: %w", sec.Heading, err)
	}
	return out, nil
}

// expand runs the state machine for one section. If first is non-empty it is
// used as the GENERATING output instead of calling the backend. The machine
// makes at most 1 + maxRetries + 1 backend calls and always terminates with
// ActualWords >= MinWords.
func (e *expander) expand(ctx context.Context, sec OutlineSection, first string, hooks sectionHooks) (Section, error) {
	s := newSection(sec)
	ceiling := sectionCeiling(sec.TargetWords)
	shape := SectionShape(sec.MinWords, sec.MaxWords)
	log := e.log.With().Str("section", sec.Heading).Logger()

	var check ValidationCheck
	attempt := 0
	state := stateGenerating

	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return Section{}, err
		}
		switch state {
		case stateGenerating:
			body := first
			if body == "" {
				var err error
				if body, err = e.draft(ctx, sec); err != nil {
					return Section{}, err
				}
			}
			s.SetContent(textstat.TrimToMaxWords(cleanBody(body), ceiling))
			state = stateChecking

		case stateChecking:
			check = CheckSection(s, e.alpha)
			switch {
			case check.OK:
				state = stateDone
			case attempt < e.maxRetries:
				state = stateRetrying
			case s.ActualWords < s.MinWords:
				state = stateForceExpand
			default:
				state = stateDone
			}

		case stateRetrying:
			attempt++
			if hooks.retry != nil {
				hooks.retry(attempt, check)
			}
			log.Debug().
				Int("attempt", attempt).
				Int("wc", check.WordCount).
				Int("pc", check.ParagraphCount).
				Bool("has_list", check.HasList).
				Int("qc", check.QuoteCount).
				Msg("section retry")

			slice := transcriptSlice(e.transcript, sec.Heading, sec.KeyPoints, slicePhase(attempt))
			unmet := unmetRequirements(s, check, e.alpha)
			if short := s.TargetWords - s.ActualWords; s.ActualWords < s.MinWords {
				add := max(short, minContinuation)
				more, err := e.text(ctx, continuationPrompt(s, unmet, add, slice), add)
				if err != nil {
					return Section{}, fmt.Errorf("continue section %q: %w", sec.Heading, err)
				}
				s.SetContent(textstat.TrimToMaxWords(joinBody(s.Content, more), ceiling))
			} else {
				rewritten, err := e.text(ctx, rewritePrompt(s, shape, e.quotes(), unmet, slice), ceiling)
				if err != nil {
					return Section{}, fmt.Errorf("rewrite section %q: %w", sec.Heading, err)
				}
				// A rewrite that loses length keeps the previous text.
				if cand := textstat.TrimToMaxWords(cleanBody(rewritten), ceiling); textstat.CountWords(cand) >= s.MinWords {
					s.SetContent(cand)
				}
			}
			state = stateChecking

		case stateForceExpand:
			shortfall := s.MinWords - s.ActualWords
			if hooks.force != nil {
				hooks.force(shortfall)
			}
			log.Info().Int("shortfall", shortfall).Int("wc", s.ActualWords).Msg("section force expand")

			slice := transcriptSlice(e.transcript, sec.Heading, sec.KeyPoints, slicePhase(attempt+1))
			more, err := e.text(ctx, forceExpandPrompt(s, shortfall, slice), shortfall)
			if err != nil {
				return Section{}, fmt.Errorf("force expand section %q: %w", sec.Heading, err)
			}
			s.SetContent(joinBody(s.Content, more))
			if s.ActualWords < s.MinWords {
				topUp(&s, e.transcript, sec)
				log.Warn().Int("wc", s.ActualWords).Msg("section topped up from transcript")
			}
			state = stateDone
		}
	}
	return s, nil
}

// topUp appends transcript sentences related to the section until it reaches
// MinWords, then cuts it to MaxWords if the last sentence overshot.
func topUp(s *Section, transcript string, sec OutlineSection) {
	sentences := textstat.SplitSentences(transcriptSlice(transcript, sec.Heading, sec.KeyPoints, 0))
	if len(sentences) == 0 {
		sentences = []string{fmt.Sprintf("This section covers %s.", sec.Heading)}
	}

	var extra []string
	words := s.ActualWords
	for i := 0; words < s.MinWords; i++ {
		sentence := sentences[i%len(sentences)]
		extra = append(extra, sentence)
		words += textstat.CountWords(sentence)
	}
	s.SetContent(joinBody(s.Content, strings.Join(extra, " ")))
	if s.ActualWords > s.MaxWords {
		s.SetContent(textstat.CutWords(s.Content, s.MaxWords))
	}
}
