package blog

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/textstat"
)

// Outline sizing.
const (
	wordsPerSection  = 130
	minSectionCount  = 2
	maxSectionCount  = 5
	minSectionFloor  = 40
	bandLowFactor    = 0.9
	bandHighFactor   = 1.05
	minBandWidth     = 8
	outlinePrefix    = 8000
	maxTags          = 8
	fallbackTagCount = 5
)

// PreferredSectionCount returns clamp(round(target/130), 2, 5).
func PreferredSectionCount(target int) int {
	n := int(math.Round(float64(target) / wordsPerSection))
	return min(max(n, minSectionCount), maxSectionCount)
}

// MergeSections combines adjacent titles until n remain. Each step merges the
// adjacent pair with the smallest combined title length, leftmost on ties.
// When len(titles) <= n the titles are returned unchanged.
func MergeSections(titles []string, n int) []string {
	out := append([]string(nil), titles...)
	if n < 1 {
		n = 1
	}
	for len(out) > n {
		best := 0
		bestLen := math.MaxInt
		for i := 0; i+1 < len(out); i++ {
			if l := len(out[i]) + len(out[i+1]); l < bestLen {
				best, bestLen = i, l
			}
		}
		merged := out[best] + " & " + out[best+1]
		out = append(out[:best+1], out[best+2:]...)
		out[best] = merged
	}
	return out
}

// SplitSections splits the longest title, first on ties, into "(Part 1)" and
// "(Part 2)" halves until n titles exist. When len(titles) >= n the titles are
// returned unchanged.
func SplitSections(titles []string, n int) []string {
	out := append([]string(nil), titles...)
	if len(out) == 0 {
		out = []string{"Overview"}
	}
	for len(out) < n {
		longest := 0
		for i := range out {
			if len(out[i]) > len(out[longest]) {
				longest = i
			}
		}
		base := out[longest]
		halves := []string{base + " (Part 1)", base + " (Part 2)"}
		out = append(out[:longest], append(halves, out[longest+1:]...)...)
	}
	return out
}

// AllocateWords splits total into n integer budgets summing exactly to total.
// The first total%n sections receive one extra word.
func AllocateWords(total, n int) []int {
	if n <= 0 {
		return nil
	}
	base := total / n
	remainder := total - base*n
	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < remainder {
			out[i]++
		}
	}
	return out
}

// SectionBand returns the acceptable [min, max] word band for a section target:
// min = max(40, floor(0.9t)), max = max(min+8, ceil(1.05t)). The 40-word floor
// never exceeds the target itself, so min <= target <= max always holds.
func SectionBand(target int) (minWords, maxWords int) {
	minWords = max(minSectionFloor, int(math.Floor(float64(target)*bandLowFactor)))
	if minWords > target {
		minWords = target
	}
	maxWords = max(minWords+minBandWidth, int(math.Ceil(float64(target)*bandHighFactor)))
	return minWords, maxWords
}

// PlanBudget decides the section count, fits the natural sections to it by
// merging or splitting, and computes exact per-section budgets.
func PlanBudget(natural []string, target int) SectionBudget {
	n := PreferredSectionCount(target)
	original := append([]string(nil), natural...)

	strategy := FitNatural
	final := original
	switch {
	case len(original) > n:
		strategy = FitMerge
		final = MergeSections(original, n)
	case len(original) < n:
		strategy = FitSplit
		final = SplitSections(original, n)
	}

	targets := AllocateWords(target, n)
	base := target / n
	lo, hi := SectionBand(base)
	return SectionBudget{
		SectionCount:       n,
		WordsPerSection:    base,
		MinWordsPerSection: lo,
		MaxWordsPerSection: hi,
		Strategy:           strategy,
		OriginalSections:   original,
		FinalSections:      final,
		Targets:            targets,
	}
}

// NormalizeOutline builds outline sections from natural titles and a total
// target. The section targets sum exactly to target.
func NormalizeOutline(natural []string, target int) []OutlineSection {
	return budgetSections(PlanBudget(natural, target))
}

func budgetSections(b SectionBudget) []OutlineSection {
	out := make([]OutlineSection, len(b.FinalSections))
	for i, heading := range b.FinalSections {
		lo, hi := SectionBand(b.Targets[i])
		out[i] = OutlineSection{
			Heading:     heading,
			TargetWords: b.Targets[i],
			MinWords:    lo,
			MaxWords:    hi,
		}
	}
	return out
}

var outlineSchema = llm.Object(map[string]*llm.Schema{
	"title":   llm.String("post title"),
	"excerpt": llm.String("one or two sentence summary"),
	"tags":    llm.StringArray("lowercase topic tags", 3, maxTags),
	"sections": {
		Type: llm.TypeArray,
		Items: llm.Object(map[string]*llm.Schema{
			"heading":    llm.String("section heading"),
			"key_points": llm.StringArray("points to cover", 1, 5),
		}),
	},
})

type outlineResponse struct {
	Title    string        `json:"title"`
	Excerpt  string        `json:"excerpt"`
	Tags     []string      `json:"tags"`
	Sections []outlineItem `json:"sections"`
}

type outlineItem struct {
	Heading   string   `json:"heading"`
	KeyPoints []string `json:"key_points"`
}

// buildOutline fills title, excerpt, tags and key points for the budgeted
// sections with one structured call, falling back to transcript heuristics.
// Budgets are never taken from the model. Only cancellation is returned as an error.
func buildOutline(ctx context.Context, backend llm.Backend, transcript, system string, budget SectionBudget, log zerolog.Logger) (Outline, error) {
	outline := Outline{Sections: budgetSections(budget)}
	headings := budget.FinalSections

	raw, err := backend.GenerateStructured(ctx, llm.StructuredRequest{
		System:      system,
		Prompt:      outlinePrompt(prefix(transcript, outlinePrefix), headings, budget.Targets),
		Schema:      outlineSchema,
		MaxTokens:   1200,
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
		log.Warn().Err(err).Msg("outline generation failed, using heuristic outline")
	}

	applyOutlineResponse(&outline, resp)
	fillOutlineFallbacks(&outline, transcript)
	return outline, nil
}

// applyOutlineResponse copies model metadata onto the outline. Model headings
// replace ours only when the section count matches.
func applyOutlineResponse(o *Outline, resp outlineResponse) {
	o.Title = strings.TrimSpace(resp.Title)
	o.Excerpt = strings.TrimSpace(resp.Excerpt)
	o.Tags = resp.Tags
	if len(resp.Sections) != len(o.Sections) {
		return
	}
	for i, s := range resp.Sections {
		if h := strings.TrimSpace(strings.TrimLeft(s.Heading, "# ")); h != "" {
			o.Sections[i].Heading = h
		}
		o.Sections[i].KeyPoints = cleanTitles(s.KeyPoints)
	}
}

func fillOutlineFallbacks(o *Outline, transcript string) {
	if o.Title == "" {
		o.Title = fallbackTitle(transcript)
	}
	if o.Excerpt == "" {
		o.Excerpt = fallbackExcerpt(transcript)
	}
	o.Tags = normalizeTags(o.Tags)
	if len(o.Tags) == 0 {
		o.Tags = normalizeTags(topKeywords(transcript, fallbackTagCount))
	}
	for i := range o.Sections {
		if len(o.Sections[i].KeyPoints) == 0 {
			o.Sections[i].KeyPoints = fallbackKeyPoints(o.Sections[i].Heading)
		}
	}
}

func fallbackTitle(transcript string) string {
	keys := topKeywords(transcript, 3)
	if len(keys) == 0 {
		return "Notes from the Video"
	}
	for i, k := range keys {
		r := []rune(k)
		keys[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(keys, ", ") + ": Notes from the Video"
}

func fallbackExcerpt(transcript string) string {
	sentences := textstat.SplitSentences(transcript)
	if len(sentences) == 0 {
		return ""
	}
	return textstat.TrimToMaxWords(sentences[0], 30)
}

// fallbackKeyPoints derives points from the heading's words, dropping part markers.
func fallbackKeyPoints(heading string) []string {
	h := heading
	if i := strings.Index(h, " (Part "); i != -1 {
		h = h[:i]
	}
	var points []string
	for _, part := range strings.Split(h, " & ") {
		if part = strings.TrimSpace(part); part != "" {
			points = append(points, part)
		}
	}
	return points
}

// normalizeTags lowercases, trims and dedupes tags, keeping at most maxTags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}
