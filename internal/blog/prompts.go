package blog

import (
	"fmt"
	"strings"

	"github.com/alnah/go-vidblog/internal/lang"
)

const editorRole = "You are an editor who turns video transcripts into well-structured blog posts written in markdown."

// systemPrompt combines the editor role, the alpha style directive and the output language.
func systemPrompt(alpha float64, l lang.Language) string {
	parts := []string{editorRole, styleDirective(alpha)}
	if instr := l.Instruction(); instr != "" {
		parts = append(parts, instr)
	}
	return strings.Join(parts, "\n\n")
}

func detectPrompt(transcript string) string {
	return fmt.Sprintf(`Segment this transcript into %d to %d concise section titles that follow the speaker's own topic transitions, in order.
Return JSON: {"sections": ["Title", ...]}. Titles are short noun phrases without numbering.

Transcript:
"""
%s
"""`, minNaturalSections, maxNaturalSections, transcript)
}

func outlinePrompt(transcript string, headings []string, targets []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a blog post built from this transcript with exactly %d sections, in this order:\n", len(headings))
	for i, h := range headings {
		fmt.Fprintf(&b, "%d. %s (~%d words)\n", i+1, h, targets[i])
	}
	b.WriteString(`
Return JSON with:
- "title": a specific, engaging post title
- "excerpt": one or two sentences summarizing the post
- "tags": 3 to 8 lowercase topic tags
- "sections": one entry per section above, same order, each {"heading": "...", "key_points": ["...", ...]} with 2 to 5 key points taken from the transcript

Transcript:
"""
`)
	b.WriteString(transcript)
	b.WriteString("\n\"\"\"")
	return b.String()
}

// formatRules lists the shape requirements of a section as prompt bullet lines.
func formatRules(shape Shape, quotes int) []string {
	var rules []string
	if shape.Paragraphs.Min == shape.Paragraphs.Max {
		rules = append(rules, fmt.Sprintf("exactly %d paragraph(s) separated by blank lines", shape.Paragraphs.Min))
	} else {
		rules = append(rules, fmt.Sprintf("%d to %d paragraphs separated by blank lines", shape.Paragraphs.Min, shape.Paragraphs.Max))
	}
	switch {
	case shape.RequireList:
		rules = append(rules, fmt.Sprintf("a bulleted list of %d to %d items using \"- \"", shape.ListItems.Min, shape.ListItems.Max))
	case shape.ListItems.Max > 0:
		rules = append(rules, fmt.Sprintf("optionally a short bulleted list of up to %d items", shape.ListItems.Max))
	default:
		rules = append(rules, "no lists")
	}
	if quotes > 0 {
		rules = append(rules, fmt.Sprintf("%d short direct quote(s) from the transcript in double quotes", quotes))
	}
	return rules
}

type sectionSpec struct {
	title     string
	section   OutlineSection
	shape     Shape
	quotes    int
	ceiling   int
	slice     string
	remaining []string // headings of other sections, to avoid overlap
}

func sectionPrompt(s sectionSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the body of the section %q for the blog post %q.\n\n", s.section.Heading, s.title)
	fmt.Fprintf(&b, "Length: about %d words, between %d and %d, and never more than %d words.\n",
		s.section.TargetWords, s.section.MinWords, s.section.MaxWords, s.ceiling)
	b.WriteString("Format:\n")
	for _, r := range formatRules(s.shape, s.quotes) {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("- do not write the section heading\n")
	writeKeyPoints(&b, s.section.KeyPoints)
	if len(s.remaining) > 0 {
		fmt.Fprintf(&b, "\nOther sections cover: %s. Do not repeat their material.\n", strings.Join(s.remaining, "; "))
	}
	writeExcerpt(&b, s.slice)
	return b.String()
}

// continuationPrompt asks for material to append, naming each unmet requirement.
func continuationPrompt(sec Section, unmet []string, addWords int, slice string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The section %q currently reads:\n\"\"\"\n%s\n\"\"\"\n\n", sec.Heading, sec.Content)
	b.WriteString("It does not yet meet these requirements:\n")
	for _, u := range unmet {
		fmt.Fprintf(&b, "- %s\n", u)
	}
	fmt.Fprintf(&b, "\nWrite only the new text to append, about %d words. Do not repeat existing text or write a heading.\n", addWords)
	writeExcerpt(&b, slice)
	return b.String()
}

// rewritePrompt asks for a full replacement when the length is right but the shape is not.
func rewritePrompt(sec Section, shape Shape, quotes int, unmet []string, slice string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the section %q so it meets every requirement while keeping about %d words (never more than %d).\n\n",
		sec.Heading, sec.TargetWords, sec.MaxWords)
	fmt.Fprintf(&b, "Current text:\n\"\"\"\n%s\n\"\"\"\n\nUnmet requirements:\n", sec.Content)
	for _, u := range unmet {
		fmt.Fprintf(&b, "- %s\n", u)
	}
	b.WriteString("\nRequired format:\n")
	for _, r := range formatRules(shape, quotes) {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("Return the complete section body without a heading.\n")
	writeExcerpt(&b, slice)
	return b.String()
}

func forceExpandPrompt(sec Section, shortfall int, slice string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The section %q is %d words short. Write exactly %d more words of new detail to append at its end.\n",
		sec.Heading, shortfall, shortfall)
	fmt.Fprintf(&b, "Existing text:\n\"\"\"\n%s\n\"\"\"\n\nWrite only the new paragraph(s), no heading.\n", sec.Content)
	writeExcerpt(&b, slice)
	return b.String()
}

func expandPassPrompt(sec Section, words int, slice string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extend the section %q with about %d additional words of new, concrete detail from the transcript.\n",
		sec.Heading, words)
	fmt.Fprintf(&b, "Existing text:\n\"\"\"\n%s\n\"\"\"\n\nWrite only the text to append, no heading.\n", sec.Content)
	writeExcerpt(&b, slice)
	return b.String()
}

func longOutlinePrompt(transcript string, sections int) string {
	return fmt.Sprintf(`Plan a blog post from this long transcript with exactly %d sections of about %d words each.
Return JSON with "title", "excerpt", "tags" (3 to 8 lowercase tags) and "sections": [{"heading": "...", "key_points": ["..."]}].

Transcript (beginning):
"""
%s
"""`, sections, longSectionWords, transcript)
}

func longSectionPrompt(title string, sec OutlineSection, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the body of the section %q for the blog post %q in about %d words. Do not write the heading.\n",
		sec.Heading, title, sec.TargetWords)
	writeKeyPoints(&b, sec.KeyPoints)
	b.WriteString("\nSource transcript:\n\"\"\"\n")
	b.WriteString(source)
	b.WriteString("\n\"\"\"")
	return b.String()
}

func writeKeyPoints(b *strings.Builder, points []string) {
	if len(points) == 0 {
		return
	}
	b.WriteString("\nKey points to cover:\n")
	for _, p := range points {
		fmt.Fprintf(b, "- %s\n", p)
	}
}

func writeExcerpt(b *strings.Builder, slice string) {
	if slice == "" {
		return
	}
	b.WriteString("\nTranscript excerpt:\n\"\"\"\n")
	b.WriteString(slice)
	b.WriteString("\n\"\"\"")
}
