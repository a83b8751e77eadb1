package blog

import (
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/textstat"
)

// Request is the input to a pipeline run.
type Request struct {
	Transcript  string
	Alpha       float64 // 0 verbatim, <0.5 extractive, >=0.5 creative
	TargetWords int
	VideoURL    string // copied to BlogPost.Sources
	Language    lang.Language
}

// Outline is the normalized plan for a post.
type Outline struct {
	Title    string
	Excerpt  string
	Sections []OutlineSection
	Tags     []string
}

// TotalTarget returns the sum of section targets.
func (o Outline) TotalTarget() int {
	total := 0
	for _, s := range o.Sections {
		total += s.TargetWords
	}
	return total
}

// OutlineSection is one budget entry of an Outline.
// MinWords <= TargetWords <= MaxWords always holds.
type OutlineSection struct {
	Heading     string
	TargetWords int
	MinWords    int
	MaxWords    int
	KeyPoints   []string
}

// Section is a generated section body, without its heading line.
// ActualWords always reflects Content; mutate through SetContent.
type Section struct {
	Heading     string
	Content     string
	TargetWords int
	MinWords    int
	MaxWords    int
	ActualWords int
}

func newSection(o OutlineSection) Section {
	return Section{
		Heading:     o.Heading,
		TargetWords: o.TargetWords,
		MinWords:    o.MinWords,
		MaxWords:    o.MaxWords,
	}
}

// SetContent replaces the body and recounts its words.
func (s *Section) SetContent(content string) {
	s.Content = content
	s.ActualWords = textstat.CountWords(content)
}

// BlogPost is the final artifact. WordCount and ReadingTimeMinutes derive from Content.
type BlogPost struct {
	Title              string   `json:"title"`
	Excerpt            string   `json:"excerpt"`
	Content            string   `json:"content"`
	Tags               []string `json:"tags"`
	Headings           []string `json:"headings"`
	WordCount          int      `json:"word_count"`
	ReadingTimeMinutes int      `json:"reading_time_minutes"`
	Sources            []string `json:"sources"`
}

// FitStrategy records how natural sections were fitted to the section count.
type FitStrategy int

// Fit strategies.
const (
	FitNatural FitStrategy = iota
	FitMerge
	FitSplit
)

// String returns the lowercase strategy name.
func (f FitStrategy) String() string {
	switch f {
	case FitMerge:
		return "merge"
	case FitSplit:
		return "split"
	default:
		return "natural"
	}
}

// SectionBudget is the size-fitting decision for a request.
type SectionBudget struct {
	SectionCount       int
	WordsPerSection    int
	MinWordsPerSection int
	MaxWordsPerSection int
	Strategy           FitStrategy
	OriginalSections   []string
	FinalSections      []string
	Targets            []int // exact per-section targets summing to the request total
}

// ValidationCheck is the result of evaluating one section against its band and shape.
type ValidationCheck struct {
	WordCount          int
	ParagraphCount     int
	HasList            bool
	QuoteCount         int
	RequiredParagraphs int
	WithinMax          bool
	OK                 bool
}
