// Package textstat computes word, paragraph, list and quote metrics over
// markdown text and clips text to a word budget at sentence boundaries.
//
// All functions are pure and safe for concurrent use.
package textstat

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// Ellipsis is appended to text hard-cut mid-sentence.
const Ellipsis = "..."

var (
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)
	listLineRe  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	// lineMarkerRe matches leading blockquote and list markers, possibly nested ("> - item").
	lineMarkerRe = regexp.MustCompile(`^[ \t]*(?:(?:>|[-*+]|\d+[.)])[ \t]*)+`)
	// quoteRe matches a quoted span of 20 to 200 characters on a single line.
	quoteRe = regexp.MustCompile(`"[^"\n]{20,200}"|“[^”\n]{20,200}”`)
)

// CountWords returns the number of whitespace-separated tokens in text.
// Empty and whitespace-only text has zero words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ParagraphCount returns the number of non-empty blocks separated by blank lines,
// ignoring leading blockquote and list markers on each line.
func ParagraphCount(text string) int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	count := 0
	for _, block := range blankLineRe.Split(text, -1) {
		if blockHasText(block) {
			count++
		}
	}
	return count
}

func blockHasText(block string) bool {
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(lineMarkerRe.ReplaceAllString(line, "")) != "" {
			return true
		}
	}
	return false
}

// HasBulletedList reports whether any line starts with "-", "*" or "+" followed by whitespace.
func HasBulletedList(text string) bool {
	return listLineRe.MatchString(text)
}

// ListItemCount returns the number of bulleted list lines.
func ListItemCount(text string) int {
	return len(listLineRe.FindAllStringIndex(text, -1))
}

// CountQuotes counts single-line quoted spans of 20-200 characters using straight or curly quotes.
func CountQuotes(text string) int {
	return len(quoteRe.FindAllStringIndex(text, -1))
}

// ReadingTime returns the reading time in whole minutes, rounded up.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// TrimToMaxWords clips text to at most maxWords words, preferring a sentence
// boundary at least 60% of the way through the clipped text.
func TrimToMaxWords(text string, maxWords int) string {
	return ClipWords(text, maxWords, 0.6)
}

// ClipWords clips text to at most maxWords words. When the text is longer, the
// cut lands on the last sentence end located at or beyond minFrac of the
// clipped length. Without such a boundary the text is hard-cut and Ellipsis is
// attached to the final word, so the result never exceeds maxWords words.
// Text already within the limit is returned trimmed of surrounding space.
func ClipWords(text string, maxWords int, minFrac float64) string {
	if maxWords <= 0 {
		return ""
	}
	end, n := wordEnd(text, maxWords)
	if n <= maxWords {
		return strings.TrimSpace(text)
	}

	cut := strings.TrimSpace(text[:end])
	floor := int(float64(len(cut)) * minFrac)
	for i := len(cut) - 1; i >= floor && i >= 0; i-- {
		if isSentenceEnd(cut, i) {
			return strings.TrimSpace(cut[:closeQuoteEnd(cut, i)])
		}
	}
	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsPunct(r) && r != '"' && r != ')'
	}) + Ellipsis
}

// wordEnd returns the byte offset just after the k-th word and the number of
// words seen, which is k+1 when the text holds more than k words.
func wordEnd(text string, k int) (end, count int) {
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord && count == k {
				end = i
			}
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			count++
			if count > k {
				return end, count
			}
		}
	}
	if inWord && count == k {
		end = len(text)
	}
	return end, count
}

func isSentenceEnd(s string, i int) bool {
	switch s[i] {
	case '.', '!', '?':
	default:
		return false
	}
	j := closeQuoteEnd(s, i)
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return unicode.IsSpace(r)
}

// closeQuoteEnd extends a sentence end at i over trailing closing quotes or brackets.
func closeQuoteEnd(s string, i int) int {
	j := i + 1
	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if r != '"' && r != '”' && r != '\'' && r != ')' {
			break
		}
		j += size
	}
	return j
}

// SplitSentences splits text into sentences ending in '.', '!' or '?', followed
// by whitespace. A trailing fragment without terminal punctuation is kept.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isSentenceEnd(text, i) {
			continue
		}
		j := closeQuoteEnd(text, i)
		if s := strings.TrimSpace(text[start:j]); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// FirstWords returns the first n words of text joined by single spaces.
func FirstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// CutWords hard-cuts text to at most maxWords words, attaching Ellipsis when
// anything was removed. Unlike ClipWords it never backs off to a sentence end.
func CutWords(text string, maxWords int) string {
	return ClipWords(text, maxWords, 1.1)
}
