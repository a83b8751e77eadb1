package blog

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "also": true, "because": true,
	"been": true, "before": true, "being": true, "between": true, "both": true, "could": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true, "even": true,
	"every": true, "from": true, "going": true, "gonna": true, "have": true, "having": true,
	"here": true, "into": true, "just": true, "know": true, "like": true, "make": true,
	"many": true, "more": true, "most": true, "much": true, "need": true, "only": true,
	"other": true, "over": true, "really": true, "right": true, "said": true, "same": true,
	"should": true, "some": true, "something": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "then": true, "there": true, "these": true, "they": true,
	"thing": true, "things": true, "think": true, "this": true, "those": true, "through": true,
	"very": true, "want": true, "well": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true, "would": true,
	"yeah": true, "your": true, "okay": true, "actually": true, "basically": true, "part": true,
	"introduction": true, "conclusion": true, "section": true, "main": true, "discussion": true,
}

// tokenize returns lowercase word tokens stripped of surrounding punctuation.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isKeyword(tok string) bool {
	return len([]rune(tok)) >= 4 && !stopwords[tok]
}

// keywordSet returns the distinct keywords of the given texts.
func keywordSet(texts ...string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range texts {
		for _, tok := range tokenize(t) {
			if isKeyword(tok) {
				set[tok] = true
			}
		}
	}
	return set
}

// topKeywords returns up to n keywords ranked by frequency, ties by first occurrence.
func topKeywords(text string, n int) []string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, tok := range tokenize(text) {
		if !isKeyword(tok) {
			continue
		}
		if _, ok := first[tok]; !ok {
			first[tok] = i
		}
		counts[tok]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return first[words[i]] < first[words[j]]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
