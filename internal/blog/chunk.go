package blog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// prefix returns at most n bytes of text, cut back to a whitespace boundary
// when one exists in the second half of the window.
func prefix(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if i := strings.LastIndexFunc(text[:cut], unicode.IsSpace); i > n/2 {
		cut = i
	}
	return strings.TrimSpace(text[:cut])
}

// ChunkTranscript splits text into consecutive pieces of at most size bytes,
// backing off to whitespace so words stay whole. Concatenated with single
// spaces the chunks reproduce the words of text in order.
func ChunkTranscript(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	var chunks []string
	for len(text) > 0 {
		if len(text) <= size {
			chunks = append(chunks, text)
			break
		}
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if i := strings.LastIndexFunc(text[:cut], unicode.IsSpace); i > size/2 {
			cut = i
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
