package blog_test

import (
	"fmt"
	"strings"
)

// words returns n words grouped into ten-word sentences.
func words(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "word%d", i)
		if i%10 == 0 || i == n {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// transcriptOf builds a transcript of n sentences about a few recurring topics.
func transcriptOf(n int) string {
	topics := []string{
		"Caching keeps hot data close to the service that reads it.",
		"Latency budgets decide how much work each request may do.",
		"Monitoring shows where the latency budget actually goes.",
		"Capacity planning starts from the traffic you already observe.",
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = topics[i%len(topics)]
	}
	return strings.Join(parts, " ")
}
