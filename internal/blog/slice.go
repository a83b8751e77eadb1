package blog

import (
	"strings"

	"github.com/alnah/go-vidblog/internal/textstat"
)

// Transcript slicing bounds.
const (
	sliceMaxChars  = 2000
	sliceMinChars  = 400
	rotationPhases = 3
)

// slicePhase maps a retry attempt to a rotation phase. Attempts up to 2 keep
// the first slice; later attempts rotate through the other phases.
func slicePhase(attempt int) int {
	if attempt <= 2 {
		return 0
	}
	return (attempt - 2) % rotationPhases
}

// transcriptSlice selects transcript material relevant to a section: sentences
// sharing a keyword with the heading or key points, bounded to sliceMaxChars.
// The phase rotates where the selection starts. A slice thinner than
// sliceMinChars is replaced by a window starting at 0, 1/3 or 2/3 of the
// transcript depending on phase.
func transcriptSlice(transcript, heading string, keyPoints []string, phase int) string {
	keys := keywordSet(append([]string{heading}, keyPoints...)...)
	sentences := textstat.SplitSentences(transcript)

	var matched []string
	for _, s := range sentences {
		for _, tok := range tokenize(s) {
			if keys[tok] {
				matched = append(matched, s)
				break
			}
		}
	}

	var b strings.Builder
	if len(matched) > 0 {
		start := (phase * len(matched) / rotationPhases) % len(matched)
		for i := range matched {
			s := matched[(start+i)%len(matched)]
			if b.Len()+len(s)+1 > sliceMaxChars {
				break
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s)
		}
	}
	if b.Len() >= sliceMinChars {
		return b.String()
	}
	return transcriptWindow(transcript, phase)
}

// transcriptWindow returns sliceMaxChars of transcript starting at the phase offset.
func transcriptWindow(transcript string, phase int) string {
	text := strings.Join(strings.Fields(transcript), " ")
	offset := len(text) * (phase % rotationPhases) / rotationPhases
	if offset > 0 {
		// Start on a word boundary.
		if i := strings.IndexByte(text[offset:], ' '); i != -1 {
			offset += i + 1
		} else {
			offset = 0
		}
	}
	return prefix(text[offset:], sliceMaxChars)
}
