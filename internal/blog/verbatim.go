package blog

import (
	"regexp"
	"strings"

	"github.com/alnah/go-vidblog/internal/textstat"
)

// Verbatim mode constants.
const (
	verbatimSentencesPerParagraph = 5
	verbatimBoundaryMin           = 0.8
	verbatimTitle                 = "Transcript"
)

var (
	verbatimTags     = []string{"transcript", "verbatim", "raw"}
	paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n`)
)

// Verbatim returns the cleaned transcript as a post without any backend call.
// Text substantially over the target (beyond the tolerance) is cut at the last
// sentence end in the final 20% of the cut, else hard-cut with an ellipsis.
func Verbatim(req Request) BlogPost {
	content := CleanTranscript(req.Transcript)
	if req.TargetWords > 0 && textstat.CountWords(content) > req.TargetWords+Tolerance(req.TargetWords) {
		content = textstat.ClipWords(content, req.TargetWords, verbatimBoundaryMin)
	}
	return newPost(verbatimTitle, fallbackExcerpt(content), content, append([]string(nil), verbatimTags...), req.VideoURL)
}

// CleanTranscript normalizes whitespace and paragraphs. Existing blank-line
// paragraphs are kept. A single block is regrouped into paragraphs of five sentences.
func CleanTranscript(transcript string) string {
	transcript = strings.ReplaceAll(transcript, "\r\n", "\n")
	var paras []string
	for _, block := range paragraphBreakRe.Split(transcript, -1) {
		if p := strings.Join(strings.Fields(block), " "); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) != 1 {
		return strings.Join(paras, "\n\n")
	}

	sentences := textstat.SplitSentences(paras[0])
	var grouped []string
	for i := 0; i < len(sentences); i += verbatimSentencesPerParagraph {
		end := min(i+verbatimSentencesPerParagraph, len(sentences))
		grouped = append(grouped, strings.Join(sentences[i:end], " "))
	}
	return strings.Join(grouped, "\n\n")
}
