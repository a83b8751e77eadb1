package llm

import "google.golang.org/genai"

// Test seams re-exported for the llm_test package.
var (
	WithChatCompleter    = withChatCompleter
	WithContentGenerator = withContentGenerator
	WithPrompter         = withPrompter
	StripFence           = stripFence
)

// ToGenai exposes the Gemini schema conversion.
func (s *Schema) ToGenai() *genai.Schema { return s.toGenai() }
