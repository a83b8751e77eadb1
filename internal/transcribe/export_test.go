package transcribe

import "time"

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestTranscriber creates an OpenAITranscriber with a mock audioTranscriber
// and millisecond retry delays.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t, _ := NewOpenAITranscriber("test-api-key",
		append([]TranscriberOption{withAudioTranscriber(client), WithRetryDelays(time.Millisecond, time.Millisecond)}, opts...)...)
	return t
}

// WithRunner injects the command runner.
var WithRunner = withRunner

// Function exports for unit testing internal logic.
var ClassifyError = classifyError
