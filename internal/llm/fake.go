package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// CallKind distinguishes the two backend call shapes.
type CallKind int

// Call kinds recorded by Fake.
const (
	StructuredCall CallKind = iota + 1
	TextCall
)

// Call is a request observed by Fake.
type Call struct {
	Kind      CallKind
	System    string
	Prompt    string
	MaxTokens int
}

// Fake is a scriptable Backend for tests and offline runs.
//
// Each call first consumes the matching queue. When the queue is empty the
// responder func is used. Without either, text calls fail with
// apierr.ErrEmptyResponse and structured calls with apierr.ErrMalformedResponse.
// Responses go through the same fence stripping and validation as real providers.
type Fake struct {
	mu         sync.Mutex
	texts      []string
	structured []string
	onText     func(n int, req TextRequest) (string, error)
	onJSON     func(n int, req StructuredRequest) (string, error)
	calls      []Call
	nText      int
	nJSON      int
}

// Compile-time interface compliance check.
var _ Backend = (*Fake)(nil)

// NewFake returns an empty Fake.
func NewFake() *Fake { return &Fake{} }

// QueueText appends text responses consumed in order.
func (f *Fake) QueueText(texts ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, texts...)
	return f
}

// QueueStructured appends raw structured responses consumed in order.
func (f *Fake) QueueStructured(raw ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structured = append(f.structured, raw...)
	return f
}

// OnText sets the responder for text calls. n counts text calls from zero.
func (f *Fake) OnText(fn func(n int, req TextRequest) (string, error)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onText = fn
	return f
}

// OnStructured sets the responder for structured calls. n counts structured calls from zero.
func (f *Fake) OnStructured(fn func(n int, req StructuredRequest) (string, error)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onJSON = fn
	return f
}

// GenerateStructured implements Backend.
func (f *Fake) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	n := f.nJSON
	f.nJSON++
	f.calls = append(f.calls, Call{Kind: StructuredCall, System: req.System, Prompt: req.Prompt, MaxTokens: req.MaxTokens})
	var (
		out  string
		err  error
		have bool
	)
	if len(f.structured) > 0 {
		out, f.structured, have = f.structured[0], f.structured[1:], true
	}
	fn := f.onJSON
	f.mu.Unlock()

	switch {
	case have:
	case fn != nil:
		out, err = fn(n, req)
	default:
		return nil, apierr.ErrMalformedResponse
	}
	if err != nil {
		return nil, err
	}
	return finishStructured("fake", out)
}

// GenerateText implements Backend.
func (f *Fake) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	n := f.nText
	f.nText++
	f.calls = append(f.calls, Call{Kind: TextCall, System: req.System, Prompt: req.Prompt, MaxTokens: req.MaxTokens})
	var (
		out  string
		err  error
		have bool
	)
	if len(f.texts) > 0 {
		out, f.texts, have = f.texts[0], f.texts[1:], true
	}
	fn := f.onText
	f.mu.Unlock()

	if !have && fn != nil {
		out, err = fn(n, req)
	}
	if err != nil {
		return "", err
	}
	return finishText("fake", out)
}

// Calls returns a copy of all recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// TextCalls returns the number of text calls received.
func (f *Fake) TextCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nText
}

// StructuredCalls returns the number of structured calls received.
func (f *Fake) StructuredCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nJSON
}
