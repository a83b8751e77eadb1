package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alnah/go-vidblog/internal/blog"
)

// SSE event names.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

type progressPayload struct {
	Step     blog.Step `json:"step"`
	Progress int       `json:"progress"`
	Details  string    `json:"details,omitempty"`
}

type completePayload struct {
	Step     blog.Step      `json:"step"`
	Progress int            `json:"progress"`
	ID       string         `json:"id,omitempty"`
	Result   *blog.BlogPost `json:"result"`
}

type errorPayload struct {
	Step   blog.Step `json:"step"`
	Error  string    `json:"error"`
	Status int       `json:"status"`
}

// sseWriter frames JSON payloads as server-sent events and flushes each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &sseWriter{w: w, flusher: f}, nil
}

func (s *sseWriter) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
