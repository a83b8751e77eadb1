package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alnah/go-vidblog/internal/apierr"
	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/store"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// Request bounds enforced before the pipeline runs.
const (
	MinTranscriptChars = 50
	MinTargetWords     = 100
	MaxTargetWords     = 5000
	DefaultAlpha       = 0.7
	DefaultTargetWords = 1000
)

// ErrInvalidRequest indicates a request body that fails boundary validation.
var ErrInvalidRequest = errors.New("invalid request")

// GenerateRequest is the JSON body of the generate endpoints.
// Missing alpha and target_words take DefaultAlpha and DefaultTargetWords.
type GenerateRequest struct {
	Transcript  string   `json:"transcript"`
	Alpha       *float64 `json:"alpha,omitempty"`
	TargetWords *int     `json:"target_words,omitempty"`
	VideoURL    string   `json:"video_url,omitempty"`
	Language    string   `json:"language,omitempty"`
}

// GenerateResponse is the JSON body returned by POST /api/generate.
type GenerateResponse struct {
	ID   string        `json:"id,omitempty"`
	Post blog.BlogPost `json:"post"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Store  bool   `json:"store"`
}

// ToRequest validates r at the HTTP boundary and converts it for the pipeline.
func (r GenerateRequest) ToRequest() (blog.Request, error) {
	transcript := strings.TrimSpace(r.Transcript)
	if n := utf8.RuneCountInString(transcript); n < MinTranscriptChars {
		return blog.Request{}, fmt.Errorf("transcript must be at least %d characters, got %d: %w",
			MinTranscriptChars, n, ErrInvalidRequest)
	}

	alpha := DefaultAlpha
	if r.Alpha != nil {
		alpha = *r.Alpha
	}
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return blog.Request{}, fmt.Errorf("alpha must be between 0 and 1, got %v: %w", alpha, ErrInvalidRequest)
	}

	target := DefaultTargetWords
	if r.TargetWords != nil {
		target = *r.TargetWords
	}
	if target < MinTargetWords || target > MaxTargetWords {
		return blog.Request{}, fmt.Errorf("target_words must be between %d and %d, got %d: %w",
			MinTargetWords, MaxTargetWords, target, ErrInvalidRequest)
	}

	var language lang.Language
	if r.Language != "" {
		l, err := lang.Parse(r.Language)
		if err != nil {
			return blog.Request{}, fmt.Errorf("language: %v: %w", err, ErrInvalidRequest)
		}
		language = l
	}

	return blog.Request{
		Transcript:  transcript,
		Alpha:       alpha,
		TargetWords: target,
		VideoURL:    strings.TrimSpace(r.VideoURL),
		Language:    language,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Store:  s.posts != nil,
	})
}

func (s *Server) decodeGenerate(w http.ResponseWriter, r *http.Request) (blog.Request, bool) {
	var body GenerateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode body: %v: %w", err, ErrInvalidRequest))
		return blog.Request{}, false
	}
	req, err := body.ToRequest()
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return blog.Request{}, false
	}
	return req, true
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerate(w, r)
	if !ok {
		return
	}

	post, err := s.gen.Stream(r.Context(), req, nil)
	if err != nil {
		s.respondError(w, r, statusFor(err), err)
		return
	}

	id := s.save(r.Context(), post, req.VideoURL)
	if id != "" {
		w.Header().Set("Location", "/api/posts/"+id)
	}
	s.respondJSON(w, http.StatusOK, GenerateResponse{ID: id, Post: post})
}

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerate(w, r)
	if !ok {
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	post, err := s.gen.Stream(r.Context(), req, func(ev blog.Event) {
		if ev.Step == blog.StepComplete || ev.Step == blog.StepError {
			return
		}
		if err := sse.send(EventProgress, progressPayload{Step: ev.Step, Progress: ev.Progress, Details: ev.Details}); err != nil {
			s.log.Debug().Err(err).Msg("sse write failed")
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.log.Info().Str("request_id", middleware.GetReqID(r.Context())).Msg("client went away during generation")
		}
		_ = sse.send(EventError, errorPayload{Step: blog.StepError, Error: err.Error(), Status: statusFor(err)})
		return
	}

	id := s.save(r.Context(), post, req.VideoURL)
	_ = sse.send(EventComplete, completePayload{Step: blog.StepComplete, Progress: 100, ID: id, Result: &post})
}

// save stores post when a store is configured and returns its ID, or "".
// Storage failures are logged and never fail the request.
func (s *Server) save(ctx context.Context, post blog.BlogPost, videoURL string) string {
	if s.posts == nil {
		return ""
	}
	var opts []store.SaveOption
	if s.metadata != nil && youtube.IsYouTubeURL(videoURL) {
		meta, err := s.metadata.FetchMetadata(ctx, videoURL)
		if err != nil {
			s.log.Warn().Err(err).Str("video_url", videoURL).Msg("video metadata lookup failed")
		} else if meta.Title != "" {
			opts = append(opts, store.WithVideoTitle(meta.Title))
		}
	}
	id, path, err := s.posts.Save(post, opts...)
	if err != nil {
		s.log.Error().Err(err).Msg("save post failed")
		return ""
	}
	s.log.Info().Str("id", id).Str("path", path).Int("words", post.WordCount).Msg("post saved")
	return id
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if s.posts == nil {
		s.respondError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	records, err := s.posts.List()
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]store.FrontMatter, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.FrontMatter)
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	if s.posts == nil {
		s.respondError(w, r, http.StatusNotFound, store.ErrNotFound)
		return
	}
	rec, err := s.posts.Load(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, statusFor(err), err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// statusFor maps pipeline, backend and store errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, blog.ErrEmptyTranscript),
		errors.Is(err, blog.ErrInvalidAlpha),
		errors.Is(err, blog.ErrInvalidTarget),
		errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, blog.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apierr.ErrRateLimit), errors.Is(err, apierr.ErrQuotaExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, apierr.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, apierr.ErrAuthFailed),
		errors.Is(err, apierr.ErrBadRequest),
		errors.Is(err, apierr.ErrEmptyResponse),
		errors.Is(err, apierr.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	s.respondJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())})
}
