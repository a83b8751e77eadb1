// Package server exposes blog generation over HTTP with JSON and server-sent events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/store"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// Defaults.
const (
	DefaultRequestTimeout = 10 * time.Minute
	DefaultShutdownGrace  = 30 * time.Second
	maxBodyBytes          = 2 << 20
)

// Generator runs the blog pipeline. *blog.Generator implements it.
type Generator interface {
	Stream(ctx context.Context, req blog.Request, emit func(blog.Event)) (blog.BlogPost, error)
}

// PostStore persists finished posts. *store.FileStore implements it.
type PostStore interface {
	Save(post blog.BlogPost, opts ...store.SaveOption) (string, string, error)
	Load(id string) (store.Record, error)
	List() ([]store.Record, error)
}

// MetadataFetcher looks up video titles. *youtube.MetadataFetcher implements it.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, videoURL string) (youtube.Metadata, error)
}

// Compile-time interface compliance checks.
var (
	_ Generator       = (*blog.Generator)(nil)
	_ PostStore       = (*store.FileStore)(nil)
	_ MetadataFetcher = (*youtube.MetadataFetcher)(nil)
)

// Server routes HTTP requests to the generator and the post store.
type Server struct {
	router   *chi.Mux
	gen      Generator
	posts    PostStore
	metadata MetadataFetcher
	log      zerolog.Logger
	limiter  *ipLimiter
	timeout  time.Duration
	started  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithStore enables saving generated posts and the /api/posts routes.
func WithStore(p PostStore) Option {
	return func(s *Server) { s.posts = p }
}

// WithMetadata enables video title lookup for saved posts.
func WithMetadata(m MetadataFetcher) Option {
	return func(s *Server) { s.metadata = m }
}

// WithRateLimit allows perMinute generate requests per client IP with the given burst.
// perMinute <= 0 disables limiting.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *Server) {
		if perMinute <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = newIPLimiter(perMinute, burst, time.Now)
	}
}

// WithRequestTimeout bounds each request, generation included.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a server around gen.
func New(gen Generator, opts ...Option) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		gen:     gen,
		log:     zerolog.Nop(),
		timeout: DefaultRequestTimeout,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.timeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/generate", s.handleGenerate)
			r.Post("/generate/stream", s.handleGenerateStream)
		})
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.handleListPosts)
			r.Get("/{id}", s.handleGetPost)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request with zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
