// Package server exposes the timeline engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/crimson-sun/cronica/internal/engine"
	"github.com/crimson-sun/cronica/internal/metrics"
	"github.com/crimson-sun/cronica/internal/source"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	maxBodyBytes        = 8 << 20 // 8MB
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithSessionLoader enables GET /v1/sessions/{id}/timeline.
func WithSessionLoader(l source.SessionLoader) Option {
	return func(s *Server) { s.loader = l }
}

// WithAllowedOrigins sets the CORS origins. Default: none (same-origin only).
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithTimeouts sets the HTTP read and write timeouts. Zero keeps the default.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
	}
}

// Server serves timeline reports built by a shared engine.
type Server struct {
	engine       *engine.Engine
	loader       source.SessionLoader
	metrics      *metrics.Collector
	logger       *slog.Logger
	origins      []string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New creates a Server around eng.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:       eng,
		logger:       slog.Default(),
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/timeline", s.timeline)
		r.Post("/timeline/groups", s.sessionGroups)
		r.Get("/taxonomy", s.taxonomy)
		if s.loader != nil {
			r.Get("/sessions/{sessionID}/timeline", s.sessionTimeline)
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
