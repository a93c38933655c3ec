// Package server exposes the boundary engine over HTTP: autocomplete,
// query resolution, single-zip scores, and composite city/county scores.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/MeKo-Tech/affordmap/internal/score"
	"github.com/MeKo-Tech/affordmap/internal/search"
	"github.com/MeKo-Tech/affordmap/internal/store"
)

// Config configures the HTTP server.
type Config struct {
	Addr string
	// RateLimit is requests per minute per client IP (default 120).
	RateLimit int
	Logger    *slog.Logger
}

// Server wires the engine components behind a chi router.
type Server struct {
	cfg    Config
	loader *store.Loader
	index  *search.Index
	scores *score.Client
	http   *http.Server
}

// New creates the server.
func New(cfg Config, loader *store.Loader, index *search.Index, scores *score.Client) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 120
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{cfg: cfg, loader: loader, index: index, scores: scores}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/suggest", s.handleSuggest)
		r.Get("/resolve", s.handleResolve)
		r.Get("/score/{zip}", s.handleScore)
		r.Get("/similar/{zip}", s.handleSimilar)
		r.Get("/composite/{name}", s.handleComposite)
	})
	return r
}

// Handler exposes the router, used by httptest in tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs until the context is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
