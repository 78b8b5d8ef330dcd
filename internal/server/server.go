// Package server exposes the preview service over HTTP.
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
	"github.com/satishbabariya/querycraft/internal/adapters/telemetry"
	"github.com/satishbabariya/querycraft/internal/core/recipe"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/satishbabariya/querycraft/internal/service"
)

// MaxBodyBytes bounds request bodies, inline rows included.
const MaxBodyBytes = 4 << 20

// ShutdownTimeout bounds the graceful stop in Run.
const ShutdownTimeout = 5 * time.Second

// Snapshotter is implemented by telemetry backends that can report their
// counters.
type Snapshotter interface {
	Snapshot() telemetry.Snapshot
}

// Server serves the preview API.
type Server struct {
	previews *service.PreviewService
	recipes  *recipe.Catalog
	metrics  Snapshotter
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m on GET /v1/metrics.
func WithMetrics(m Snapshotter) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds the router. recipes may be nil, which disables the recipe
// routes' content but keeps them mounted.
func New(previews *service.PreviewService, recipes *recipe.Catalog, opts ...Option) *Server {
	s := &Server{previews: previews, recipes: recipes}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/compile", s.compile)
		r.Post("/explain", s.explain)
		r.Post("/lint", s.lint)
		r.Post("/execute", s.execute)
		r.Post("/preview", s.preview)
		r.Post("/where/parse", s.parseConditions)

		r.Get("/recipes", s.listRecipes)
		r.Get("/recipes/{id}", s.getRecipe)
		r.Post("/recipes/{id}/expand", s.expandRecipe)

		r.Get("/tables", s.tables)
		r.Get("/metrics", s.metricsSnapshot)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		debug.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	start := time.Now()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	debug.Info("HTTP server stopped", "shutdown_duration", time.Since(start).String())
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		debug.Debug("HTTP request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
