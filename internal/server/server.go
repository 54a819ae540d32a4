// Package server exposes tech tree sessions over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics (when configured)
//	POST   /sessions
//	DELETE /sessions/{id}
//	GET    /sessions/{id}/snapshot?width=&height=&format=
//	POST   /sessions/{id}/toggle/{node}
//	POST   /sessions/{id}/reset
//	GET    /sessions/{id}/nodes/{node}/tooltip
//
// Errors are JSON objects {"code", "message"} with the status derived from
// the error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/pipeline"
	"github.com/matzehuels/techtree/pkg/session"
)

// maxBodyBytes bounds request bodies, which carry at most one tree.
const maxBodyBytes = 4 << 20

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// DefaultTree is used by POST /sessions when the request has no tree.
	DefaultTree *graph.Tree
	// CleanupInterval is how often expired sessions are swept.
	CleanupInterval time.Duration
	// Metrics, if set, is served at GET /metrics.
	Metrics http.Handler
}

// Server serves the session API.
type Server struct {
	cfg    Config
	store  *session.MemoryStore
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New wires the routes. The runner's cache backs layouts and rendered
// snapshots across sessions of the same tree.
func New(cfg Config, store *session.MemoryStore, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		runner: runner,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDelete)
			r.Get("/snapshot", s.handleSnapshot)
			r.Post("/toggle/{node}", s.handleToggle)
			r.Post("/reset", s.handleReset)
			r.Get("/nodes/{node}/tooltip", s.handleTooltip)
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then shuts down gracefully. The session
// janitor runs alongside and stops with the server.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.store.RunJanitor(gctx, s.cfg.CleanupInterval, func(n int) {
			s.logger.Debug("expired sessions removed", "count", n)
		})
		return nil
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
