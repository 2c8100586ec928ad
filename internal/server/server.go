// Package server exposes the diagnostic pipeline and case queries over
// HTTP, plus a websocket endpoint that streams stage progress.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/medpilot/medpilot/internal/audit"
	"github.com/medpilot/medpilot/internal/workflow"
)

// Options configures the HTTP surface.
type Options struct {
	Port            int
	AllowAllOrigins bool
}

// Server wires the orchestrator and queries into an HTTP API.
type Server struct {
	deps    workflow.Deps
	cfg     workflow.Config
	queries *workflow.Queries
	httpSrv *http.Server
}

// New builds a server. auditStore may be nil to disable the audit API.
func New(deps workflow.Deps, cfg workflow.Config, queries *workflow.Queries, auditStore *audit.Store, opts Options) *Server {
	s := &Server{deps: deps, cfg: cfg, queries: queries}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	if opts.AllowAllOrigins {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/diagnose", s.handleDiagnose)
	r.Get("/api/diagnose/ws", s.handleDiagnoseWS)

	r.Route("/api/cases", func(r chi.Router) {
		r.Get("/similar", s.handleSimilar)
		r.Get("/comorbidities", s.handleComorbidities)
		r.Get("/statistics", s.handleStatistics)
		r.Post("/{id}/validate", s.handleValidate)
	})

	if auditStore != nil {
		audit.RegisterRoutes(r, auditStore)
	}

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}
