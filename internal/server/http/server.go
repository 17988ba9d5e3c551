// Package httpserver provides the HTTP REST API for the related-work
// retrieval service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/retrieval"
	"github.com/helixir/related-work-service/internal/storage"
)

// Retriever runs the priority merge for one query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, maxResults int, enabled []domain.SourceTier) (*retrieval.Result, error)
}

// Materializer downloads PDFs for merged papers.
type Materializer interface {
	Materialize(ctx context.Context, papers []*domain.Paper) *retrieval.MaterializeResult
}

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	store        *storage.Store
	retriever    Retriever
	materializer Materializer
	validate     *validator.Validate
	defaultMax   int
	logger       zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// DefaultMaxResults applies when a retrieve request omits max_results.
	DefaultMaxResults int
}

// NewServer creates a new HTTP server with all dependencies. materializer
// may be nil when PDF downloading is not wired.
func NewServer(
	cfg Config,
	store *storage.Store,
	retriever Retriever,
	materializer Materializer,
	logger zerolog.Logger,
) *Server {
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = 20
	}
	s := &Server{
		store:        store,
		retriever:    retriever,
		materializer: materializer,
		validate:     validator.New(),
		defaultMax:   cfg.DefaultMaxResults,
		logger:       logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/retrieve", s.retrieveHandler)
		r.Get("/papers", s.listPapersHandler)
		r.Get("/papers/{paperID}", s.getPaperHandler)
		r.Get("/stats", s.statsHandler)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status. The store is the only
// dependency worth probing: both tiers must be scannable.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Stats(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
