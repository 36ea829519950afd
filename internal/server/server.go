// Package server provides the HTTP API for the Sentinel context engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/config"
	"github.com/codeflow/sentinel/internal/patterns"
	"github.com/codeflow/sentinel/internal/retriever"
	"github.com/codeflow/sentinel/internal/synth"
)

// Server is the HTTP server for the context API.
type Server struct {
	synthesizer *synth.Synthesizer
	retriever   *retriever.Retriever
	patterns    patterns.Source
	cfg         *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies. source may be nil.
func NewServer(
	synthesizer *synth.Synthesizer,
	r *retriever.Retriever,
	source patterns.Source,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		synthesizer: synthesizer,
		retriever:   r,
		patterns:    source,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/context", s.handleContext)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/feedback", s.handleFeedback)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
