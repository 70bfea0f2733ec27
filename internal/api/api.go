// Package api provides the HTTP JSON surface for AthenaPipe.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AthenaAdvising/AthenaPipe/internal/flow"
	"github.com/AthenaAdvising/AthenaPipe/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration for the API server.
type Opts struct {
	Addr       string
	CORSOrigin string
}

// Option configures API server construction.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithCORSOrigin sets the Access-Control-Allow-Origin header value. Empty
// disables CORS headers entirely.
func WithCORSOrigin(origin string) Option {
	return func(o *Opts) { o.CORSOrigin = origin }
}

// Server hosts the AthenaPipe REST API.
type Server struct {
	addr       string
	corsOrigin string
	router     *flow.Router
	store      store.Store
	httpServer *http.Server
}

// NewServer creates an API server over the conversation router and store.
func NewServer(router *flow.Router, st store.Store, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		addr:       cfg.Addr,
		corsOrigin: cfg.CORSOrigin,
		router:     router,
		store:      st,
	}
}

// Handler builds the route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("POST /student", s.studentHandler)
	mux.HandleFunc("GET /starters/{id}", s.startersHandler)
	mux.HandleFunc("GET /goals/{id}", s.goalsHandler)
	mux.HandleFunc("GET /topics/{id}", s.topicsHandler)
	mux.HandleFunc("GET /student_bio/{id}", s.studentBioHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Run starts the HTTP server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
