// Package server provides the HTTP server for the gestpipe API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/events"
	"github.com/ayusman/gestpipe/internal/server/api"
	"github.com/ayusman/gestpipe/internal/store"
)

// PipelineStatus is the live recognizer snapshot served at /api/pipeline.
type PipelineStatus struct {
	Enabled bool          `json:"enabled"`
	State   string        `json:"state"`
	Last    *events.Event `json:"last,omitempty"`
}

// Pipeline is the part of the running app the API can observe and toggle.
type Pipeline interface {
	Status() PipelineStatus
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Every field is optional; routes
// whose dependency is missing are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Artifacts *classifier.Cache
	Practice  *api.PracticeConfig
	Hub       *events.Hub
	Pipeline  Pipeline
	// Quiet disables the request logger.
	Quiet bool
}

// Server represents the HTTP server for the gestpipe application.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	if !s.config.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Store != nil {
		r.Route("/api/templates", api.NewTemplateHandler(s.config.Store).Routes)
		r.Route("/api/actions", api.NewActionHandler(s.config.Store).Routes)
		r.Get("/api/events", api.NewEventHandler(s.config.Store).ServeHTTP)
	}

	if s.config.Practice != nil && s.config.Practice.Evaluator != nil {
		r.Route("/api/practice", api.NewPracticeHandler(*s.config.Practice).Routes)
	}

	if s.config.Artifacts != nil {
		r.Route("/api/classifier", api.NewClassifierHandler(s.config.Artifacts).Routes)
	}

	if s.config.Hub != nil {
		r.Handle("/api/events/ws", s.config.Hub)
	}

	if s.config.Pipeline != nil {
		r.Get("/api/pipeline", s.handlePipeline)
		r.Put("/api/pipeline", s.handleSetPipeline)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["ws_clients"] = s.config.Hub.Clients()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Pipeline.Status())
}

// handleSetPipeline handles PUT /api/pipeline with {"enabled": bool}.
func (s *Server) handleSetPipeline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
		return
	}
	s.config.Pipeline.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, s.config.Pipeline.Status())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to 10 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
