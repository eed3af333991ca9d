// Package server provides the HTTP server for the StarkCAD workspace: the
// REST API, the state WebSocket, the camera preview stream and the web UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/server/api"
)

// Config holds the server configuration. App is required.
type Config struct {
	StaticDir string
	App       *app.App
	// Preview is optional; without it /api/stream is not registered.
	Preview PreviewSource
}

// Server is the HTTP front end of the workspace.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *StateHub
	start  time.Time

	mu      sync.Mutex
	httpSrv *http.Server
	closed  bool
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		session := api.NewSessionHandler(a)
		s.mux.Handle("/api/state", session)
		s.mux.Handle("/api/tool", session)
		s.mux.Handle("/api/selection", session)
		s.mux.Handle("/api/tracking", session)

		s.mux.Handle("/api/command", api.NewCommandHandler(a))

		docs := api.NewDocumentHandler(a)
		s.mux.Handle("/api/document", docs)
		s.mux.Handle("/api/document/", docs)

		s.hub = NewStateHub(a, a.Metrics())
		s.mux.Handle("/api/ws", s.hub)

		if m := a.Metrics(); m != nil {
			s.mux.Handle("/metrics", m.Handler())
		}
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["tracking"] = a.Tracking()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the state broadcaster and serves on addr until
// Shutdown is called. After Shutdown it returns nil without serving.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpSrv = srv
	if s.hub != nil {
		s.hub.Start()
	}
	s.mu.Unlock()

	log.Printf("server: listening on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes WebSocket clients and waits
// for in-flight requests until ctx expires. A later ListenAndServe does not
// serve.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpSrv
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Stop()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
