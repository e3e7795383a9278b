// Package server exposes pipeline status, the event journal and a live
// event websocket over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/airpointer/internal/store"
)

// Limits for GET /api/events.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// Toggle switches detection on and off.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Routes backed by a nil field are
// not registered.
type Config struct {
	Store  *store.Store
	Hub    *Hub
	Toggle Toggle
	Logger *slog.Logger
}

// Server is the local status API.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		s.mux.HandleFunc("/api/events", s.handleEvents)
		s.mux.HandleFunc("/api/sessions", s.handleSessions)
		s.mux.HandleFunc("/api/sessions/", s.handleSession)
	}

	if s.config.Toggle != nil {
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/ws", s.config.Hub)
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

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Toggle != nil {
		response["enabled"] = s.config.Toggle.IsEnabled()
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleEvents handles GET /api/events?limit=N, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, MaxEventLimit)
	}

	events, err := s.config.Store.Events().Recent(limit)
	if err != nil {
		s.logger.Error("list events", "error", err)
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleSessions handles GET /api/sessions.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, err := s.config.Store.Sessions().List()
	if err != nil {
		s.logger.Error("list sessions", "error", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleSession handles GET /api/sessions/{id} with per-kind event counts.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	session, err := s.config.Store.Sessions().Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("get session", "id", id, "error", err)
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}

	counts, err := s.config.Store.Events().CountByKind(id)
	if err != nil {
		s.logger.Error("count events", "id", id, "error", err)
		http.Error(w, "Failed to count events", http.StatusInternalServerError)
		return
	}

	byKind := make(map[string]int, len(counts))
	for kind, n := range counts {
		byKind[kind.String()] = n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"counts":  byKind,
	})
}

// handleEnabled reports the detection switch on GET and sets it on POST
// with a body of {"enabled": bool}.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var body struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			http.Error(w, `body must be {"enabled": true|false}`, http.StatusBadRequest)
			return
		}
		s.config.Toggle.SetEnabled(*body.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.Toggle.IsEnabled()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("status server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
