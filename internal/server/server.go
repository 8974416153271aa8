// Package server provides the HTTP server for the Mudra sign recognition system.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration. Nil fields disable the routes that
// depend on them, which keeps tests and headless deployments small.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Source    detector.Source
	Pipeline  api.Pipeline

	// OnChange is invoked after any gesture, sample or phrase mutation so
	// the pipeline can reload what it recognizes. May be nil.
	OnChange func()
}

// Server represents the HTTP server for the Mudra application.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	events    *EventsHandler
	landmarks *LandmarksHandler

	srvMu   sync.Mutex
	httpSrv *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	metrics := observe.DefaultMetrics()

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	// Recognition events are always available; the engine is wired in by the
	// caller through Events.
	s.events = NewEventsHandler(metrics)
	s.mux.Handle("/api/events", s.events)

	// Register gesture and phrase API handlers if Store is configured
	if s.config.Store != nil {
		gestureHandler := api.NewGestureHandler(s.config.Store, s.config.OnChange)
		samplesHandler := api.NewSamplesHandler(s.config.Store, s.config.OnChange)
		phraseHandler := api.NewPhraseHandler(s.config.Store, s.config.OnChange)

		// Use a wrapper to route between gestures and samples handlers
		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check if this is a samples request: /api/gestures/{id}/samples
			if strings.HasSuffix(r.URL.Path, "/samples") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)
		s.mux.Handle("/api/phrases", phraseHandler)
		s.mux.Handle("/api/phrases/", phraseHandler)
	}

	// Register recognition control endpoint if a Pipeline is configured
	if s.config.Pipeline != nil {
		s.mux.Handle("/api/recognition", api.NewRecognitionHandler(s.config.Pipeline))
	}

	// Register camera stream endpoint if Camera is configured
	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Register landmarks WebSocket endpoint if Camera and Source are configured
	if s.config.Camera != nil && s.config.Source != nil {
		s.landmarks = NewLandmarksHandler(s.config.Source, s.config.Camera, metrics)
		s.mux.Handle("/api/landmarks", s.landmarks)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Events returns the recognition event broadcaster so the caller can register
// it as an engine sink.
func (s *Server) Events() *EventsHandler {
	return s.events
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

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks until
// Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	s.srvMu.Lock()
	s.httpSrv = srv
	s.srvMu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and the landmark broadcaster.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.landmarks != nil {
		s.landmarks.Close()
	}

	s.srvMu.Lock()
	srv := s.httpSrv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
