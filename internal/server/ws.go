// Package server provides the HTTP server for the Mudra sign recognition system.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/phrase"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler broadcasts recognition events over WebSocket: stabilized
// gestures as they are recognized and phrases as they complete. It plugs
// directly into the engine as a sink.
type EventsHandler struct {
	metrics *observe.Metrics
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(metrics *observe.Metrics) *EventsHandler {
	return &EventsHandler{
		metrics: metrics,
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.metrics.StreamClients.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("channel", "events")))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		h.metrics.StreamClients.Add(context.Background(), -1,
			metric.WithAttributes(attribute.String("channel", "events")))
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// GestureRecognized implements engine.Sink.
func (h *EventsHandler) GestureRecognized(ev gesture.Event) {
	h.send(map[string]any{"type": "gesture", "event": ev})
}

// PhraseMatched implements engine.Sink.
func (h *EventsHandler) PhraseMatched(m phrase.Match) {
	h.send(map[string]any{"type": "phrase", "match": m})
}

// send marshals the payload once and fans it out to every connected client.
// The engine fires sink callbacks from a single goroutine, so writes to one
// connection never race.
func (h *EventsHandler) send(payload map[string]any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
	h.mu.RUnlock()
}

// LandmarksHandler broadcasts live landmark frames via WebSocket so UIs can
// render the skeleton while recording or signing.
type LandmarksHandler struct {
	source  detector.Source
	camera  capture.Camera
	metrics *observe.Metrics
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	stop    chan struct{}
	done    chan struct{}
}

// NewLandmarksHandler creates a new LandmarksHandler with the given landmark
// source and camera, and starts its broadcast loop. Call Close to stop it.
func NewLandmarksHandler(src detector.Source, c capture.Camera, metrics *observe.Metrics) *LandmarksHandler {
	h := &LandmarksHandler{
		source:  src,
		camera:  c,
		metrics: metrics,
		clients: make(map[*websocket.Conn]bool),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Close stops the broadcast loop and waits for it to exit.
func (h *LandmarksHandler) Close() {
	close(h.stop)
	<-h.done
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.metrics.StreamClients.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("channel", "landmarks")))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		h.metrics.StreamClients.Add(context.Background(), -1,
			metric.WithAttributes(attribute.String("channel", "landmarks")))
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends landmark frames to all connected clients. Detection only
// runs while someone is watching.
func (h *LandmarksHandler) broadcast() {
	defer close(h.done)

	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		mat, err := h.camera.ReadFrame()
		if err != nil {
			continue
		}

		frame, err := h.source.Detect(mat)
		mat.Close()
		if err != nil {
			continue
		}
		frame.Timestamp = time.Now().UnixMilli()

		msg, err := json.Marshal(frame)
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
