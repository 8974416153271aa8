package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/engine"
)

// Pipeline is the view of the recognition pipeline exposed over HTTP.
type Pipeline interface {
	// Enabled reports whether frames are being recognized.
	Enabled() bool
	// SetEnabled turns recognition on or off. The setting survives restarts.
	SetEnabled(enabled bool) error
	// Status snapshots the current recognition session.
	Status(now int64) engine.Status
}

// RecognitionHandler handles HTTP requests for the recognition pipeline:
// querying its state and toggling it on or off.
type RecognitionHandler struct {
	pipeline Pipeline
}

// NewRecognitionHandler creates a new RecognitionHandler.
func NewRecognitionHandler(p Pipeline) *RecognitionHandler {
	return &RecognitionHandler{pipeline: p}
}

type recognitionResponse struct {
	Enabled bool `json:"enabled"`
	engine.Status
}

type setRecognitionRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP implements the http.Handler interface.
func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.set(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// get handles GET /api/recognition and returns the pipeline state.
func (h *RecognitionHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, recognitionResponse{
		Enabled: h.pipeline.Enabled(),
		Status:  h.pipeline.Status(time.Now().UnixMilli()),
	})
}

// set handles POST /api/recognition and toggles recognition on or off.
func (h *RecognitionHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setRecognitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.pipeline.SetEnabled(*req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update recognition state")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.pipeline.Enabled()})
}
