package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// PhraseHandler handles HTTP requests for phrase resources.
type PhraseHandler struct {
	store    *store.Store
	onChange func()
}

// NewPhraseHandler creates a new PhraseHandler with the given store. onChange
// is invoked after every successful mutation so the recognition pipeline can
// reload its phrase set; it may be nil.
func NewPhraseHandler(s *store.Store, onChange func()) *PhraseHandler {
	return &PhraseHandler{store: s, onChange: onChange}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *PhraseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/phrases or /api/phrases/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/phrases")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/phrases
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/phrases/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createPhraseRequest struct {
	Name        string   `json:"name"`
	Gestures    []string `json:"gestures"`
	Translation string   `json:"translation"`
}

type updatePhraseRequest struct {
	Name        string   `json:"name"`
	Gestures    []string `json:"gestures"`
	Translation *string  `json:"translation"`
}

type phraseResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Gestures    []string `json:"gestures"`
	Translation string   `json:"translation"`
	Position    int      `json:"position"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type listPhrasesResponse struct {
	Phrases []phraseResponse `json:"phrases"`
}

// toPhraseResponse converts a store.Phrase to a phraseResponse.
func toPhraseResponse(p *store.Phrase) phraseResponse {
	return phraseResponse{
		ID:          p.ID,
		Name:        p.Name,
		Gestures:    p.Gestures,
		Translation: p.Translation,
		Position:    p.Position,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// verifyGestures checks that every referenced gesture name exists. It writes
// an error response and returns false when one is missing.
func (h *PhraseHandler) verifyGestures(w http.ResponseWriter, names []string) bool {
	for _, name := range names {
		_, err := h.store.Gestures().GetByName(name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "Unknown gesture: "+name)
				return false
			}
			writeError(w, http.StatusInternalServerError, "Failed to verify gestures")
			return false
		}
	}
	return true
}

// list handles GET /api/phrases and returns all phrases in registration order.
func (h *PhraseHandler) list(w http.ResponseWriter, r *http.Request) {
	phrases, err := h.store.Phrases().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list phrases")
		return
	}

	response := listPhrasesResponse{
		Phrases: make([]phraseResponse, 0, len(phrases)),
	}

	for _, p := range phrases {
		response.Phrases = append(response.Phrases, toPhraseResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/phrases/{id} and returns a single phrase.
func (h *PhraseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	phrase, err := h.store.Phrases().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Phrase not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get phrase")
		return
	}

	writeJSON(w, http.StatusOK, toPhraseResponse(phrase))
}

// create handles POST /api/phrases and creates a new phrase.
func (h *PhraseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPhraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate required fields
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(req.Gestures) == 0 {
		writeError(w, http.StatusBadRequest, "At least one gesture is required")
		return
	}

	// Verify every referenced gesture exists
	if !h.verifyGestures(w, req.Gestures) {
		return
	}

	// Check for duplicate name
	existing, err := h.store.Phrases().GetByName(req.Name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check existing phrase")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Phrase with this name already exists")
		return
	}

	phrase := &store.Phrase{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Gestures:    req.Gestures,
		Translation: req.Translation,
	}

	if err := h.store.Phrases().Create(phrase); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create phrase")
		return
	}

	if h.onChange != nil {
		h.onChange()
	}

	writeJSON(w, http.StatusCreated, toPhraseResponse(phrase))
}

// update handles PUT /api/phrases/{id} and updates an existing phrase.
func (h *PhraseHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	// First, get the existing phrase
	phrase, err := h.store.Phrases().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Phrase not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get phrase")
		return
	}

	var req updatePhraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Update fields if provided
	if req.Name != "" {
		phrase.Name = req.Name
	}
	if req.Gestures != nil {
		if len(req.Gestures) == 0 {
			writeError(w, http.StatusBadRequest, "At least one gesture is required")
			return
		}
		if !h.verifyGestures(w, req.Gestures) {
			return
		}
		phrase.Gestures = req.Gestures
	}
	if req.Translation != nil {
		phrase.Translation = *req.Translation
	}

	if err := h.store.Phrases().Update(phrase); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update phrase")
		return
	}

	if h.onChange != nil {
		h.onChange()
	}

	writeJSON(w, http.StatusOK, toPhraseResponse(phrase))
}

// delete handles DELETE /api/phrases/{id} and removes a phrase.
func (h *PhraseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Phrases().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Phrase not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete phrase")
		return
	}

	if h.onChange != nil {
		h.onChange()
	}

	w.WriteHeader(http.StatusNoContent)
}
