// Package notify dispatches recognition events to external handler programs.
// Handlers are small executables discovered from a directory; each one
// declares which events it wants in a handler.json manifest and receives
// them as JSON on stdin.
package notify

import "encoding/json"

// Event kinds a handler can subscribe to.
const (
	EventGesture = "gesture"
	EventPhrase  = "phrase"
)

// Manifest describes a handler's metadata and the events it subscribes to.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Request is the payload sent to a handler for one recognition event.
type Request struct {
	// Event is EventGesture or EventPhrase.
	Event string `json:"event"`

	// Name is the gesture or phrase name.
	Name string `json:"name"`

	// Translation carries the phrase translation; empty for gestures.
	Translation string `json:"translation,omitempty"`

	// Confidence carries the recognition confidence; zero for phrases.
	Confidence float64 `json:"confidence,omitempty"`

	// Gestures lists the sequence that completed a phrase; nil for gestures.
	Gestures []string `json:"gestures,omitempty"`

	// Timestamp is the event time in milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Response is what a handler writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Handler represents a discovered handler with its manifest and location.
type Handler struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the handler wants the given event kind. A
// manifest with no events listed receives everything.
func (h *Handler) Subscribes(event string) bool {
	if len(h.Manifest.Events) == 0 {
		return true
	}
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
