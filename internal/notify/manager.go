package notify

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrHandlerNotFound is returned when a requested handler cannot be found.
var ErrHandlerNotFound = errors.New("handler not found")

// Manager manages handler discovery and access.
type Manager struct {
	dir      string
	handlers map[string]*Handler
	mu       sync.RWMutex
}

// NewManager creates a new handler Manager with the given discovery directory.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:      dir,
		handlers: make(map[string]*Handler),
	}
}

// Discover scans the handler directory for handler.json files and loads them.
// Each subdirectory is expected to be one handler with its manifest.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Clear existing handlers
	m.handlers = make(map[string]*Handler)

	// Check if handler directory exists
	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil // No handlers directory, nothing to discover
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil // Not a directory, nothing to discover
	}

	// Read handler directory entries
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		handlerPath := filepath.Join(m.dir, entry.Name())
		manifestPath := filepath.Join(handlerPath, "handler.json")

		// Check if handler.json exists
		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			continue
		}

		// Read and parse the manifest
		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			continue // Skip handlers we can't read
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			continue // Skip handlers with invalid JSON
		}

		// Determine the executable path
		executablePath := filepath.Join(handlerPath, manifest.Executable)

		handler := &Handler{
			Manifest:   manifest,
			Path:       handlerPath,
			Executable: executablePath,
		}

		m.handlers[manifest.Name] = handler
	}

	return nil
}

// Get returns a handler by name.
// Returns ErrHandlerNotFound if the handler does not exist.
func (m *Manager) Get(name string) (*Handler, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handler, ok := m.handlers[name]
	if !ok {
		return nil, ErrHandlerNotFound
	}

	return handler, nil
}

// List returns a slice of all discovered handlers.
func (m *Manager) List() []*Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handlers := make([]*Handler, 0, len(m.handlers))
	for _, handler := range m.handlers {
		handlers = append(handlers, handler)
	}

	return handlers
}

// Dir returns the handler discovery directory.
func (m *Manager) Dir() string {
	return m.dir
}
