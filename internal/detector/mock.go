package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// MockSource is a test implementation of the Source interface. Detections
// are served from a queue; when the queue runs out the last frame repeats,
// which models a sign being held in front of the camera.
type MockSource struct {
	mu      sync.Mutex
	pending []landmark.Frame
	last    landmark.Frame
	err     error
	calls   int
}

// NewMockSource creates a new MockSource instance.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Enqueue appends frames to be returned by successive Detect calls.
func (m *MockSource) Enqueue(frames ...landmark.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect has been invoked.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued frame, or repeats the last one when the
// queue is empty.
func (m *MockSource) Detect(frame *gocv.Mat) (landmark.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return landmark.Frame{}, m.err
	}
	if len(m.pending) > 0 {
		m.last = m.pending[0]
		m.pending = m.pending[1:]
	}
	return m.last, nil
}

// Close is a no-op for the mock source.
func (m *MockSource) Close() error {
	return nil
}
