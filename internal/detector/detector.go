// Package detector provides the landmark source boundary between video
// frames and the recognition engine.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// Source defines the interface for landmark detection implementations.
type Source interface {
	// Detect analyzes a video frame and returns the detected landmarks.
	// A frame with no hands is not an error; both hand fields are nil.
	Detect(frame *gocv.Mat) (landmark.Frame, error)

	// Close releases any resources held by the source.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
