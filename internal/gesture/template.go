// Package gesture scores live hand poses against recorded sign templates and
// stabilizes the resulting confidence stream into discrete recognition events.
package gesture

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/landmark"
)

// Template is a recorded sign: every raw sample kept as captured, never
// averaged. Scoring compares the live pose against each sample and keeps the
// best score, so one sloppy recording cannot drag a good one down.
type Template struct {
	ID      string
	Name    string
	Samples [][]landmark.Frame
}

// Representative returns the frame used to stand in for a whole recorded
// sample: the middle one, where the hand has settled into the sign. Returns
// nil for an empty sample.
func Representative(sample []landmark.Frame) *landmark.Frame {
	if len(sample) == 0 {
		return nil
	}
	return &sample[len(sample)/2]
}

// ParseSample decodes one recorded sample payload, a JSON array of landmark
// frames as captured by the browser recorder.
func ParseSample(data []byte) ([]landmark.Frame, error) {
	var frames []landmark.Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("failed to parse sample: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("sample has no frames")
	}
	return frames, nil
}
