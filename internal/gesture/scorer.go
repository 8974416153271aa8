package gesture

import (
	"sync"

	"github.com/ayusman/mudra/internal/landmark"
)

// Comparison weights. Fingertips carry most of a sign's identity, knuckles
// anchor the overall hand shape; the remaining landmarks add little and are
// not compared.
const (
	fingertipWeight = 2.0
	knuckleWeight   = 1.0
)

// DefaultSharpness controls how fast per-point similarity falls off with
// distance: similarity = 1 - distance*sharpness, floored at 0.
const DefaultSharpness = 4.0

// Scorer compares live hand poses against registered templates and produces
// a confidence per gesture name. Templates are replaced as a whole slice
// under the lock, never mutated in place, so a swap during a running session
// is safe.
type Scorer struct {
	mu        sync.RWMutex
	templates []Template

	sharpness float64

	// OnInvalidSample, if set, is called when a recorded sample turns out to
	// have no usable hand and is skipped during scoring.
	OnInvalidSample func(gestureName string, sampleIndex int)
}

// NewScorer creates a Scorer with the given distance sharpness. Values at or
// below zero fall back to DefaultSharpness.
func NewScorer(sharpness float64) *Scorer {
	if sharpness <= 0 {
		sharpness = DefaultSharpness
	}
	return &Scorer{sharpness: sharpness}
}

// SetTemplates replaces the registered templates. Registration order is kept
// and decides ties in Best.
func (s *Scorer) SetTemplates(templates []Template) {
	copied := make([]Template, len(templates))
	copy(copied, templates)

	s.mu.Lock()
	s.templates = copied
	s.mu.Unlock()
}

// Names returns the registered gesture names in registration order.
func (s *Scorer) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.templates))
	for i, t := range s.templates {
		names[i] = t.Name
	}
	return names
}

// Score computes a confidence in [0,1] for every registered gesture against
// the hands in the frame. Every registered name is present in the result;
// a frame with no hands scores 0 everywhere. Malformed samples are skipped,
// never fatal.
func (s *Scorer) Score(frame *landmark.Frame) map[string]float64 {
	s.mu.RLock()
	templates := s.templates
	s.mu.RUnlock()

	scores := make(map[string]float64, len(templates))
	for _, t := range templates {
		scores[t.Name] = 0
	}

	if frame == nil || !frame.HasHands() {
		return scores
	}

	for _, t := range templates {
		best := 0.0
		for i, sample := range t.Samples {
			rep := Representative(sample)
			if rep == nil || !rep.HasHands() {
				if s.OnInvalidSample != nil {
					s.OnInvalidSample(t.Name, i)
				}
				continue
			}

			// Compare against the hand the sample was recorded with,
			// preferring the right when both were captured.
			var tmpl, live *landmark.HandLandmarks
			if rep.Right != nil {
				tmpl = rep.Right
				live = frame.Right
			} else {
				tmpl = rep.Left
				live = frame.Left
			}
			if live == nil {
				// Signer is using the opposite hand; compare across.
				if frame.Right != nil {
					live = frame.Right
				} else {
					live = frame.Left
				}
			}

			if sim := s.similarity(live, tmpl); sim > best {
				best = sim
			}
		}
		scores[t.Name] = best
	}

	return scores
}

// Best returns the highest scoring gesture and its confidence. Ties resolve
// to the earlier registered template so results are deterministic. Returns
// ("", 0) when no templates are registered.
func (s *Scorer) Best(scores map[string]float64) (string, float64) {
	s.mu.RLock()
	templates := s.templates
	s.mu.RUnlock()

	bestName := ""
	bestScore := -1.0
	for _, t := range templates {
		sc, ok := scores[t.Name]
		if !ok {
			continue
		}
		if sc > bestScore {
			bestName, bestScore = t.Name, sc
		}
	}
	if bestName == "" {
		return "", 0
	}
	return bestName, bestScore
}

// similarity scores one live hand against one template hand over the
// weighted fingertip and knuckle landmarks. Both hands are normalized to the
// wrist and the live hand is rescaled to the template's size first, so the
// same sign matches regardless of distance from the camera.
func (s *Scorer) similarity(live, tmpl *landmark.HandLandmarks) float64 {
	ln := live.Normalize()
	tn := tmpl.Normalize()

	scale := 1.0
	if ls, ts := ln.Size(), tn.Size(); ls > 0 && ts > 0 {
		scale = ts / ls
	}

	var weighted, total float64
	point := func(i int, weight float64) {
		p := ln.Points[i]
		scaled := landmark.Point3D{X: p.X * scale, Y: p.Y * scale, Z: p.Z * scale}
		sim := 1.0 - landmark.Distance(scaled, tn.Points[i])*s.sharpness
		if sim < 0 {
			sim = 0
		}
		weighted += sim * weight
		total += weight
	}

	for _, i := range landmark.Fingertips {
		point(i, fingertipWeight)
	}
	for _, i := range landmark.Knuckles {
		point(i, knuckleWeight)
	}

	return weighted / total
}
