package gesture

import (
	"sync"
	"time"
)

// Event is a debounced recognition: a sign that held steady long enough to
// count as deliberate.
type Event struct {
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// Observation is one raw scorer verdict kept in the diagnostics window.
type Observation struct {
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// StabilizerConfig tunes how raw per-frame scores become discrete events.
type StabilizerConfig struct {
	// ConfidenceThreshold is the minimum top score for a frame to count
	// toward stability.
	ConfidenceThreshold float64

	// StabilityCount is how many consecutive frames the same gesture must
	// stay on top before an event fires.
	StabilityCount int

	// Cooldown is the minimum gap between two emitted events.
	Cooldown time.Duration

	// Window bounds the rolling diagnostics history. Zero disables it.
	Window time.Duration
}

// DefaultStabilizerConfig returns the tuning used for deliberate,
// sign-at-a-time input.
func DefaultStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		ConfidenceThreshold: 0.6,
		StabilityCount:      3,
		Cooldown:            500 * time.Millisecond,
		Window:              3 * time.Second,
	}
}

// Stabilizer turns the per-frame confidence stream into discrete events.
// A gesture must top the scores for StabilityCount consecutive frames, the
// cooldown must have passed, and the same sign held in place never fires
// twice; a different sign has to intervene first. Frames where nothing
// clears the threshold are ignored outright, so a missed detection does not
// destroy accumulated stability.
//
// All time arithmetic runs on the millisecond timestamps carried by the
// frames themselves.
type Stabilizer struct {
	cfg StabilizerConfig

	mu          sync.Mutex
	candidate   string
	count       int
	lastEmitted string
	lastEmitTS  int64
	hasEmitted  bool
	last        Event
	history     []Observation
}

// NewStabilizer creates a Stabilizer with the given tuning. Callers validate
// the config; see DefaultStabilizerConfig for working values.
func NewStabilizer(cfg StabilizerConfig) *Stabilizer {
	return &Stabilizer{cfg: cfg}
}

// Observe feeds one frame's top score into the state machine. gesture is the
// best scoring name for the frame ("" when nothing was scored) and timestamp
// is the frame capture time in milliseconds. Returns a non-nil Event exactly
// when a new recognition fires.
func (st *Stabilizer) Observe(gesture string, confidence float64, timestamp int64) *Event {
	st.mu.Lock()
	defer st.mu.Unlock()

	if gesture == "" {
		return nil
	}

	if st.cfg.Window > 0 {
		st.history = append(st.history, Observation{Gesture: gesture, Confidence: confidence, Timestamp: timestamp})
		st.prune(timestamp)
	}

	if confidence < st.cfg.ConfidenceThreshold {
		return nil
	}

	if gesture == st.candidate {
		st.count++
	} else {
		st.candidate = gesture
		st.count = 1
	}

	if st.count < st.cfg.StabilityCount {
		return nil
	}

	if st.hasEmitted && gesture == st.lastEmitted {
		// Same sign still held: refresh what we report, no new event.
		st.last.Confidence = confidence
		st.last.Timestamp = timestamp
		return nil
	}

	if st.hasEmitted && timestamp-st.lastEmitTS < st.cfg.Cooldown.Milliseconds() {
		return nil
	}

	st.lastEmitted = gesture
	st.lastEmitTS = timestamp
	st.hasEmitted = true
	st.count = 0
	st.last = Event{Gesture: gesture, Confidence: confidence, Timestamp: timestamp}

	ev := st.last
	return &ev
}

// Last returns the most recent emitted event, refreshed while the sign is
// held. ok is false before the first emission.
func (st *Stabilizer) Last() (Event, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.last, st.hasEmitted
}

// History returns a copy of the rolling diagnostics window.
func (st *Stabilizer) History() []Observation {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]Observation, len(st.history))
	copy(out, st.history)
	return out
}

// Reset clears all accumulated state. After a reset the stabilizer behaves
// as freshly constructed, including allowing the previously emitted sign to
// fire again.
func (st *Stabilizer) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.candidate = ""
	st.count = 0
	st.lastEmitted = ""
	st.lastEmitTS = 0
	st.hasEmitted = false
	st.last = Event{}
	st.history = nil
}

// prune drops history entries older than the configured window, measured
// from the newest timestamp.
func (st *Stabilizer) prune(now int64) {
	cutoff := now - st.cfg.Window.Milliseconds()
	i := 0
	for i < len(st.history) && st.history[i].Timestamp <= cutoff {
		i++
	}
	if i > 0 {
		st.history = append(st.history[:0], st.history[i:]...)
	}
}
