// Package engine owns the recognition state for one signing session: pose
// scoring, temporal stabilization and phrase assembly behind a single
// synchronous frame entry point.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/phrase"
)

// Config collects all recognition tuning in one place. Zero values are
// invalid; start from DefaultConfig.
type Config struct {
	// ConfidenceThreshold is the minimum score for a frame to count toward
	// a recognition. Deliberate sign-at-a-time input wants 0.6; continuous
	// signing drops to 0.25 and lets stability do the filtering.
	ConfidenceThreshold float64

	// StabilityCount is how many consecutive frames a gesture must win.
	StabilityCount int

	// Cooldown is the minimum gap between two recognition events.
	Cooldown time.Duration

	// DiagnosticsWindow bounds the rolling history of raw scorer verdicts.
	// Zero disables it.
	DiagnosticsWindow time.Duration

	// DistanceSharpness converts landmark distance into similarity falloff.
	DistanceSharpness float64

	// SequenceTimeout discards a partial phrase after signing inactivity.
	SequenceTimeout time.Duration

	// MatchedDisplay is how long a completed phrase stays current.
	MatchedDisplay time.Duration
}

// DefaultConfig returns the standalone-mode tuning.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.6,
		StabilityCount:      3,
		Cooldown:            500 * time.Millisecond,
		DiagnosticsWindow:   3 * time.Second,
		DistanceSharpness:   gesture.DefaultSharpness,
		SequenceTimeout:     5 * time.Second,
		MatchedDisplay:      3 * time.Second,
	}
}

// Validate reports every problem with the config at once.
func (c Config) Validate() error {
	var errs []error
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence_threshold %.2f must be within [0,1]", c.ConfidenceThreshold))
	}
	if c.StabilityCount < 1 {
		errs = append(errs, fmt.Errorf("stability_count %d must be at least 1", c.StabilityCount))
	}
	if c.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown %v must not be negative", c.Cooldown))
	}
	if c.DiagnosticsWindow < 0 {
		errs = append(errs, fmt.Errorf("diagnostics window %v must not be negative", c.DiagnosticsWindow))
	}
	if c.DistanceSharpness <= 0 {
		errs = append(errs, fmt.Errorf("distance_sharpness %.2f must be positive", c.DistanceSharpness))
	}
	if c.SequenceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("sequence_timeout %v must be positive", c.SequenceTimeout))
	}
	if c.MatchedDisplay < 0 {
		errs = append(errs, fmt.Errorf("matched_display %v must not be negative", c.MatchedDisplay))
	}
	return errors.Join(errs...)
}

// Sink receives recognition output as it happens. Implementations must not
// block; they run on the frame processing path.
type Sink interface {
	GestureRecognized(gesture.Event)
	PhraseMatched(phrase.Match)
}

// Result is everything one frame produced.
type Result struct {
	// Scores holds the confidence for every registered gesture.
	Scores map[string]float64

	// Event is set when the frame completed a stable recognition.
	Event *gesture.Event

	// Match is set when that recognition completed a phrase.
	Match *phrase.Match

	// Dropped is set when the frame arrived while another was still being
	// processed and was discarded instead of queued.
	Dropped bool
}

// Status is a point-in-time snapshot for UIs.
type Status struct {
	Gestures      []string              `json:"gestures"`
	Sequence      []string              `json:"sequence"`
	LastEvent     *gesture.Event        `json:"lastEvent,omitempty"`
	CurrentPhrase *phrase.Match         `json:"currentPhrase,omitempty"`
	DroppedFrames int64                 `json:"droppedFrames"`
	Recent        []gesture.Observation `json:"recent,omitempty"`
}

// Engine wires scorer, stabilizer and phrase matcher together. All mutable
// recognition state lives here; callers hold one Engine per session.
type Engine struct {
	scorer     *gesture.Scorer
	stabilizer *gesture.Stabilizer
	phrases    *phrase.Matcher

	// frameMu serializes ProcessFrame. A frame arriving mid-processing is
	// dropped rather than queued so recognition never runs on stale input.
	frameMu sync.Mutex
	dropped atomic.Int64

	sinkMu sync.RWMutex
	sinks  []Sink
}

// New creates an Engine. The config is validated up front; a bad config is
// the only constructor error.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	scorer := gesture.NewScorer(cfg.DistanceSharpness)
	scorer.OnInvalidSample = func(name string, index int) {
		log.Printf("Skipping unusable sample %d for gesture %s", index, name)
	}

	return &Engine{
		scorer: scorer,
		stabilizer: gesture.NewStabilizer(gesture.StabilizerConfig{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			StabilityCount:      cfg.StabilityCount,
			Cooldown:            cfg.Cooldown,
			Window:              cfg.DiagnosticsWindow,
		}),
		phrases: phrase.NewMatcher(phrase.Config{
			SequenceTimeout: cfg.SequenceTimeout,
			MatchedDisplay:  cfg.MatchedDisplay,
		}),
	}, nil
}

// AddSink registers a consumer for recognition and phrase events.
func (e *Engine) AddSink(s Sink) {
	e.sinkMu.Lock()
	e.sinks = append(e.sinks, s)
	e.sinkMu.Unlock()
}

// SetTemplates swaps the gesture templates. Safe mid-session.
func (e *Engine) SetTemplates(templates []gesture.Template) {
	e.scorer.SetTemplates(templates)
}

// SetPhrases swaps the phrase definitions. Safe mid-session.
func (e *Engine) SetPhrases(defs []phrase.Definition) {
	e.phrases.SetDefinitions(defs)
}

// ProcessFrame runs one frame through scoring, stabilization and phrase
// matching. It completes synchronously; any events fire before it returns,
// both in the Result and through registered sinks. Frames are processed
// strictly one at a time.
func (e *Engine) ProcessFrame(frame *landmark.Frame) Result {
	if !e.frameMu.TryLock() {
		e.dropped.Add(1)
		return Result{Dropped: true}
	}
	defer e.frameMu.Unlock()

	scores := e.scorer.Score(frame)

	best := ""
	confidence := 0.0
	if frame != nil && frame.HasHands() {
		best, confidence = e.scorer.Best(scores)
	}

	var ts int64
	if frame != nil {
		ts = frame.Timestamp
	}

	result := Result{Scores: scores}

	event := e.stabilizer.Observe(best, confidence, ts)
	if event == nil {
		return result
	}
	result.Event = event

	e.sinkMu.RLock()
	sinks := e.sinks
	e.sinkMu.RUnlock()

	for _, s := range sinks {
		s.GestureRecognized(*event)
	}

	if match := e.phrases.Observe(event.Gesture, event.Timestamp); match != nil {
		result.Match = match
		for _, s := range sinks {
			s.PhraseMatched(*match)
		}
	}

	return result
}

// Housekeep expires stale phrase sequences. The pipeline calls it on every
// tick so status queries never show a sequence that already timed out.
func (e *Engine) Housekeep(now int64) {
	if e.phrases.Expire(now) {
		log.Println("Phrase sequence timed out")
	}
}

// Status snapshots the session for UIs. now is the current time in
// milliseconds, used to age out the displayed phrase.
func (e *Engine) Status(now int64) Status {
	st := Status{
		Gestures:      e.scorer.Names(),
		Sequence:      e.phrases.Sequence(),
		CurrentPhrase: e.phrases.Current(now),
		DroppedFrames: e.dropped.Load(),
		Recent:        e.stabilizer.History(),
	}
	if last, ok := e.stabilizer.Last(); ok {
		st.LastEvent = &last
	}
	return st
}

// Reset clears all per-session state: stability progress, the pending
// sequence and the displayed phrase. Template and phrase registrations
// survive. Safe to call repeatedly; the pipeline calls it on stop so nothing
// stale can fire when a new session starts.
func (e *Engine) Reset() {
	e.stabilizer.Reset()
	e.phrases.Reset()
}
