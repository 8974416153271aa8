// Package phrase assembles stabilized gesture events into known sign
// sequences and reports the matched translation.
package phrase

import (
	"sync"
	"time"
)

// Definition is one phrase: an ordered list of gesture names and the spoken
// translation it stands for. Definitions are matched in registration order.
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Gestures    []string `json:"gestures"`
	Translation string   `json:"translation,omitempty"`
}

// Match is a completed phrase.
type Match struct {
	PhraseID    string   `json:"phraseId"`
	Name        string   `json:"name"`
	Translation string   `json:"translation,omitempty"`
	Gestures    []string `json:"gestures"`
	Timestamp   int64    `json:"timestamp"`
}

// Config tunes sequence assembly.
type Config struct {
	// SequenceTimeout discards a partial sequence after this much signing
	// inactivity.
	SequenceTimeout time.Duration

	// MatchedDisplay is how long a completed phrase stays current for
	// status queries.
	MatchedDisplay time.Duration
}

// DefaultConfig returns the standard sequence tuning.
func DefaultConfig() Config {
	return Config{
		SequenceTimeout: 5 * time.Second,
		MatchedDisplay:  3 * time.Second,
	}
}

// Matcher accumulates recognized gestures and compares the whole sequence
// against every registered phrase after each event. Only an exact ordered
// match of the full sequence completes a phrase; a match or a timeout clears
// the sequence. Time arithmetic runs on event timestamps in milliseconds.
type Matcher struct {
	cfg Config

	mu          sync.Mutex
	definitions []Definition
	sequence    []string
	lastEventTS int64
	lastMatch   *Match
}

// NewMatcher creates a Matcher with the given tuning.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// SetDefinitions replaces the registered phrases. The slice is copied;
// registration order decides which phrase wins when several share the same
// gesture sequence.
func (m *Matcher) SetDefinitions(defs []Definition) {
	copied := make([]Definition, len(defs))
	copy(copied, defs)

	m.mu.Lock()
	m.definitions = copied
	m.mu.Unlock()
}

// Observe appends a recognized gesture to the sequence and reports a
// non-nil Match exactly when the accumulated sequence equals a registered
// phrase. A stale sequence is discarded before the gesture is appended.
func (m *Matcher) Observe(gesture string, timestamp int64) *Match {
	if gesture == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(timestamp)

	m.sequence = append(m.sequence, gesture)
	m.lastEventTS = timestamp

	for _, def := range m.definitions {
		if !sequencesEqual(m.sequence, def.Gestures) {
			continue
		}

		match := &Match{
			PhraseID:    def.ID,
			Name:        def.Name,
			Translation: def.Translation,
			Gestures:    append([]string(nil), def.Gestures...),
			Timestamp:   timestamp,
		}
		m.sequence = nil
		m.lastMatch = match
		return match
	}

	return nil
}

// Expire discards the partial sequence if it has gone stale. Called
// periodically so status queries do not show a sequence that will never
// complete. Reports whether anything was cleared.
func (m *Matcher) Expire(now int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expireLocked(now)
}

func (m *Matcher) expireLocked(now int64) bool {
	if len(m.sequence) == 0 {
		return false
	}
	if now-m.lastEventTS < m.cfg.SequenceTimeout.Milliseconds() {
		return false
	}
	m.sequence = nil
	return true
}

// Sequence returns a copy of the gestures accumulated so far.
func (m *Matcher) Sequence() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sequence...)
}

// Current returns the last completed match while it is still within its
// display window, and nil afterwards.
func (m *Matcher) Current(now int64) *Match {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastMatch == nil {
		return nil
	}
	if now-m.lastMatch.Timestamp >= m.cfg.MatchedDisplay.Milliseconds() {
		return nil
	}
	match := *m.lastMatch
	return &match
}

// Reset clears the sequence and any displayed match.
func (m *Matcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequence = nil
	m.lastEventTS = 0
	m.lastMatch = nil
}

func sequencesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
