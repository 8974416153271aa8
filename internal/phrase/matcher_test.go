package phrase

import (
	"testing"
	"time"
)

func testDefinitions() []Definition {
	return []Definition{
		{ID: "p1", Name: "greeting", Gestures: []string{"hello", "thank-you"}, Translation: "Hello, thank you!"},
		{ID: "p2", Name: "affirm", Gestures: []string{"yes"}, Translation: "Yes."},
		{ID: "p3", Name: "farewell", Gestures: []string{"thank-you", "hello"}, Translation: "Thank you, goodbye!"},
	}
}

func TestMatcher_ExactSequence(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	if match := m.Observe("hello", 0); match != nil {
		t.Fatalf("expected no match after partial sequence, got %v", match)
	}

	match := m.Observe("thank-you", 500)
	if match == nil {
		t.Fatal("expected a match for hello, thank-you")
	}
	if match.PhraseID != "p1" {
		t.Errorf("expected phrase p1, got %s", match.PhraseID)
	}
	if match.Translation != "Hello, thank you!" {
		t.Errorf("unexpected translation %q", match.Translation)
	}
	if match.Timestamp != 500 {
		t.Errorf("expected match stamped at 500, got %d", match.Timestamp)
	}

	// The match consumed the sequence.
	if seq := m.Sequence(); len(seq) != 0 {
		t.Errorf("expected empty sequence after match, got %v", seq)
	}
}

func TestMatcher_OrderMatters(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	// thank-you then hello is the farewell phrase, not the greeting.
	m.Observe("thank-you", 0)
	match := m.Observe("hello", 500)
	if match == nil {
		t.Fatal("expected farewell to match")
	}
	if match.PhraseID != "p3" {
		t.Errorf("expected phrase p3, got %s", match.PhraseID)
	}
}

func TestMatcher_NoPartialOrSuperMatch(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	// An extra leading gesture spoils the exact comparison for good until
	// the sequence times out.
	m.Observe("hello", 0)
	m.Observe("hello", 400)
	if match := m.Observe("thank-you", 800); match != nil {
		t.Errorf("expected no match for hello, hello, thank-you, got %v", match)
	}
	if seq := m.Sequence(); len(seq) != 3 {
		t.Errorf("expected sequence to keep accumulating, got %v", seq)
	}
}

func TestMatcher_SingleGesturePhrase(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	match := m.Observe("yes", 100)
	if match == nil || match.PhraseID != "p2" {
		t.Fatalf("expected single-gesture phrase p2, got %v", match)
	}
}

func TestMatcher_RegistrationOrderWins(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions([]Definition{
		{ID: "a", Name: "first", Gestures: []string{"hello"}},
		{ID: "b", Name: "second", Gestures: []string{"hello"}},
	})

	match := m.Observe("hello", 0)
	if match == nil || match.PhraseID != "a" {
		t.Fatalf("expected first registered phrase to win, got %v", match)
	}
}

func TestMatcher_SequenceTimeout(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	m.Observe("hello", 0)

	// 6 seconds of inactivity: the pending hello is discarded, so this
	// thank-you starts a fresh sequence instead of completing the greeting.
	if match := m.Observe("thank-you", 6000); match != nil {
		t.Errorf("expected stale sequence discarded, got match %v", match)
	}
	if seq := m.Sequence(); len(seq) != 1 || seq[0] != "thank-you" {
		t.Errorf("expected fresh sequence [thank-you], got %v", seq)
	}

	// Completing the farewell from there still works.
	if match := m.Observe("hello", 6400); match == nil || match.PhraseID != "p3" {
		t.Errorf("expected farewell after restart, got %v", match)
	}
}

func TestMatcher_Expire(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	m.Observe("hello", 0)

	if m.Expire(4999) {
		t.Error("expected sequence kept inside the timeout")
	}
	if seq := m.Sequence(); len(seq) != 1 {
		t.Errorf("expected sequence intact, got %v", seq)
	}

	if !m.Expire(5000) {
		t.Error("expected sequence discarded at the timeout")
	}
	if seq := m.Sequence(); len(seq) != 0 {
		t.Errorf("expected empty sequence after expiry, got %v", seq)
	}
}

func TestMatcher_MatchedDisplayWindow(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	m.Observe("yes", 1000)

	if cur := m.Current(2500); cur == nil || cur.PhraseID != "p2" {
		t.Errorf("expected match displayed inside the window, got %v", cur)
	}
	if cur := m.Current(3999); cur == nil {
		t.Error("expected match still displayed just before the window ends")
	}
	if cur := m.Current(4000); cur != nil {
		t.Errorf("expected display cleared after the window, got %v", cur)
	}
}

func TestMatcher_Reset(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	m.Observe("yes", 1000)
	m.Observe("hello", 1500)
	m.Reset()

	if seq := m.Sequence(); len(seq) != 0 {
		t.Errorf("expected empty sequence after reset, got %v", seq)
	}
	if cur := m.Current(1600); cur != nil {
		t.Errorf("expected no displayed match after reset, got %v", cur)
	}
}

func TestMatcher_SwapDefinitionsMidSequence(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	m.Observe("hello", 0)

	// Phrases change while a sequence is pending.
	m.SetDefinitions([]Definition{
		{ID: "new", Name: "new phrase", Gestures: []string{"hello", "yes"}, Translation: "New."},
	})

	match := m.Observe("yes", 400)
	if match == nil || match.PhraseID != "new" {
		t.Fatalf("expected swapped definitions to apply, got %v", match)
	}
}

func TestMatcher_IgnoresEmptyGesture(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	m.SetDefinitions(testDefinitions())

	m.Observe("hello", 0)
	if match := m.Observe("", 100); match != nil {
		t.Errorf("expected empty gesture ignored, got %v", match)
	}
	if seq := m.Sequence(); len(seq) != 1 {
		t.Errorf("expected sequence unchanged by empty gesture, got %v", seq)
	}

	// The empty observation does not refresh the inactivity timer either.
	if !m.Expire(5000) {
		t.Error("expected expiry measured from the last real gesture")
	}
}

func TestMatcher_NoDefinitions(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	if match := m.Observe("hello", 0); match != nil {
		t.Errorf("expected no match without definitions, got %v", match)
	}
	if seq := m.Sequence(); len(seq) != 1 {
		t.Errorf("expected gesture still accumulated, got %v", seq)
	}
}

func TestMatcher_ConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SequenceTimeout != 5*time.Second {
		t.Errorf("expected 5s sequence timeout, got %v", cfg.SequenceTimeout)
	}
	if cfg.MatchedDisplay != 3*time.Second {
		t.Errorf("expected 3s display window, got %v", cfg.MatchedDisplay)
	}
}
