package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/phrase"
	"github.com/ayusman/mudra/internal/store"
)

// recordingSink collects engine output for assertions. The engine fires
// sinks synchronously, so no locking is needed when the test drives
// ProcessFrame itself.
type recordingSink struct {
	events  []gesture.Event
	matches []phrase.Match
}

func (s *recordingSink) GestureRecognized(ev gesture.Event) { s.events = append(s.events, ev) }
func (s *recordingSink) PhraseMatched(m phrase.Match)       { s.matches = append(s.matches, m) }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-app-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// recordSamples stores recorded frames for a gesture, the way the browser
// recorder would submit them.
func recordSamples(t *testing.T, s *store.Store, gestureID string, hand *landmark.HandLandmarks) {
	t.Helper()

	frames := make([]landmark.Frame, 3)
	for i := range frames {
		frames[i] = landmark.Frame{Right: hand, Timestamp: int64(i * 100)}
	}
	data, err := json.Marshal(frames)
	if err != nil {
		t.Fatalf("failed to marshal frames: %v", err)
	}

	if err := s.Samples().Create(gestureID, []json.RawMessage{data}); err != nil {
		t.Fatalf("failed to record samples: %v", err)
	}
}

func newTestApp(t *testing.T, s *store.Store) *App {
	t.Helper()

	a, err := New(Config{
		Store:  s,
		Engine: engine.DefaultConfig(),
		Source: detector.NewMockSource(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestApp_SetEnabled_Persists(t *testing.T) {
	s := newTestStore(t)

	a := newTestApp(t, s)
	if a.Enabled() {
		t.Error("recognition should start disabled")
	}

	if err := a.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if !a.Enabled() {
		t.Error("recognition should be enabled after SetEnabled(true)")
	}

	// A new app over the same store restores the toggle.
	restarted := newTestApp(t, s)
	if !restarted.Enabled() {
		t.Error("recognition toggle should survive a restart")
	}
}

func TestApp_New_InvalidEngineConfig(t *testing.T) {
	_, err := New(Config{
		Engine: engine.Config{ConfidenceThreshold: 2.0},
		Source: detector.NewMockSource(),
	})
	if err == nil {
		t.Fatal("expected error for invalid engine config")
	}
}

func TestApp_Reload_FeedsEngine(t *testing.T) {
	s := newTestStore(t)

	if err := s.Gestures().Create(&store.Gesture{ID: "g-hello", Name: "hello"}); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	recordSamples(t, s, "g-hello", landmark.OpenPalm())

	if err := s.Phrases().Create(&store.Phrase{
		ID:          "p-greeting",
		Name:        "greeting",
		Gestures:    []string{"hello"},
		Translation: "Hello there",
	}); err != nil {
		t.Fatalf("failed to create phrase: %v", err)
	}

	a := newTestApp(t, s)
	if err := a.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	status := a.Status(0)
	if len(status.Gestures) != 1 || status.Gestures[0] != "hello" {
		t.Fatalf("expected loaded gesture [hello], got %v", status.Gestures)
	}

	// Drive the engine directly: holding the recorded sign must produce a
	// recognition and complete the single-gesture phrase.
	sink := &recordingSink{}
	a.Engine().AddSink(sink)

	for i := 0; i < 5; i++ {
		frame := landmark.Frame{Right: landmark.OpenPalm(), Timestamp: int64(1000 + i*100)}
		a.Engine().ProcessFrame(&frame)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 recognition, got %d", len(sink.events))
	}
	if sink.events[0].Gesture != "hello" {
		t.Errorf("expected gesture 'hello', got %q", sink.events[0].Gesture)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("expected 1 phrase match, got %d", len(sink.matches))
	}
	if sink.matches[0].Translation != "Hello there" {
		t.Errorf("expected translation 'Hello there', got %q", sink.matches[0].Translation)
	}
}

func TestApp_Reload_AfterMutation(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, s)

	if err := a.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := a.Status(0).Gestures; len(got) != 0 {
		t.Fatalf("expected no gestures before any are stored, got %v", got)
	}

	if err := s.Gestures().Create(&store.Gesture{ID: "g-yes", Name: "yes"}); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	recordSamples(t, s, "g-yes", landmark.ThumbsUp())

	if err := a.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := a.Status(0).Gestures; len(got) != 1 || got[0] != "yes" {
		t.Fatalf("expected [yes] after reload, got %v", got)
	}
}

func TestApp_DiscoverHandlers_MissingDir(t *testing.T) {
	a, err := New(Config{
		Engine:      engine.DefaultConfig(),
		Source:      detector.NewMockSource(),
		HandlersDir: "/path/that/does/not/exist",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := a.DiscoverHandlers(); err != nil {
		t.Fatalf("DiscoverHandlers() error = %v", err)
	}
	if got := a.Handlers().List(); len(got) != 0 {
		t.Fatalf("expected no handlers, got %d", len(got))
	}
}
