package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

// motionFrames returns a black and a white frame. Alternating between them
// keeps the motion detector triggered so the pipeline stays in active capture.
func motionFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Cleanup(func() {
		black.Close()
		white.Close()
	})

	return []*gocv.Mat{&black, &white}
}

// heldSign returns n frames of the same right-hand pose, which is how a held
// sign arrives from the landmark detector.
func heldSign(hand *landmark.HandLandmarks, n int) []landmark.Frame {
	frames := make([]landmark.Frame, n)
	for i := range frames {
		frames[i] = landmark.Frame{Right: hand}
	}
	return frames
}

func sampleBody(t *testing.T, hand *landmark.HandLandmarks) string {
	t.Helper()

	frames := heldSign(hand, 3)
	for i := range frames {
		frames[i].Timestamp = int64(i * 100)
	}
	sample, err := json.Marshal(frames)
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	return fmt.Sprintf(`{"samples": [%s]}`, sample)
}

func createGesture(t *testing.T, client *http.Client, baseURL, name string) string {
	t.Helper()

	resp, err := client.Post(
		baseURL+"/api/gestures",
		"application/json",
		strings.NewReader(fmt.Sprintf(`{"name": %q}`, name)),
	)
	if err != nil {
		t.Fatalf("create gesture %s error = %v", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create gesture %s status = %d, want %d", name, resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode gesture response: %v", err)
	}
	return created.ID
}

func recordSamples(t *testing.T, client *http.Client, baseURL, gestureID string, hand *landmark.HandLandmarks) {
	t.Helper()

	resp, err := client.Post(
		baseURL+"/api/gestures/"+gestureID+"/samples",
		"application/json",
		strings.NewReader(sampleBody(t, hand)),
	)
	if err != nil {
		t.Fatalf("record samples error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record samples status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	camera := capture.NewMockCamera(motionFrames(t), true)
	source := detector.NewMockSource()

	application, err := app.New(app.Config{
		Store:  s,
		Engine: engine.DefaultConfig(),
		Camera: camera,
		Source: source,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Stop()

	srv := server.New(server.Config{
		Store:    s,
		Camera:   application.Camera(),
		Source:   application.Source(),
		Pipeline: application,
		OnChange: func() {
			if err := application.Reload(); err != nil {
				t.Logf("reload after mutation: %v", err)
			}
		},
	})
	application.Engine().AddSink(srv.Events())
	defer srv.Shutdown(context.Background())

	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	var helloID, youID string

	t.Run("CreateGestures", func(t *testing.T) {
		helloID = createGesture(t, client, ts.URL, "hello")
		youID = createGesture(t, client, ts.URL, "you")
	})

	t.Run("RecordSamples", func(t *testing.T) {
		recordSamples(t, client, ts.URL, helloID, landmark.OpenPalm())
		recordSamples(t, client, ts.URL, youID, landmark.Victory())
	})

	t.Run("CreatePhrase", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/phrases",
			"application/json",
			strings.NewReader(`{"name": "greeting", "gestures": ["hello", "you"], "translation": "Hello, how are you?"}`),
		)
		if err != nil {
			t.Fatalf("create phrase error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create phrase status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
	})

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("dial events stream: %v", err)
	}
	defer conn.Close()

	// Give the events handler a moment to register the subscriber before
	// recognition starts producing events.
	time.Sleep(100 * time.Millisecond)

	t.Run("EnableRecognition", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/recognition",
			"application/json",
			strings.NewReader(`{"enabled": true}`),
		)
		if err != nil {
			t.Fatalf("enable recognition error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("enable recognition status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if !application.Enabled() {
			t.Error("pipeline should be enabled after POST /api/recognition")
		}
	})

	// Sign "hello" then "you". The first sign is held long enough for its
	// event to fire and clear the cooldown before the second sign settles;
	// the source repeats the last frame, so "you" stays up until it fires.
	source.Enqueue(heldSign(landmark.OpenPalm(), 8)...)
	source.Enqueue(heldSign(landmark.Victory(), 4)...)

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	t.Run("RecognizeSequence", func(t *testing.T) {
		var events []string
		var match struct {
			PhraseID    string   `json:"phraseId"`
			Name        string   `json:"name"`
			Translation string   `json:"translation"`
			Gestures    []string `json:"gestures"`
		}

		conn.SetReadDeadline(time.Now().Add(15 * time.Second))

		for match.Name == "" {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("events stream read error = %v (gesture events so far: %v)", err, events)
			}

			var msg struct {
				Type  string          `json:"type"`
				Event json.RawMessage `json:"event"`
				Match json.RawMessage `json:"match"`
			}
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("decode stream message: %v", err)
			}

			switch msg.Type {
			case "gesture":
				var ev struct {
					Gesture string `json:"gesture"`
				}
				if err := json.Unmarshal(msg.Event, &ev); err != nil {
					t.Fatalf("decode gesture event: %v", err)
				}
				events = append(events, ev.Gesture)
			case "phrase":
				if err := json.Unmarshal(msg.Match, &match); err != nil {
					t.Fatalf("decode phrase match: %v", err)
				}
			}
		}

		want := []string{"hello", "you"}
		if len(events) != len(want) {
			t.Fatalf("gesture events = %v, want %v", events, want)
		}
		for i := range want {
			if events[i] != want[i] {
				t.Errorf("event[%d] = %s, want %s", i, events[i], want[i])
			}
		}

		if match.Name != "greeting" {
			t.Errorf("match name = %s, want greeting", match.Name)
		}
		if match.Translation != "Hello, how are you?" {
			t.Errorf("match translation = %q, want %q", match.Translation, "Hello, how are you?")
		}
		if len(match.Gestures) != 2 {
			t.Errorf("match gestures = %v, want [hello you]", match.Gestures)
		}
	})

	t.Run("RecognitionStatus", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/recognition")
		if err != nil {
			t.Fatalf("get recognition error = %v", err)
		}
		defer resp.Body.Close()

		var status struct {
			Enabled   bool     `json:"enabled"`
			Gestures  []string `json:"gestures"`
			Sequence  []string `json:"sequence"`
			LastEvent *struct {
				Gesture string `json:"gesture"`
			} `json:"lastEvent"`
			CurrentPhrase *struct {
				Name string `json:"name"`
			} `json:"currentPhrase"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("decode recognition status: %v", err)
		}

		if !status.Enabled {
			t.Error("recognition should still be enabled")
		}
		if len(status.Gestures) != 2 {
			t.Errorf("known gestures = %v, want [hello you]", status.Gestures)
		}
		if status.LastEvent == nil || status.LastEvent.Gesture != "you" {
			t.Errorf("lastEvent = %+v, want you", status.LastEvent)
		}
		if status.CurrentPhrase == nil || status.CurrentPhrase.Name != "greeting" {
			t.Errorf("currentPhrase = %+v, want greeting", status.CurrentPhrase)
		}
		if len(status.Sequence) != 0 {
			t.Errorf("sequence = %v, want empty after a match", status.Sequence)
		}
	})
}

func TestE2E_StatePersistsAcrossRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s1, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	app1, err := app.New(app.Config{
		Store:  s1,
		Engine: engine.DefaultConfig(),
		Camera: capture.NewMockCamera(nil, false),
		Source: detector.NewMockSource(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	if err := app1.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	if err := s1.Gestures().Create(&store.Gesture{ID: "g-yes", Name: "yes"}); err != nil {
		t.Fatalf("create gesture error = %v", err)
	}
	sample, err := json.Marshal(heldSign(landmark.ThumbsUp(), 3))
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	if err := s1.Samples().Create("g-yes", []json.RawMessage{sample}); err != nil {
		t.Fatalf("create samples error = %v", err)
	}
	if err := s1.Phrases().Create(&store.Phrase{ID: "p-confirm", Name: "confirm", Gestures: []string{"yes"}}); err != nil {
		t.Fatalf("create phrase error = %v", err)
	}

	if err := s1.Close(); err != nil {
		t.Fatalf("store close error = %v", err)
	}

	s2, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store reopen error = %v", err)
	}
	defer s2.Close()

	app2, err := app.New(app.Config{
		Store:  s2,
		Engine: engine.DefaultConfig(),
		Camera: capture.NewMockCamera(nil, false),
		Source: detector.NewMockSource(),
	})
	if err != nil {
		t.Fatalf("app.New() after restart error = %v", err)
	}

	if !app2.Enabled() {
		t.Error("recognition toggle should survive a restart")
	}

	if err := app2.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	status := app2.Status(time.Now().UnixMilli())
	if len(status.Gestures) != 1 || status.Gestures[0] != "yes" {
		t.Errorf("gestures after restart = %v, want [yes]", status.Gestures)
	}

	phrases, err := s2.Phrases().List()
	if err != nil {
		t.Fatalf("list phrases error = %v", err)
	}
	if len(phrases) != 1 {
		t.Fatalf("phrases after restart = %d, want 1", len(phrases))
	}
	if phrases[0].Name != "confirm" {
		t.Errorf("phrase name = %s, want confirm", phrases[0].Name)
	}
}

func TestE2E_PhraseHandlerNotified(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	handlersDir := filepath.Join(tmpDir, "handlers")
	handlerDir := filepath.Join(handlersDir, "greeter")
	if err := os.MkdirAll(handlerDir, 0755); err != nil {
		t.Fatalf("create handler dir: %v", err)
	}

	manifest := `{"name": "greeter", "version": "1.0.0", "executable": "run", "events": ["phrase"]}`
	if err := os.WriteFile(filepath.Join(handlerDir, "handler.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	script := "#!/bin/sh\ncat > received.json\necho '{\"success\": true}'\n"
	if err := os.WriteFile(filepath.Join(handlerDir, "run"), []byte(script), 0755); err != nil {
		t.Fatalf("write handler script: %v", err)
	}

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application, err := app.New(app.Config{
		Store:       s,
		Engine:      engine.DefaultConfig(),
		Camera:      capture.NewMockCamera(nil, false),
		Source:      detector.NewMockSource(),
		HandlersDir: handlersDir,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	if err := s.Gestures().Create(&store.Gesture{ID: "g-hello", Name: "hello"}); err != nil {
		t.Fatalf("create gesture error = %v", err)
	}
	sample, err := json.Marshal(heldSign(landmark.OpenPalm(), 3))
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	if err := s.Samples().Create("g-hello", []json.RawMessage{sample}); err != nil {
		t.Fatalf("create samples error = %v", err)
	}
	if err := s.Phrases().Create(&store.Phrase{ID: "p-hi", Name: "hi", Gestures: []string{"hello"}, Translation: "Hi there"}); err != nil {
		t.Fatalf("create phrase error = %v", err)
	}

	if err := application.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if err := application.DiscoverHandlers(); err != nil {
		t.Fatalf("DiscoverHandlers() error = %v", err)
	}

	// Hold the sign for three frames so the stabilizer fires; the phrase is a
	// single gesture, so the match lands on the same frame.
	eng := application.Engine()
	for i := 0; i < 3; i++ {
		eng.ProcessFrame(&landmark.Frame{Right: landmark.OpenPalm(), Timestamp: int64(1000 + i*100)})
	}

	// The dispatcher runs handlers on their own goroutines; wait for the
	// script to write its capture file.
	receivedPath := filepath.Join(handlerDir, "received.json")
	var req struct {
		Event       string   `json:"event"`
		Name        string   `json:"name"`
		Translation string   `json:"translation"`
		Gestures    []string `json:"gestures"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		data, err := os.ReadFile(receivedPath)
		if err == nil && json.Unmarshal(data, &req) == nil && req.Event != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("handler was not invoked within 5s (read error = %v)", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if req.Event != "phrase" {
		t.Errorf("request event = %s, want phrase", req.Event)
	}
	if req.Name != "hi" {
		t.Errorf("request name = %s, want hi", req.Name)
	}
	if req.Translation != "Hi there" {
		t.Errorf("request translation = %q, want %q", req.Translation, "Hi there")
	}
	if len(req.Gestures) != 1 || req.Gestures[0] != "hello" {
		t.Errorf("request gestures = %v, want [hello]", req.Gestures)
	}
}
