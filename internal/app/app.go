// Package app hosts the capture-to-recognition pipeline for the Mudra sign
// recognition system. It wires the camera, motion detector, landmark source,
// recognition engine and handler dispatch into one start/stoppable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/notify"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// DefaultIdleFPS is the frame rate when no motion is detected.
	DefaultIdleFPS = 5
	// DefaultActiveFPS is the frame rate during active signing.
	DefaultActiveFPS = 15
	// IdleTimeout is how long the scene must stay still before the pipeline
	// drops back to the idle frame rate.
	IdleTimeout = 2 * time.Second
)

// enabledKey is the settings row that persists the recognition toggle.
const enabledKey = "recognition.enabled"

// Config holds configuration options for the application.
type Config struct {
	Store  *store.Store
	Engine engine.Config

	// Camera overrides the default device camera when set; tests inject a
	// MockCamera here.
	Camera capture.Camera

	// Source overrides landmark detection when set. When nil the app uses
	// MediaPipe if available and falls back to the mock source.
	Source detector.Source

	CameraID        int
	IdleFPS         int
	ActiveFPS       int
	MotionThreshold float64

	HandlersDir    string
	HandlerTimeout time.Duration
}

// App is the main application that orchestrates capture, sign recognition
// and event dispatch.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	source     detector.Source
	engine     *engine.Engine
	handlers   *notify.Manager
	dispatcher *notify.Dispatcher
	metrics    *observe.Metrics

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a new App instance with the given configuration. The persisted
// recognition toggle is restored from the store when one is configured.
func New(config Config) (*App, error) {
	eng, err := engine.New(config.Engine)
	if err != nil {
		return nil, err
	}

	if config.MotionThreshold <= 0 {
		config.MotionThreshold = 1.0 // 1% pixel change
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = DefaultIdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultActiveFPS
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = 5 * time.Second
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		motion:   capture.NewMotionDetector(config.MotionThreshold),
		source:   config.Source,
		engine:   eng,
		handlers: notify.NewManager(config.HandlersDir),
		metrics:  observe.DefaultMetrics(),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraID)
	}

	// Try MediaPipe first, fall back to the mock source
	if a.source == nil {
		if mp, err := detector.NewMediaPipeSource(detector.DefaultConfig()); err == nil {
			a.source = mp
			log.Println("Using MediaPipe landmark detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock landmark source", err)
			a.source = detector.NewMockSource()
		}
	}

	a.dispatcher = notify.NewDispatcher(a.handlers, notify.NewExecutor(config.HandlerTimeout), a.metrics)
	eng.AddSink(a.dispatcher)

	if config.Store != nil {
		enabled, err := config.Store.Settings().GetBool(enabledKey, false)
		if err != nil {
			log.Printf("Failed to restore recognition toggle: %v", err)
		}
		a.enabled = enabled
	}

	return a, nil
}

// Enabled reports whether recognition is currently on.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled turns recognition on or off and persists the choice so it
// survives a restart.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(enabledKey, enabled); err != nil {
			return fmt.Errorf("persist recognition toggle: %w", err)
		}
	}
	return nil
}

// Status snapshots the recognition session for the API and tray.
func (a *App) Status(now int64) engine.Status {
	return a.engine.Status(now)
}

// LoadGestures loads gesture templates from the store into the engine.
func (a *App) LoadGestures() error {
	if a.config.Store == nil {
		return nil
	}

	templates, err := a.config.Store.LoadTemplates()
	if err != nil {
		return err
	}

	a.engine.SetTemplates(templates)
	a.metrics.TemplateReloads.Add(context.Background(), 1)
	log.Printf("Loaded %d gesture templates", len(templates))
	return nil
}

// LoadPhrases loads phrase definitions from the store into the engine.
func (a *App) LoadPhrases() error {
	if a.config.Store == nil {
		return nil
	}

	defs, err := a.config.Store.LoadPhrases()
	if err != nil {
		return err
	}

	a.engine.SetPhrases(defs)
	log.Printf("Loaded %d phrases", len(defs))
	return nil
}

// Reload refreshes gesture templates and phrase definitions from the store.
// The server calls it after every mutation so recognition always runs on
// current data.
func (a *App) Reload() error {
	return errors.Join(a.LoadGestures(), a.LoadPhrases())
}

// DiscoverHandlers scans the handlers directory for event handler manifests.
func (a *App) DiscoverHandlers() error {
	if err := a.handlers.Discover(); err != nil {
		return err
	}
	if n := len(a.handlers.List()); n > 0 {
		log.Printf("Discovered %d event handlers", n)
	}
	return nil
}

// Start opens the camera and begins the processing loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.IdleFPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	log.Println("Recognition pipeline started")
	return nil
}

// Stop halts the processing loop and releases capture resources. In-flight
// handler invocations are allowed to finish, then the engine's per-session
// state is cleared so nothing stale can fire when a new session starts.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()
	if err := a.source.Close(); err != nil {
		log.Printf("Error closing landmark source: %v", err)
	}

	a.dispatcher.Wait()
	a.engine.Reset()

	log.Println("Recognition pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Source returns the landmark source.
func (a *App) Source() detector.Source {
	return a.source
}

// Engine returns the recognition engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Handlers returns the event handler manager.
func (a *App) Handlers() *notify.Manager {
	return a.handlers
}
