// Package config provides the configuration schema and loader for the mudra
// service.
package config

import (
	"time"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/gesture"
)

// Mode selects the recognition tuning profile.
type Mode string

const (
	// ModeStandalone expects deliberate, sign-at-a-time input.
	ModeStandalone Mode = "standalone"

	// ModeContinuous expects flowing signing and relies on stability
	// counting instead of a high confidence bar.
	ModeContinuous Mode = "continuous"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	return m == ModeStandalone || m == ModeContinuous
}

// Threshold returns the default confidence threshold for the mode.
func (m Mode) Threshold() float64 {
	if m == ModeContinuous {
		return 0.25
	}
	return 0.6
}

// Config is the root configuration structure, typically loaded from a YAML
// file with Load or LoadFromReader. The service runs fine without a config
// file; Default covers every field.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Camera      CameraConfig      `yaml:"camera"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Phrases     PhrasesConfig     `yaml:"phrases"`
	Handlers    HandlersConfig    `yaml:"handlers"`
	Storage     StorageConfig     `yaml:"storage"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// StaticDir serves the browser UI when set. Empty disables static
	// serving and the server looks for a web directory next to the binary.
	StaticDir string `yaml:"static_dir"`
}

// CameraConfig holds capture settings.
type CameraConfig struct {
	// DeviceID selects the video capture device.
	DeviceID int `yaml:"device_id"`

	// IdleFPS is the frame rate while no motion is detected.
	IdleFPS int `yaml:"idle_fps"`

	// ActiveFPS is the frame rate during active signing.
	ActiveFPS int `yaml:"active_fps"`

	// MotionThreshold is the percentage of changed pixels that counts as
	// motion.
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// RecognitionConfig tunes gesture recognition.
type RecognitionConfig struct {
	// Mode picks the threshold profile; see Mode.
	Mode Mode `yaml:"mode"`

	// ConfidenceThreshold overrides the mode's default threshold when set.
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`

	// StabilityCount is how many consecutive frames a gesture must win.
	StabilityCount int `yaml:"stability_count"`

	// CooldownMs is the minimum gap between two recognition events.
	CooldownMs int `yaml:"cooldown_ms"`

	// DistanceSharpness converts landmark distance to similarity falloff.
	DistanceSharpness float64 `yaml:"distance_sharpness"`

	// DiagnosticsWindowMs bounds the rolling activity history. Zero
	// disables it.
	DiagnosticsWindowMs int `yaml:"diagnostics_window_ms"`
}

// Threshold returns the effective confidence threshold: the explicit
// override when present, the mode default otherwise.
func (r RecognitionConfig) Threshold() float64 {
	if r.ConfidenceThreshold != nil {
		return *r.ConfidenceThreshold
	}
	return r.Mode.Threshold()
}

// PhrasesConfig tunes phrase sequence assembly.
type PhrasesConfig struct {
	// SequenceTimeoutMs discards a partial sequence after this much
	// signing inactivity.
	SequenceTimeoutMs int `yaml:"sequence_timeout_ms"`

	// MatchedDisplayMs is how long a completed phrase stays current.
	MatchedDisplayMs int `yaml:"matched_display_ms"`
}

// HandlersConfig controls matched-phrase handler dispatch.
type HandlersConfig struct {
	// Dir is the handler discovery directory. Empty disables handlers.
	Dir string `yaml:"dir"`

	// TimeoutMs bounds a single handler invocation.
	TimeoutMs int `yaml:"timeout_ms"`
}

// StorageConfig locates the database.
type StorageConfig struct {
	// Path is the SQLite database file. Empty stores it under ~/.mudra.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Camera: CameraConfig{
			DeviceID:        0,
			IdleFPS:         5,
			ActiveFPS:       15,
			MotionThreshold: 1.0,
		},
		Recognition: RecognitionConfig{
			Mode:                ModeStandalone,
			StabilityCount:      3,
			CooldownMs:          500,
			DistanceSharpness:   gesture.DefaultSharpness,
			DiagnosticsWindowMs: 3000,
		},
		Phrases: PhrasesConfig{
			SequenceTimeoutMs: 5000,
			MatchedDisplayMs:  3000,
		},
		Handlers: HandlersConfig{
			Dir:       "handlers",
			TimeoutMs: 5000,
		},
	}
}

// EngineConfig maps the file schema onto the recognition engine's config.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		ConfidenceThreshold: c.Recognition.Threshold(),
		StabilityCount:      c.Recognition.StabilityCount,
		Cooldown:            time.Duration(c.Recognition.CooldownMs) * time.Millisecond,
		DiagnosticsWindow:   time.Duration(c.Recognition.DiagnosticsWindowMs) * time.Millisecond,
		DistanceSharpness:   c.Recognition.DistanceSharpness,
		SequenceTimeout:     time.Duration(c.Phrases.SequenceTimeoutMs) * time.Millisecond,
		MatchedDisplay:      time.Duration(c.Phrases.MatchedDisplayMs) * time.Millisecond,
	}
}

// HandlerTimeout returns the handler invocation timeout as a duration.
func (c *Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Handlers.TimeoutMs) * time.Millisecond
}
