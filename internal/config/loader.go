package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// Config. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of the defaults and
// validates the result. Useful in tests where configs are built from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}

	if cfg.Camera.DeviceID < 0 {
		errs = append(errs, fmt.Errorf("camera.device_id %d must not be negative", cfg.Camera.DeviceID))
	}
	if cfg.Camera.IdleFPS < 1 {
		errs = append(errs, fmt.Errorf("camera.idle_fps %d must be at least 1", cfg.Camera.IdleFPS))
	}
	if cfg.Camera.ActiveFPS < cfg.Camera.IdleFPS {
		errs = append(errs, fmt.Errorf("camera.active_fps %d must not be below idle_fps %d", cfg.Camera.ActiveFPS, cfg.Camera.IdleFPS))
	}
	if cfg.Camera.MotionThreshold <= 0 {
		errs = append(errs, fmt.Errorf("camera.motion_threshold %.2f must be positive", cfg.Camera.MotionThreshold))
	}

	if !cfg.Recognition.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("recognition.mode %q is invalid; valid values: standalone, continuous", cfg.Recognition.Mode))
	}
	if t := cfg.Recognition.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
		errs = append(errs, fmt.Errorf("recognition.confidence_threshold %.2f is out of range [0, 1]", *t))
	}
	if cfg.Recognition.StabilityCount < 1 {
		errs = append(errs, fmt.Errorf("recognition.stability_count %d must be at least 1", cfg.Recognition.StabilityCount))
	}
	if cfg.Recognition.CooldownMs < 0 {
		errs = append(errs, fmt.Errorf("recognition.cooldown_ms %d must not be negative", cfg.Recognition.CooldownMs))
	}
	if cfg.Recognition.DistanceSharpness <= 0 {
		errs = append(errs, fmt.Errorf("recognition.distance_sharpness %.2f must be positive", cfg.Recognition.DistanceSharpness))
	}
	if cfg.Recognition.DiagnosticsWindowMs < 0 {
		errs = append(errs, fmt.Errorf("recognition.diagnostics_window_ms %d must not be negative", cfg.Recognition.DiagnosticsWindowMs))
	}

	if cfg.Phrases.SequenceTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("phrases.sequence_timeout_ms %d must be positive", cfg.Phrases.SequenceTimeoutMs))
	}
	if cfg.Phrases.MatchedDisplayMs < 0 {
		errs = append(errs, fmt.Errorf("phrases.matched_display_ms %d must not be negative", cfg.Phrases.MatchedDisplayMs))
	}

	if cfg.Handlers.Dir != "" && cfg.Handlers.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("handlers.timeout_ms %d must be positive", cfg.Handlers.TimeoutMs))
	}

	return errors.Join(errs...)
}
