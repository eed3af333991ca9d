// Package config defines the application configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix = "STARKCAD_"
	EnvFile   = "STARKCAD_CONFIG"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config holds every tunable of the application.
type Config struct {
	// Addr is the HTTP listen address for the state API and stream.
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file the document is persisted to. Empty keeps the
	// document in memory only.
	DBPath string `koanf:"db_path"`

	// StaticDir, if set, is served at / (the renderer front end).
	StaticDir string `koanf:"static_dir"`

	CameraID   int `koanf:"camera_id"`
	CaptureFPS int `koanf:"capture_fps"`

	// TickHz is the interaction tick rate, independent of capture.
	TickHz int `koanf:"tick_hz"`

	MaxHands      int     `koanf:"max_hands"`
	MinConfidence float64 `koanf:"min_confidence"`

	// MotionGate skips inference while the camera image is still.
	MotionGate bool `koanf:"motion_gate"`

	// Preview publishes the camera image at /api/stream.
	Preview bool `koanf:"preview"`

	PinchThreshold   float64 `koanf:"pinch_threshold"`
	ClutchThreshold  float64 `koanf:"clutch_threshold"`
	OrbitSensitivity float64 `koanf:"orbit_sensitivity"`

	// Tray shows the system tray menu.
	Tray bool `koanf:"tray"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Addr:             "127.0.0.1:8080",
		DBPath:           defaultDBPath(),
		CameraID:         0,
		CaptureFPS:       30,
		TickHz:           60,
		MaxHands:         2,
		MinConfidence:    0.5,
		PinchThreshold:   0.05,
		ClutchThreshold:  0.05,
		OrbitSensitivity: 5.0,
		Preview:          true,
		Tray:             true,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".starkcad", "starkcad.db")
}

// Load layers, lowest precedence first: defaults, the YAML file named by
// STARKCAD_CONFIG if set, then STARKCAD_* environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// STARKCAD_TICK_HZ -> tick_hz
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CaptureFPS <= 0:
		return fmt.Errorf("%w: capture_fps must be positive, got %d", ErrInvalidConfig, c.CaptureFPS)
	case c.TickHz <= 0:
		return fmt.Errorf("%w: tick_hz must be positive, got %d", ErrInvalidConfig, c.TickHz)
	case c.MaxHands <= 0:
		return fmt.Errorf("%w: max_hands must be positive, got %d", ErrInvalidConfig, c.MaxHands)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("%w: min_confidence must be within [0,1], got %g", ErrInvalidConfig, c.MinConfidence)
	case c.PinchThreshold <= 0:
		return fmt.Errorf("%w: pinch_threshold must be positive, got %g", ErrInvalidConfig, c.PinchThreshold)
	case c.ClutchThreshold <= 0:
		return fmt.Errorf("%w: clutch_threshold must be positive, got %g", ErrInvalidConfig, c.ClutchThreshold)
	case c.OrbitSensitivity <= 0:
		return fmt.Errorf("%w: orbit_sensitivity must be positive, got %g", ErrInvalidConfig, c.OrbitSensitivity)
	}
	return nil
}
