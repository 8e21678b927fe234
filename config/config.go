// Package config loads pipeline configuration from a YAML file, merged
// over built in defaults so a config file only needs to state what it
// changes.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"

	"github.com/clinsight/go-facesense/session"
)

// Pipeline holds the capture and runtime settings
type Pipeline struct {
	// FPS is the frame sampling rate frames are submitted at.  It also
	// calibrates the blink rate extrapolation
	FPS float64 `yaml:"fps"`
	// PoolSize is the number of model pairs to load, one per concurrently
	// processed session
	PoolSize int `yaml:"pool_size"`
	// LogLevel is one of debug, info, warn or error
	LogLevel string `yaml:"log_level"`
}

// Models holds the model file locations
type Models struct {
	// FaceMesh is the path of the facial landmark model
	FaceMesh string `yaml:"facemesh"`
	// Emotion is the path of the emotion classifier model
	Emotion string `yaml:"emotion"`
}

// Config is the root configuration document
type Config struct {
	Pipeline Pipeline       `yaml:"pipeline"`
	Models   Models         `yaml:"models"`
	Analysis session.Params `yaml:"analysis"`
}

// Default returns the built in configuration
func Default() Config {
	return Config{
		Pipeline: Pipeline{
			FPS:      7,
			PoolSize: 1,
			LogLevel: "info",
		},
		Models: Models{
			FaceMesh: "models/face_landmark.onnx",
			Emotion:  "models/emotion-ferplus.onnx",
		},
		Analysis: session.DefaultParams(),
	}
}

// Load reads a YAML configuration file and merges it over the defaults.
// The pipeline frame rate is propagated into the blink rate extrapolation
func Load(path string) (Config, error) {

	cfg := Default()

	data, err := os.ReadFile(path)

	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Pipeline.FPS > 0 {
		cfg.Analysis.Microsignal.FPS = cfg.Pipeline.FPS
	}

	return cfg, nil
}

// NewLogger creates a structured logger writing colorized output at the
// given level, unknown level names fall back to info
func NewLogger(w io.Writer, level string) *slog.Logger {

	var lvl slog.Level

	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}
