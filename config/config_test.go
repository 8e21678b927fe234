package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {

	cfg := Default()

	if cfg.Pipeline.FPS != 7 {
		t.Errorf("expected default fps 7, got %f", cfg.Pipeline.FPS)
	}

	if cfg.Pipeline.PoolSize != 1 {
		t.Errorf("expected default pool size 1, got %d", cfg.Pipeline.PoolSize)
	}

	if cfg.Analysis.Microsignal.ElevatedBlinkRate != 25 {
		t.Errorf("expected default elevated blink rate 25, got %f",
			cfg.Analysis.Microsignal.ElevatedBlinkRate)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {

	doc := `
pipeline:
  fps: 15
  log_level: debug
models:
  facemesh: /opt/models/mesh.onnx
analysis:
  microsignal:
    elevated_blink_rate: 30
`

	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("failed writing config: %v", err)
	}

	cfg, err := Load(path)

	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Pipeline.FPS != 15 {
		t.Errorf("expected fps 15, got %f", cfg.Pipeline.FPS)
	}

	if cfg.Pipeline.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Pipeline.LogLevel)
	}

	if cfg.Models.FaceMesh != "/opt/models/mesh.onnx" {
		t.Errorf("unexpected facemesh path %s", cfg.Models.FaceMesh)
	}

	// unset values keep their defaults
	if cfg.Pipeline.PoolSize != 1 {
		t.Errorf("expected default pool size retained, got %d", cfg.Pipeline.PoolSize)
	}

	if cfg.Models.Emotion != "models/emotion-ferplus.onnx" {
		t.Errorf("expected default emotion path retained, got %s", cfg.Models.Emotion)
	}

	if cfg.Analysis.Microsignal.ElevatedBlinkRate != 30 {
		t.Errorf("expected elevated blink rate 30, got %f",
			cfg.Analysis.Microsignal.ElevatedBlinkRate)
	}

	// capture fps drives the blink extrapolation
	if cfg.Analysis.Microsignal.FPS != 15 {
		t.Errorf("expected microsignal fps 15, got %f", cfg.Analysis.Microsignal.FPS)
	}
}

func TestLoadMissingFile(t *testing.T) {

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
