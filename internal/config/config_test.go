package config

import (
	"math"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.PeriodMs <= 0 {
		t.Error("period_ms should be positive")
	}
	if cfg.InitState.TruthTheta != math.Pi/2 {
		t.Errorf("expected truth theta pi/2, got %f", cfg.InitState.TruthTheta)
	}
	// Estimate is seeded deliberately wrong to demonstrate convergence.
	if cfg.InitState.EstTheta == cfg.InitState.TruthTheta {
		t.Error("estimate initial angle should differ from truth")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative period", func(c *Config) { c.PeriodMs = -1 }},
		{"zero length", func(c *Config) { c.Pendulum.Length = 0 }},
		{"negative noise", func(c *Config) { c.Pendulum.NoiseAmp = -0.1 }},
		{"zero p_init", func(c *Config) { c.Filter.PInit = 0 }},
		{"zero alpha", func(c *Config) { c.Filter.Alpha = 0 }},
		{"bad mode", func(c *Config) { c.Mode = "verbose" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.yaml")

	cfg := DefaultConfig()
	cfg.Ticks = 42
	cfg.Mode = "measurement"
	cfg.Filter.RnInit = 0.25

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Ticks != 42 || got.Mode != "measurement" || got.Filter.RnInit != 0.25 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("noisy")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Mode != "measurement" {
		t.Errorf("expected measurement mode, got %s", cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Error("expected presets")
	}
}
