package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CSGQ_MODEL", "CSGQ_VOLUME_DB", "CSGQ_VOLUME_SAMPLES", "CSGQ_VOLUME_SEED",
		"CSGQ_VOLUME_WORKERS", "CSGQ_INSTANCES_ONLY", "CSGQ_EVAL_TIMEOUT",
		"CSGQ_LOG_LEVEL", "CSGQ_LOG_JSON", "CSGQ_OTEL_ENDPOINT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.EvalTimeout != 5*time.Second {
		t.Errorf("EvalTimeout = %s, want 5s", cfg.EvalTimeout)
	}
	if cfg.LogLevel != "info" || cfg.LogJSON {
		t.Errorf("log settings = %q json=%v", cfg.LogLevel, cfg.LogJSON)
	}
	if cfg.VolumeSeed != 1 || cfg.ComputeVolumes() {
		t.Errorf("volume settings = seed %d compute %v", cfg.VolumeSeed, cfg.ComputeVolumes())
	}
}

func TestParseOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CSGQ_MODEL", "pincell.csg")
	t.Setenv("CSGQ_VOLUME_SAMPLES", "5000")
	t.Setenv("CSGQ_INSTANCES_ONLY", "true")
	t.Setenv("CSGQ_EVAL_TIMEOUT", "250ms")
	t.Setenv("CSGQ_LOG_LEVEL", "debug")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Model != "pincell.csg" || cfg.VolumeSamples != 5000 || !cfg.InstancesOnly {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.EvalTimeout != 250*time.Millisecond {
		t.Errorf("EvalTimeout = %s", cfg.EvalTimeout)
	}
	if !cfg.ComputeVolumes() {
		t.Error("ComputeVolumes should be true with samples set")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"not an int", "CSGQ_VOLUME_SAMPLES", "lots", "parse env:"},
		{"negative samples", "CSGQ_VOLUME_SAMPLES", "-1", "CSGQ_VOLUME_SAMPLES"},
		{"zero timeout", "CSGQ_EVAL_TIMEOUT", "0s", "CSGQ_EVAL_TIMEOUT"},
		{"bad level", "CSGQ_LOG_LEVEL", "loud", "CSGQ_LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CSGQ_MODEL=from-file.csg\nCSGQ_LOG_JSON=true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "from-file.csg" || !cfg.LogJSON {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadWithoutDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	if _, err := Load(); err != nil {
		t.Fatalf("Load without .env: %v", err)
	}
}
