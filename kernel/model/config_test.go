package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Delays.Build != 35*time.Second {
		t.Errorf("Build = %v, want 35s", cfg.Delays.Build)
	}
	if cfg.Driver != "simulated" {
		t.Errorf("Driver = %v, want simulated", cfg.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeTempConfig(t, `
listen: "127.0.0.1:9090"
delays:
  build: 2s
  purge: 0s
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("Listen = %v", cfg.Listen)
	}
	if cfg.Delays.Build != 2*time.Second {
		t.Errorf("Build = %v, want 2s", cfg.Delays.Build)
	}
	if cfg.Delays.Teardown != 30*time.Second {
		t.Errorf("Teardown = %v, want default 30s", cfg.Delays.Teardown)
	}
	if cfg.Delays.Purge != 0 {
		t.Errorf("Purge = %v, want 0", cfg.Delays.Purge)
	}
	if cfg.Workers != 64 {
		t.Errorf("Workers = %v, want default 64", cfg.Workers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "listen: ':1'\nbogus: true\n"},
		{"bad duration", "delays:\n  build: soon\n"},
		{"zero workers", "workers: 0\n"},
		{"negative delay", "delays:\n  teardown: -1s\n"},
		{"integer delay", "delays:\n  build: 35\n"},
		{"unknown delay", "delays:\n  reboot: 5s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeTempConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfig_DelayUnits(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, "delays:\n  build: 1m30s\n  teardown: 0\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Delays.Build != 90*time.Second {
		t.Errorf("Build = %v, want 1m30s", cfg.Delays.Build)
	}
	if cfg.Delays.Teardown != 0 {
		t.Errorf("Teardown = %v, want 0", cfg.Delays.Teardown)
	}
	if cfg.Delays.Purge != 30*time.Second {
		t.Errorf("Purge = %v, want default 30s", cfg.Delays.Purge)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
