package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != "wizard" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "wizard")
	}
	if cfg.Checkpoint.Path == "" {
		t.Error("expected a default checkpoint path")
	}
	if len(cfg.Sandbox.AllowedRoots) == 0 {
		t.Error("expected a default allowed root")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
mode: agent
log_level: debug
sandbox:
  allowed_roots:
    - ./bundles
  max_file_size: 5MB
checkpoint:
  path: /tmp/qa-checkpoints.db
inspector:
  enabled: true
  port: 9100
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Mode != "agent" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "agent")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if len(cfg.Sandbox.AllowedRoots) != 1 || cfg.Sandbox.AllowedRoots[0] != "./bundles" {
		t.Errorf("Sandbox.AllowedRoots = %v, want [./bundles]", cfg.Sandbox.AllowedRoots)
	}
	if cfg.Checkpoint.Path != "/tmp/qa-checkpoints.db" {
		t.Errorf("Checkpoint.Path = %q, want %q", cfg.Checkpoint.Path, "/tmp/qa-checkpoints.db")
	}
	if !cfg.Inspector.Enabled || cfg.Inspector.Port != 9100 {
		t.Errorf("Inspector = %+v, want enabled on port 9100", cfg.Inspector)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Mode != "wizard" {
		t.Errorf("Mode = %q, want default %q", cfg.Mode, "wizard")
	}
}

func TestLoadPlatformConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platforms.yaml")

	t.Setenv("TEST_GH_TOKEN", "ghp_test123")

	yaml := `
github:
  token: "${TEST_GH_TOKEN}"
  default_owner: "testuser"
  default_repo: "forms"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPlatformConfig(path)
	if err != nil {
		t.Fatalf("LoadPlatformConfig: %v", err)
	}

	if cfg.GitHub.Token != "ghp_test123" {
		t.Errorf("GitHub.Token = %q, want %q", cfg.GitHub.Token, "ghp_test123")
	}
	if cfg.GitHub.DefaultOwner != "testuser" {
		t.Errorf("GitHub.DefaultOwner = %q, want %q", cfg.GitHub.DefaultOwner, "testuser")
	}
	if cfg.GitHub.DefaultRepo != "forms" {
		t.Errorf("GitHub.DefaultRepo = %q, want %q", cfg.GitHub.DefaultRepo, "forms")
	}
}

func TestLoadPlatformConfigMissing(t *testing.T) {
	cfg, err := LoadPlatformConfig("/nonexistent/path/platforms.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.GitHub.Token != "" {
		t.Errorf("GitHub.Token should be empty, got %q", cfg.GitHub.Token)
	}
}

func TestInterpolateEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("NUM_123", "456")

	tests := []struct {
		input string
		want  string
	}{
		{"${FOO}", "bar"},
		{"prefix-${FOO}-suffix", "prefix-bar-suffix"},
		{"${UNSET_VAR}", "${UNSET_VAR}"}, // unresolved stays
		{"${FOO} and ${NUM_123}", "bar and 456"},
		{"no vars here", "no vars here"},
	}

	for _, tt := range tests {
		got := interpolateEnvVars(tt.input)
		if got != tt.want {
			t.Errorf("interpolateEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
