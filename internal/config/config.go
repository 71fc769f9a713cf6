package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the runtime configuration from .qacli/config.yaml.
type Config struct {
	Mode       string           `yaml:"mode"` // "wizard", "agent"
	LogLevel   string           `yaml:"log_level"`
	Sandbox    SandboxConfig    `yaml:"sandbox"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Inspector  InspectorConfig  `yaml:"inspector"`
}

// InspectorConfig defines inspector SSE server settings.
type InspectorConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SandboxConfig defines filesystem restrictions for the bundle writer's
// dev-writer persistence mode.
type SandboxConfig struct {
	AllowedRoots []string `yaml:"allowed_roots"`
	DeniedPaths  []string `yaml:"denied_paths"`
	MaxFileSize  string   `yaml:"max_file_size"`
}

// CheckpointConfig defines the bbolt-backed checkpoint store location.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// PlatformConfig represents platform credentials from .qacli/platforms.yaml.
type PlatformConfig struct {
	GitHub GitHubConfig `yaml:"github"`
}

// GitHubConfig holds GitHub publish settings.
type GitHubConfig struct {
	Token        string `yaml:"token"`
	DefaultOwner string `yaml:"default_owner"`
	DefaultRepo  string `yaml:"default_repo"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:     "wizard",
		LogLevel: "info",
		Sandbox: SandboxConfig{
			AllowedRoots: []string{"."},
			MaxFileSize:  "10MB",
		},
		Checkpoint: CheckpointConfig{
			Path: ".qacli/checkpoints.db",
		},
	}
}

// LoadConfig reads and parses a runtime config YAML file. Returns the
// default config if the file doesn't exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadPlatformConfig reads and parses a platform credentials YAML file.
// Performs environment variable interpolation on string values.
func LoadPlatformConfig(path string) (PlatformConfig, error) {
	var cfg PlatformConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read platform config %s: %w", path, err)
	}

	interpolated := interpolateEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return cfg, fmt.Errorf("parse platform config %s: %w", path, err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // Leave unresolved if not set.
	})
}
