// Package config loads the optional sesh config file and resolves the
// runtime paths shared by the client and the server.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by seshd and the sesh client.
type Config struct {
	// SocketPath overrides the default server socket location.
	SocketPath string `yaml:"socket_path"`
	// KillGraceMs is how long a killed child gets between SIGHUP and
	// SIGKILL, in milliseconds.
	KillGraceMs int `yaml:"kill_grace_ms"`
	// ExitOnEmpty makes the server exit once its last session is gone.
	ExitOnEmpty bool `yaml:"exit_on_empty"`
	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SocketPath:  DefaultSocketPath(),
		KillGraceMs: 500,
	}
}

// Load reads the config file at path, applying defaults for unset fields
// and environment overrides on top. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if sock := os.Getenv("SESH_SOCKET"); sock != "" {
		cfg.SocketPath = sock
	}
	if os.Getenv("SESH_DEBUG") != "" {
		cfg.Debug = true
	}

	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath()
	}
	if cfg.KillGraceMs <= 0 {
		return nil, fmt.Errorf("kill_grace_ms must be positive, got %d", cfg.KillGraceMs)
	}
	return cfg, nil
}

// DefaultPath returns the config file location, ~/.config/sesh/config.yml.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sesh", "config.yml")
}

// RuntimeDir returns the per-user directory holding the socket and logs:
// $XDG_RUNTIME_DIR, or /tmp/sesh-$UID when unset.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return fmt.Sprintf("/tmp/sesh-%d", os.Getuid())
}

// DefaultSocketPath returns the well-known server socket path.
func DefaultSocketPath() string {
	return filepath.Join(RuntimeDir(), "sesh.sock")
}

// ServerLogPath returns the log file used by seshd.
func ServerLogPath() string {
	return filepath.Join(RuntimeDir(), "seshd.log")
}

// ClientLogPath returns the log file used by the sesh client.
func ClientLogPath() string {
	return filepath.Join(RuntimeDir(), "sesh.log")
}
