package main

import (
	"fmt"
	"os"
	"path/filepath"

	"agora/pkg/config"
	"agora/pkg/protocol"
)

// Paths holds all resolved agora state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	AgoraHome  string // ~/.agora or AGORA_HOME
	ConfigPath string // config.toml or AGORA_CONFIG
	DBPath     string // agora.db or AGORA_DB_PATH
}

// ResolvePaths returns all agora paths, respecting env var overrides.
// Environment variables:
//   - AGORA_HOME: base directory for all agora state (default: ~/.agora)
//   - AGORA_CONFIG: daemon config file (default: $AGORA_HOME/config.toml)
//   - AGORA_DB_PATH: coordination database (default: $AGORA_HOME/agora.db)
func ResolvePaths() (*Paths, error) {
	home, err := resolveAgoraHome()
	if err != nil {
		return nil, err
	}

	return &Paths{
		AgoraHome:  home,
		ConfigPath: resolvePathWithEnv("AGORA_CONFIG", home, "config.toml"),
		DBPath:     resolvePathWithEnv("AGORA_DB_PATH", home, protocol.DBFileName),
	}, nil
}

// resolveAgoraHome returns the agora home directory from AGORA_HOME or ~/.agora.
func resolveAgoraHome() (string, error) {
	if v := os.Getenv("AGORA_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, protocol.AgoraDir), nil
}

// resolvePathWithEnv returns the env var value if set, else base/name.
func resolvePathWithEnv(envVar, base, name string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return filepath.Join(base, name)
}

// loadConfig resolves paths and loads the daemon config, folding the resolved
// database path in when the config file does not name one explicitly.
func loadConfig() (config.Config, *Paths, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("resolve paths: %w", err)
	}

	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if cfg.DBPath == config.DefaultDBPath() {
		cfg.DBPath = paths.DBPath
	}
	return cfg, paths, nil
}
