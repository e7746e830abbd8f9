// Package config loads the Agora daemon configuration from TOML. Routing and
// analyzer tables live in separate YAML files referenced from here, so policy
// tables can be edited and hot-reloaded without touching daemon settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"agora/pkg/protocol"
)

// Duration is a time.Duration that marshals to and from TOML strings in
// time.ParseDuration syntax ("90s", "5m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds daemon settings. Zero values resolve via WithDefaults.
type Config struct {
	DBPath            string   `toml:"db_path"`
	RoutingTablePath  string   `toml:"routing_table_path"`
	AnalyzerTablePath string   `toml:"analyzer_table_path"`
	LivenessWindow    Duration `toml:"liveness_window"`
	RetentionHorizon  Duration `toml:"retention_horizon"`
	DependencyHorizon Duration `toml:"dependency_horizon"`
	SweepInterval     Duration `toml:"sweep_interval"`
	RoomRotateAt      int      `toml:"room_rotate_at"` // messages per room before rotation
}

// WithDefaults returns a copy with unset fields resolved.
func (c Config) WithDefaults() Config {
	out := c
	if out.DBPath == "" {
		out.DBPath = DefaultDBPath()
	}
	if out.LivenessWindow == 0 {
		out.LivenessWindow = Duration(5 * time.Minute)
	}
	if out.RetentionHorizon == 0 {
		out.RetentionHorizon = Duration(14 * 24 * time.Hour)
	}
	if out.DependencyHorizon == 0 {
		out.DependencyHorizon = Duration(24 * time.Hour)
	}
	if out.SweepInterval == 0 {
		out.SweepInterval = Duration(time.Minute)
	}
	if out.RoomRotateAt == 0 {
		out.RoomRotateAt = 10000
	}
	return out
}

// Dir returns the user-level Agora state directory (~/.agora).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return protocol.AgoraDir
	}
	return filepath.Join(home, protocol.AgoraDir)
}

// DefaultDBPath returns the default coordination database location.
func DefaultDBPath() string {
	return filepath.Join(Dir(), protocol.DBFileName)
}

// DefaultConfigPath returns the default TOML config location.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads a TOML config file. A missing file yields the defaults, not an
// error: a bare deployment runs with built-in settings.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}.WithDefaults(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}

// Save writes the config as TOML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
