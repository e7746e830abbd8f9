package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LivenessWindow.Std() != 5*time.Minute {
		t.Errorf("LivenessWindow = %v", cfg.LivenessWindow)
	}
	if cfg.RetentionHorizon.Std() != 14*24*time.Hour {
		t.Errorf("RetentionHorizon = %v", cfg.RetentionHorizon)
	}
	if cfg.RoomRotateAt != 10000 {
		t.Errorf("RoomRotateAt = %d", cfg.RoomRotateAt)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath unset")
	}
}

func TestLoadPartialConfigFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "db_path = \"/var/lib/agora/agora.db\"\nliveness_window = \"90s\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/var/lib/agora/agora.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LivenessWindow.Std() != 90*time.Second {
		t.Errorf("LivenessWindow = %v", cfg.LivenessWindow)
	}
	// Unset fields still resolve.
	if cfg.SweepInterval.Std() != time.Minute {
		t.Errorf("SweepInterval = %v", cfg.SweepInterval)
	}
}

func TestLoadMalformedConfigIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("db_path = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := Config{
		DBPath:         "/tmp/x.db",
		LivenessWindow: Duration(2 * time.Minute),
		RoomRotateAt:   500,
	}.WithDefaults()

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}
