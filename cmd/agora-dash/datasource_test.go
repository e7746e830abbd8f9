package main

import (
	"context"
	"path/filepath"
	"testing"

	"agora/pkg/protocol"
	"agora/pkg/store"
)

func TestFetchSnapshot(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "agora.db")

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if _, err := s.Append(ctx, "planning", "kickoff", protocol.MessageContext{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(ctx, "planning", "scoped", protocol.MessageContext{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RegisterAgent(ctx, "coder-1", protocol.Profile{Capabilities: []string{"coding"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertDependency(ctx, "coder-1", protocol.DepTaskComplete, "task-1"); err != nil {
		t.Fatal(err)
	}

	t.Run("without a room", func(t *testing.T) {
		snap, err := fetchSnapshot(ctx, dbPath, "")
		if err != nil {
			t.Fatalf("fetchSnapshot: %v", err)
		}
		if len(snap.Rooms) != 1 || snap.Rooms[0].Room != "planning" || snap.Rooms[0].Messages != 2 {
			t.Errorf("rooms = %+v", snap.Rooms)
		}
		if len(snap.Agents) != 1 || snap.Agents[0].AgentID != "coder-1" {
			t.Errorf("agents = %+v", snap.Agents)
		}
		if len(snap.Pending) != 1 {
			t.Errorf("pending = %+v", snap.Pending)
		}
		if snap.Messages != nil {
			t.Errorf("messages = %+v, want none", snap.Messages)
		}
	})

	t.Run("with a room", func(t *testing.T) {
		snap, err := fetchSnapshot(ctx, dbPath, "planning")
		if err != nil {
			t.Fatalf("fetchSnapshot: %v", err)
		}
		if len(snap.Messages) != 2 {
			t.Errorf("messages = %+v", snap.Messages)
		}
	})
}

func TestFetchSnapshotMissingDatabase(t *testing.T) {
	_, err := fetchSnapshot(context.Background(), filepath.Join(t.TempDir(), "absent.db"), "")
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("AGORA_DB_PATH wins", func(t *testing.T) {
		t.Setenv("AGORA_DB_PATH", "/tmp/custom.db")
		t.Setenv("AGORA_HOME", "/tmp/agora-home")
		if got := defaultDBPath(); got != "/tmp/custom.db" {
			t.Errorf("defaultDBPath() = %q", got)
		}
	})

	t.Run("AGORA_HOME places the database", func(t *testing.T) {
		t.Setenv("AGORA_DB_PATH", "")
		t.Setenv("AGORA_HOME", "/tmp/agora-home")
		if got := defaultDBPath(); got != filepath.Join("/tmp/agora-home", protocol.DBFileName) {
			t.Errorf("defaultDBPath() = %q", got)
		}
	})
}
