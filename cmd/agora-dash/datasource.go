package main

import (
	"context"
	"os"
	"path/filepath"

	"agora/pkg/eventlog"
	"agora/pkg/protocol"
)

// Snapshot is one consistent read of the coordination database: every room,
// every registration, the pending dependency queue, and the newest messages
// of the room the stream view is showing.
type Snapshot struct {
	Rooms    []eventlog.RoomActivity
	Agents   []protocol.Registration
	Pending  []protocol.Dependency
	Messages []protocol.Message
}

// streamLimit bounds how many messages the stream view loads per refresh.
const streamLimit = 200

// fetchSnapshot opens the database read-only, gathers a Snapshot, and closes
// it again. Opening per refresh keeps the dashboard from holding a connection
// across ticks while the daemon is writing.
//
// Error cases:
//   - dbPath does not exist → returns error (dashboard shows offline)
//   - any query error → returns error
func fetchSnapshot(ctx context.Context, dbPath, room string) (Snapshot, error) {
	r, err := eventlog.NewReader(dbPath)
	if err != nil {
		return Snapshot{}, err
	}
	defer r.Close()

	var snap Snapshot
	if snap.Rooms, err = r.Rooms(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Agents, err = r.Agents(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Pending, err = r.PendingDependencies(ctx); err != nil {
		return Snapshot{}, err
	}
	if room != "" {
		if snap.Messages, err = r.Messages(ctx, eventlog.QueryOpts{Room: room, Limit: streamLimit}); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// defaultDBPath returns the coordination database path from env or default.
func defaultDBPath() string {
	if v := os.Getenv("AGORA_DB_PATH"); v != "" {
		return v
	}
	home := os.Getenv("AGORA_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		home = filepath.Join(userHome, protocol.AgoraDir)
	}
	return filepath.Join(home, protocol.DBFileName)
}
