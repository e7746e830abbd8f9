// Package eventlog provides read-only access to the Agora coordination
// database. Dashboards and tail tools use it so they never contend with the
// daemon's writer connection.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"agora/pkg/protocol"

	_ "modernc.org/sqlite" // SQLite driver
)

// QueryOpts specifies filter criteria for querying messages.
type QueryOpts struct {
	// Room restricts to one room; empty means all rooms.
	Room string

	// Sender restricts to one sending agent.
	Sender string

	// Kind restricts to a context kind (e.g. "task-complete").
	Kind string

	// After restricts to messages at or after this time.
	After *time.Time

	// Limit restricts the result to the most recent N (0 = no limit).
	Limit int
}

// Reader provides read-only access to the coordination database.
type Reader struct {
	db *sql.DB
}

// NewReader opens the database in read-only mode with WAL so it never blocks
// the daemon. Returns an error if the database doesn't exist.
func NewReader(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Reader{db: db}, nil
}

// Close releases the database connection. Safe to call multiple times.
func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Messages retrieves messages matching the criteria, newest first. Returns
// an empty slice if nothing matches.
func (r *Reader) Messages(ctx context.Context, opts QueryOpts) ([]protocol.Message, error) {
	query, args := buildQuery(opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []protocol.Message
	for rows.Next() {
		var m protocol.Message
		if err := rows.Scan(
			&m.Seq, &m.Room, &m.Body, &m.Sender, &m.Timestamp,
			&m.Context.Step, &m.Context.Phase, &m.Context.Priority,
			&m.Context.TaskID, &m.Context.Target, &m.Context.Kind,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return msgs, nil
}

// Agents returns every registration, most recently seen first.
func (r *Reader) Agents(ctx context.Context) ([]protocol.Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT agent_id, profile, registered_at, last_seen, stopped_at
		 FROM agents ORDER BY last_seen DESC, agent_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var regs []protocol.Registration
	for rows.Next() {
		var reg protocol.Registration
		var raw string
		if err := rows.Scan(&reg.AgentID, &raw, &reg.RegisteredAt, &reg.LastSeen, &reg.StoppedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		p, err := protocol.UnmarshalProfile(raw)
		if err != nil {
			return nil, err
		}
		reg.Profile = p
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return regs, nil
}

// RoomActivity summarizes one room's message traffic.
type RoomActivity struct {
	Room     string
	Messages int
	LastSeen int64 // epoch millis of the newest message
}

// Rooms returns every room with its message count, most recently active first.
func (r *Reader) Rooms(ctx context.Context) ([]RoomActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT room, COUNT(*), MAX(ts)
		 FROM messages GROUP BY room ORDER BY MAX(ts) DESC, room ASC`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []RoomActivity
	for rows.Next() {
		var ra RoomActivity
		if err := rows.Scan(&ra.Room, &ra.Messages, &ra.LastSeen); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// PendingDependencies returns unsatisfied dependency records, oldest first.
func (r *Reader) PendingDependencies(ctx context.Context) ([]protocol.Dependency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, waiting_agent, kind, target, status, created_at, satisfied_at
		 FROM dependencies WHERE status = 'pending' ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var deps []protocol.Dependency
	for rows.Next() {
		var d protocol.Dependency
		if err := rows.Scan(&d.ID, &d.WaitingAgent, &d.Kind, &d.Target, &d.Status, &d.CreatedAt, &d.SatisfiedAt); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return deps, nil
}

// buildQuery constructs the SQL query and arguments from QueryOpts.
func buildQuery(opts QueryOpts) (string, []any) {
	var conditions []string
	var args []any

	query := `SELECT seq, room, body, sender, ts, step, phase, priority, task_id, target, kind
	          FROM messages WHERE 1=1`

	if opts.Room != "" {
		conditions = append(conditions, "room = ?")
		args = append(args, opts.Room)
	}
	if opts.Sender != "" {
		conditions = append(conditions, "sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.After != nil {
		conditions = append(conditions, "ts >= ?")
		args = append(args, opts.After.UnixMilli())
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY seq DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	return query, args
}
