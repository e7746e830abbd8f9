// Package store implements the Agora durable store: a room-partitioned
// append-only message log plus agent registrations and per-agent memory,
// backed by SQLite in WAL mode. Appends are atomic with respect to
// concurrent readers; registration and memory writes are upserts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"agora/pkg/protocol"

	_ "modernc.org/sqlite" // SQLite driver
)

// appendRetries bounds the retry loop for appends that hit lock contention
// beyond the driver's busy timeout. Exhausting it yields StoreUnavailable.
const appendRetries = 3

// Store manages the coordination database.
type Store struct {
	db   *sql.DB
	path string

	// appendMu serializes appends. Both the timestamp assignment and the
	// INSERT run under the lock, so seq order equals timestamp order and
	// in-process writers never contend on the database. Reads never take
	// this lock.
	appendMu sync.Mutex
	lastTS   int64

	subs *subscribers

	// nowFunc allows tests to control time.
	nowFunc func() time.Time
}

// Open opens (or creates) the coordination database at path with
// production-safe defaults: WAL journal mode and a 5-second busy timeout.
// Both pragmas ride the DSN so every pooled connection gets them; a PRAGMA
// statement would only reach the one connection that happened to run it.
// The schema is applied idempotently. Failure to open yields StoreUnavailable.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &protocol.StoreUnavailableError{Op: "open", Path: path, Reason: err.Error()}
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &protocol.StoreUnavailableError{Op: "open", Path: path, Reason: err.Error()}
	}

	if _, err := db.ExecContext(ctx, protocol.SchemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema on %s: %w", path, err)
	}

	// Migration errors are intentionally ignored (try/ignore pattern):
	// ALTER TABLE fails when the column already exists.
	_, _ = db.ExecContext(ctx, protocol.MigrateStoppedAt)

	return NewWithDB(db, path), nil
}

// NewWithDB wraps an already-opened database. The caller owns schema setup.
// Used by tests with :memory: databases.
func NewWithDB(db *sql.DB, path string) *Store {
	return &Store{
		db:      db,
		path:    path,
		subs:    newSubscribers(),
		nowFunc: time.Now,
	}
}

// Close releases the database connection. Safe to call multiple times.
func (s *Store) Close() error {
	s.subs.closeAll()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for read-only adapters.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetNowFunc overrides the store clock. Test use only.
func (s *Store) SetNowFunc(f func() time.Time) {
	s.nowFunc = f
}

// Append writes one message to a room and returns it with its assigned
// timestamp and sequence number. The timestamp is >= every previously
// assigned timestamp; ties within a millisecond are ordered by seq.
// Lock contention beyond the retry budget yields StoreUnavailable.
func (s *Store) Append(ctx context.Context, room, body string, mctx protocol.MessageContext) (protocol.Message, error) {
	return s.AppendFrom(ctx, room, body, "", mctx)
}

// AppendFrom is Append with an explicit sender. A non-empty sender also
// refreshes that agent's last_seen (heartbeat piggyback).
func (s *Store) AppendFrom(ctx context.Context, room, body, sender string, mctx protocol.MessageContext) (protocol.Message, error) {
	if room == "" {
		room = protocol.RoomCoordination
	}

	seq, ts, err := s.insertMessage(ctx, room, body, sender, mctx)
	if err != nil {
		return protocol.Message{}, err
	}

	if sender != "" {
		// Best effort: an unknown sender is not an error.
		_ = s.Heartbeat(ctx, sender)
	}

	msg := protocol.Message{
		Seq:       seq,
		Room:      room,
		Body:      body,
		Sender:    sender,
		Timestamp: ts,
		Context:   mctx,
	}

	s.subs.publish(msg)

	return msg, nil
}

// insertMessage assigns the next timestamp and runs the INSERT, both under
// appendMu, so rows land in timestamp order. The retry loop only matters
// when another process holds the database lock past the busy timeout.
func (s *Store) insertMessage(ctx context.Context, room, body, sender string, mctx protocol.MessageContext) (int64, int64, error) {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	ts := s.nowFunc().UnixMilli()
	if ts < s.lastTS {
		ts = s.lastTS
	}
	s.lastTS = ts

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		res, execErr := s.db.ExecContext(ctx,
			`INSERT INTO messages (room, body, sender, ts, step, phase, priority, task_id, target, kind)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			room, body, sender, ts, mctx.Step, mctx.Phase, mctx.Priority, mctx.TaskID, mctx.Target, mctx.Kind,
		)
		if execErr == nil {
			seq, err := res.LastInsertId()
			if err != nil {
				return 0, 0, fmt.Errorf("append last insert id: %w", err)
			}
			return seq, ts, nil
		}
		lastErr = execErr
		if ctx.Err() != nil {
			return 0, 0, fmt.Errorf("append cancelled: %w", ctx.Err())
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return 0, 0, &protocol.StoreUnavailableError{Op: "append", Path: s.path, Reason: lastErr.Error()}
}

// Filter restricts a Read. Zero values mean "no restriction".
type Filter struct {
	Sender  string
	Kind    string
	TaskID  string
	Target  string
	SinceTS int64 // timestamp lower bound, inclusive
	Limit   int   // return only the most recent N, still in insertion order
}

// Read returns a room's messages in insertion order. An unknown room yields
// an empty slice, not an error.
func (s *Store) Read(ctx context.Context, room string, f Filter) ([]protocol.Message, error) {
	conditions := []string{"room = ?"}
	args := []any{room}

	if f.Sender != "" {
		conditions = append(conditions, "sender = ?")
		args = append(args, f.Sender)
	}
	if f.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.TaskID != "" {
		conditions = append(conditions, "task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.Target != "" {
		conditions = append(conditions, "target = ?")
		args = append(args, f.Target)
	}
	if f.SinceTS > 0 {
		conditions = append(conditions, "ts >= ?")
		args = append(args, f.SinceTS)
	}

	q := `SELECT seq, room, body, sender, ts, step, phase, priority, task_id, target, kind
	      FROM messages WHERE ` + strings.Join(conditions, " AND ")

	if f.Limit > 0 {
		// Most recent N, re-sorted into insertion order.
		q = `SELECT * FROM (` + q + ` ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`
		args = append(args, f.Limit)
	} else {
		q += ` ORDER BY seq ASC`
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", room, err)
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
			return nil, fmt.Errorf("read scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return msgs, nil
}

// RoomCount returns the number of messages currently in a room.
func (s *Store) RoomCount(ctx context.Context, room string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE room = ?`, room).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("room count %s: %w", room, err)
	}
	return n, nil
}

// Rooms lists the distinct rooms that currently hold messages.
func (s *Store) Rooms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT room FROM messages ORDER BY room`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("list rooms scan: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms rows: %w", err)
	}
	return rooms, nil
}

// ClearRoom hard-deletes all messages in a room and returns the count
// removed. Used only for explicit resets, never in normal operation.
func (s *Store) ClearRoom(ctx context.Context, room string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE room = ?`, room)
	if err != nil {
		return 0, fmt.Errorf("clear room %s: %w", room, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear room rows affected: %w", err)
	}
	return int(n), nil
}

// PurgeOlderThan deletes messages older than the horizon and returns the
// count removed. Runs as a background sweep, never inline with Append.
func (s *Store) PurgeOlderThan(ctx context.Context, horizon time.Duration) (int, error) {
	cutoff := s.nowFunc().Add(-horizon).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return int(n), nil
}
