package protocol

// SchemaDDL defines the SQLite schema for the Agora coordination database.
// Tables: messages (room-partitioned append-only log), agents (registration
// upserts), memories (composite-key slots), dependencies (pending waits).
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Append-only room message log. seq (rowid) breaks timestamp ties so the
-- per-room order is total even when two appends land in the same millisecond.
CREATE TABLE IF NOT EXISTS messages (
    seq INTEGER PRIMARY KEY,
    room TEXT NOT NULL,
    body TEXT NOT NULL,
    sender TEXT NOT NULL DEFAULT '',
    ts INTEGER NOT NULL,
    step INTEGER NOT NULL DEFAULT 0,
    phase TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT '',
    task_id TEXT NOT NULL DEFAULT '',
    target TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room, seq);
CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room, ts);
CREATE INDEX IF NOT EXISTS idx_messages_kind ON messages(kind);

-- Agent registrations. Upsert semantics: re-registration overwrites profile
-- and refreshes last_seen; rows are never hard-deleted.
CREATE TABLE IF NOT EXISTS agents (
    agent_id TEXT PRIMARY KEY,
    profile TEXT NOT NULL,
    registered_at INTEGER NOT NULL,
    last_seen INTEGER NOT NULL,
    stopped_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_agents_last_seen ON agents(last_seen);

-- Per-agent key-value memory. One row per composite key, upsert on write.
CREATE TABLE IF NOT EXISTS memories (
    agent_id TEXT NOT NULL,
    memory_type TEXT NOT NULL,
    step INTEGER NOT NULL DEFAULT 0,
    phase TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    last_accessed INTEGER NOT NULL,
    utility_score REAL NOT NULL DEFAULT 0.5,
    PRIMARY KEY (agent_id, memory_type, step, phase)
);

-- Declared preconditions agents are waiting on. pending -> satisfied only.
CREATE TABLE IF NOT EXISTS dependencies (
    id INTEGER PRIMARY KEY,
    waiting_agent TEXT NOT NULL,
    kind TEXT NOT NULL,
    target TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at INTEGER NOT NULL,
    satisfied_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_dependencies_status ON dependencies(status);
CREATE INDEX IF NOT EXISTS idx_dependencies_agent ON dependencies(waiting_agent);
`

// MigrateStoppedAt adds the stopped_at column to agents tables created before
// explicit stop tracking. Errors if the column exists; callers ignore the error.
const MigrateStoppedAt = `
ALTER TABLE agents ADD COLUMN stopped_at INTEGER NOT NULL DEFAULT 0;
`
