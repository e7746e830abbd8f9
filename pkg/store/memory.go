package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agora/pkg/protocol"
)

// MemoryScope narrows a memory slot to a pipeline position. Zero values mean
// the slot is agent-global for its type.
type MemoryScope struct {
	Step  int
	Phase string
}

// SaveMemory upserts one memory slot keyed by (agentID, memoryType, scope).
// At most one record exists per composite key.
func (s *Store) SaveMemory(ctx context.Context, agentID, memoryType, content string, scope MemoryScope) error {
	if agentID == "" || memoryType == "" {
		return fmt.Errorf("save memory: agent id and memory type are required")
	}

	now := s.nowFunc().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (agent_id, memory_type, step, phase, content, last_accessed, utility_score)
		 VALUES (?, ?, ?, ?, ?, ?, 0.5)
		 ON CONFLICT(agent_id, memory_type, step, phase) DO UPDATE SET
		     content = excluded.content,
		     last_accessed = excluded.last_accessed`,
		agentID, memoryType, scope.Step, scope.Phase, content, now,
	)
	if err != nil {
		return fmt.Errorf("save memory %s/%s: %w", agentID, memoryType, err)
	}
	return nil
}

// LoadMemory point-reads one memory slot. The read touches last_accessed and
// nudges utility_score up, so frequently consulted slots rank higher when
// summarizing. Absence yields ok=false, not an error.
func (s *Store) LoadMemory(ctx context.Context, agentID, memoryType string, scope MemoryScope) (protocol.MemoryRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT agent_id, memory_type, step, phase, content, last_accessed, utility_score
		 FROM memories WHERE agent_id = ? AND memory_type = ? AND step = ? AND phase = ?`,
		agentID, memoryType, scope.Step, scope.Phase,
	)

	var rec protocol.MemoryRecord
	err := row.Scan(&rec.AgentID, &rec.MemoryType, &rec.Step, &rec.Phase,
		&rec.Content, &rec.LastAccessed, &rec.UtilityScore)
	if errors.Is(err, sql.ErrNoRows) {
		return protocol.MemoryRecord{}, false, nil
	}
	if err != nil {
		return protocol.MemoryRecord{}, false, fmt.Errorf("load memory %s/%s: %w", agentID, memoryType, err)
	}

	now := s.nowFunc().UnixMilli()
	// Utility grows on every read, capped at 1.0.
	_, err = s.db.ExecContext(ctx,
		`UPDATE memories SET last_accessed = ?, utility_score = MIN(1.0, utility_score + 0.05)
		 WHERE agent_id = ? AND memory_type = ? AND step = ? AND phase = ?`,
		now, agentID, memoryType, scope.Step, scope.Phase,
	)
	if err != nil {
		return protocol.MemoryRecord{}, false, fmt.Errorf("touch memory %s/%s: %w", agentID, memoryType, err)
	}
	rec.LastAccessed = now

	return rec, true, nil
}

// HasMemory reports whether any slot exists for (agentID, memoryType) in any
// scope, without touching last_accessed.
func (s *Store) HasMemory(ctx context.Context, agentID, memoryType string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE agent_id = ? AND memory_type = ?`,
		agentID, memoryType).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has memory %s/%s: %w", agentID, memoryType, err)
	}
	return n > 0, nil
}

// ListMemories returns all memory slots for an agent, highest utility first.
func (s *Store) ListMemories(ctx context.Context, agentID string) ([]protocol.MemoryRecord, error) {
	return s.queryMemories(ctx,
		`SELECT agent_id, memory_type, step, phase, content, last_accessed, utility_score
		 FROM memories WHERE agent_id = ?
		 ORDER BY utility_score DESC, last_accessed DESC`, agentID)
}

// TopMemories returns the limit highest-utility slots across all agents,
// weighting utility by recency so stale slots decay out of summaries.
func (s *Store) TopMemories(ctx context.Context, limit int) ([]protocol.MemoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	// Recency decay with a 7-day half-life over epoch-millis age.
	return s.queryMemories(ctx,
		`SELECT agent_id, memory_type, step, phase, content, last_accessed, utility_score
		 FROM memories
		 ORDER BY utility_score * POWER(0.5, (? - last_accessed) / 604800000.0) DESC
		 LIMIT ?`, s.nowFunc().UnixMilli(), limit)
}

func (s *Store) queryMemories(ctx context.Context, q string, args ...any) ([]protocol.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var recs []protocol.MemoryRecord
	for rows.Next() {
		var rec protocol.MemoryRecord
		if err := rows.Scan(&rec.AgentID, &rec.MemoryType, &rec.Step, &rec.Phase,
			&rec.Content, &rec.LastAccessed, &rec.UtilityScore); err != nil {
			return nil, fmt.Errorf("query memories scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query memories rows: %w", err)
	}
	return recs, nil
}
