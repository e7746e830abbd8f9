package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agora/pkg/protocol"
)

// RegisterAgent upserts an agent registration. A repeat registration
// overwrites the profile and refreshes last_seen; it never duplicates the
// row. A malformed profile is rejected whole with InvalidProfile.
func (s *Store) RegisterAgent(ctx context.Context, agentID string, p protocol.Profile) (protocol.Registration, error) {
	if agentID == "" {
		return protocol.Registration{}, &protocol.InvalidProfileError{Reason: "empty agent id"}
	}
	if err := p.Validate(); err != nil {
		var ipe *protocol.InvalidProfileError
		if errors.As(err, &ipe) {
			ipe.AgentID = agentID
		}
		return protocol.Registration{}, err
	}

	raw, err := protocol.MarshalProfile(p)
	if err != nil {
		return protocol.Registration{}, err
	}

	now := s.nowFunc().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, profile, registered_at, last_seen, stopped_at)
		 VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT(agent_id) DO UPDATE SET
		     profile = excluded.profile,
		     last_seen = excluded.last_seen,
		     stopped_at = 0`,
		agentID, raw, now, now,
	)
	if err != nil {
		return protocol.Registration{}, fmt.Errorf("register agent %s: %w", agentID, err)
	}

	// registered_at keeps its original value on upsert; re-read it.
	return s.GetAgent(ctx, agentID)
}

// Heartbeat refreshes an agent's last_seen. Unknown agents are a no-op.
func (s *Store) Heartbeat(ctx context.Context, agentID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET last_seen = ? WHERE agent_id = ?`,
		s.nowFunc().UnixMilli(), agentID,
	)
	if err != nil {
		return fmt.Errorf("heartbeat %s: %w", agentID, err)
	}
	return nil
}

// MarkStopped records that an agent announced shutdown. The registration is
// kept (agents are never hard-deleted) but excluded from active queries.
func (s *Store) MarkStopped(ctx context.Context, agentID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET stopped_at = ? WHERE agent_id = ?`,
		s.nowFunc().UnixMilli(), agentID,
	)
	if err != nil {
		return fmt.Errorf("mark stopped %s: %w", agentID, err)
	}
	return nil
}

// GetAgent returns one registration. Absence is reported via the ok flag on
// ListAgents-style calls; here it is sql.ErrNoRows wrapped for the caller.
func (s *Store) GetAgent(ctx context.Context, agentID string) (protocol.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT agent_id, profile, registered_at, last_seen, stopped_at
		 FROM agents WHERE agent_id = ?`, agentID)
	return scanRegistration(row)
}

// HasAgent reports whether an agent is registered.
func (s *Store) HasAgent(ctx context.Context, agentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents WHERE agent_id = ?`, agentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has agent %s: %w", agentID, err)
	}
	return n > 0, nil
}

// ListAgents returns every registration, most recently seen first.
func (s *Store) ListAgents(ctx context.Context) ([]protocol.Registration, error) {
	return s.queryAgents(ctx,
		`SELECT agent_id, profile, registered_at, last_seen, stopped_at
		 FROM agents ORDER BY last_seen DESC, agent_id ASC`)
}

// ListActiveAgents returns only agents whose last_seen falls within the
// liveness window and that have not announced shutdown. Most recent first.
func (s *Store) ListActiveAgents(ctx context.Context, livenessWindow time.Duration) ([]protocol.Registration, error) {
	cutoff := s.nowFunc().Add(-livenessWindow).UnixMilli()
	return s.queryAgents(ctx,
		`SELECT agent_id, profile, registered_at, last_seen, stopped_at
		 FROM agents WHERE last_seen > ? AND stopped_at = 0
		 ORDER BY last_seen DESC, agent_id ASC`, cutoff)
}

func (s *Store) queryAgents(ctx context.Context, q string, args ...any) ([]protocol.Registration, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var regs []protocol.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query agents rows: %w", err)
	}
	return regs, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRegistration.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (protocol.Registration, error) {
	var reg protocol.Registration
	var raw string
	if err := row.Scan(&reg.AgentID, &raw, &reg.RegisteredAt, &reg.LastSeen, &reg.StoppedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return protocol.Registration{}, err
		}
		return protocol.Registration{}, fmt.Errorf("scan registration: %w", err)
	}
	p, err := protocol.UnmarshalProfile(raw)
	if err != nil {
		return protocol.Registration{}, err
	}
	reg.Profile = p
	return reg, nil
}
