package store

import (
	"context"
	"fmt"
	"time"

	"agora/pkg/protocol"
)

// InsertDependency records a new pending dependency and returns it with its
// assigned ID.
func (s *Store) InsertDependency(ctx context.Context, waitingAgent string, kind protocol.DependencyKind, target string) (protocol.Dependency, error) {
	now := s.nowFunc().UnixMilli()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO dependencies (waiting_agent, kind, target, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		waitingAgent, string(kind), target, string(protocol.DepPending), now,
	)
	if err != nil {
		return protocol.Dependency{}, fmt.Errorf("insert dependency: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return protocol.Dependency{}, fmt.Errorf("insert dependency id: %w", err)
	}
	return protocol.Dependency{
		ID:           id,
		WaitingAgent: waitingAgent,
		Kind:         kind,
		Target:       target,
		Status:       protocol.DepPending,
		CreatedAt:    now,
	}, nil
}

// SatisfyDependency transitions a dependency to satisfied. The transition is
// one-way: a satisfied row is never reverted. Returns false if the row was
// already satisfied (idempotent re-delivery).
func (s *Store) SatisfyDependency(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dependencies SET status = ?, satisfied_at = ?
		 WHERE id = ? AND status = ?`,
		string(protocol.DepSatisfied), s.nowFunc().UnixMilli(), id, string(protocol.DepPending),
	)
	if err != nil {
		return false, fmt.Errorf("satisfy dependency %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("satisfy dependency rows affected: %w", err)
	}
	return n > 0, nil
}

// GetDependency returns one dependency row by ID.
func (s *Store) GetDependency(ctx context.Context, id int64) (protocol.Dependency, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, waiting_agent, kind, target, status, created_at, satisfied_at
		 FROM dependencies WHERE id = ?`, id)
	var d protocol.Dependency
	var kind, status string
	if err := row.Scan(&d.ID, &d.WaitingAgent, &kind, &d.Target, &status, &d.CreatedAt, &d.SatisfiedAt); err != nil {
		return protocol.Dependency{}, fmt.Errorf("get dependency %d: %w", id, err)
	}
	d.Kind = protocol.DependencyKind(kind)
	d.Status = protocol.DependencyStatus(status)
	return d, nil
}

// PendingDependencies returns every pending dependency, oldest first.
func (s *Store) PendingDependencies(ctx context.Context) ([]protocol.Dependency, error) {
	return s.queryDependencies(ctx,
		`SELECT id, waiting_agent, kind, target, status, created_at, satisfied_at
		 FROM dependencies WHERE status = ? ORDER BY id ASC`, string(protocol.DepPending))
}

// DependenciesFor returns all dependencies declared by one agent.
func (s *Store) DependenciesFor(ctx context.Context, waitingAgent string) ([]protocol.Dependency, error) {
	return s.queryDependencies(ctx,
		`SELECT id, waiting_agent, kind, target, status, created_at, satisfied_at
		 FROM dependencies WHERE waiting_agent = ? ORDER BY id ASC`, waitingAgent)
}

// DeregisterDependencies abandons every pending dependency an agent declared
// and returns the count removed. Satisfied rows are kept for the audit trail.
func (s *Store) DeregisterDependencies(ctx context.Context, waitingAgent string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM dependencies WHERE waiting_agent = ? AND status = ?`,
		waitingAgent, string(protocol.DepPending),
	)
	if err != nil {
		return 0, fmt.Errorf("deregister dependencies %s: %w", waitingAgent, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deregister dependencies rows affected: %w", err)
	}
	return int(n), nil
}

// ReapStaleDependencies deletes pending dependencies older than the horizon
// so abandoned waits do not accumulate forever. Returns the reaped rows for
// logging.
func (s *Store) ReapStaleDependencies(ctx context.Context, horizon time.Duration) ([]protocol.Dependency, error) {
	cutoff := s.nowFunc().Add(-horizon).UnixMilli()
	stale, err := s.queryDependencies(ctx,
		`SELECT id, waiting_agent, kind, target, status, created_at, satisfied_at
		 FROM dependencies WHERE status = ? AND created_at < ?`,
		string(protocol.DepPending), cutoff)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM dependencies WHERE status = ? AND created_at < ?`,
		string(protocol.DepPending), cutoff)
	if err != nil {
		return nil, fmt.Errorf("reap stale dependencies: %w", err)
	}
	return stale, nil
}

func (s *Store) queryDependencies(ctx context.Context, q string, args ...any) ([]protocol.Dependency, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var deps []protocol.Dependency
	for rows.Next() {
		var d protocol.Dependency
		var kind, status string
		if err := rows.Scan(&d.ID, &d.WaitingAgent, &kind, &d.Target, &status, &d.CreatedAt, &d.SatisfiedAt); err != nil {
			return nil, fmt.Errorf("query dependencies scan: %w", err)
		}
		d.Kind = protocol.DependencyKind(kind)
		d.Status = protocol.DependencyStatus(status)
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query dependencies rows: %w", err)
	}
	return deps, nil
}
