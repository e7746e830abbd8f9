// Package registry answers liveness and capability questions about
// registered agents. It is a stateless view over the durable store: the
// store owns the rows, the registry owns the derived queries.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agora/pkg/protocol"
	"agora/pkg/store"
)

// DefaultLivenessWindow is used when the caller does not pass a window.
const DefaultLivenessWindow = 5 * time.Minute

// Registry wraps a store's agent operations with liveness computation.
type Registry struct {
	store *store.Store

	// nowFunc allows tests to control time.
	nowFunc func() time.Time
}

// New creates a Registry over a store.
func New(s *store.Store) *Registry {
	return &Registry{store: s, nowFunc: time.Now}
}

// SetNowFunc overrides the registry clock. Test use only.
func (r *Registry) SetNowFunc(f func() time.Time) {
	r.nowFunc = f
}

// Register upserts an agent. Validation failures yield InvalidProfile and
// leave existing state untouched.
func (r *Registry) Register(ctx context.Context, agentID string, p protocol.Profile) (protocol.Registration, error) {
	return r.store.RegisterAgent(ctx, agentID, p)
}

// Heartbeat refreshes an agent's last_seen.
func (r *Registry) Heartbeat(ctx context.Context, agentID string) error {
	return r.store.Heartbeat(ctx, agentID)
}

// IsActive reports whether an agent's last heartbeat falls within the
// liveness window. An unknown agent is simply not active, never an error.
func (r *Registry) IsActive(ctx context.Context, agentID string, livenessWindow time.Duration) (bool, error) {
	if livenessWindow <= 0 {
		livenessWindow = DefaultLivenessWindow
	}
	reg, err := r.store.GetAgent(ctx, agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is active %s: %w", agentID, err)
	}
	return reg.Status(r.nowFunc(), livenessWindow) == protocol.AgentActive, nil
}

// Get returns one registration and whether it exists.
func (r *Registry) Get(ctx context.Context, agentID string) (protocol.Registration, bool, error) {
	reg, err := r.store.GetAgent(ctx, agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return protocol.Registration{}, false, nil
	}
	if err != nil {
		return protocol.Registration{}, false, err
	}
	return reg, true, nil
}

// Active returns all active registrations, most recently seen first.
func (r *Registry) Active(ctx context.Context, livenessWindow time.Duration) ([]protocol.Registration, error) {
	if livenessWindow <= 0 {
		livenessWindow = DefaultLivenessWindow
	}
	return r.store.ListActiveAgents(ctx, livenessWindow)
}

// FindByCapability returns the IDs of every registered agent declaring the
// capability, most recently seen first. No match yields an empty slice.
func (r *Registry) FindByCapability(ctx context.Context, capability string) ([]string, error) {
	regs, err := r.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("find by capability %s: %w", capability, err)
	}
	var ids []string
	for _, reg := range regs {
		if reg.Profile.HasCapability(capability) {
			ids = append(ids, reg.AgentID)
		}
	}
	return ids, nil
}

// ValidationResult reports whether an agent's declared coordination
// dependencies are all registered.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
}

// ValidateDependencies checks that every agent this one declares a
// coordination dependency on (profile depends_on) is itself registered.
// An unknown agent validates trivially: absence is a normal state.
func (r *Registry) ValidateDependencies(ctx context.Context, agentID string) (ValidationResult, error) {
	reg, ok, err := r.Get(ctx, agentID)
	if err != nil {
		return ValidationResult{}, err
	}
	if !ok {
		return ValidationResult{Valid: true}, nil
	}

	result := ValidationResult{Valid: true}
	for _, dep := range reg.Profile.DependsOn {
		exists, err := r.store.HasAgent(ctx, dep)
		if err != nil {
			return ValidationResult{}, fmt.Errorf("validate dependencies %s: %w", agentID, err)
		}
		if !exists {
			result.Valid = false
			result.Missing = append(result.Missing, dep)
		}
	}
	return result, nil
}
