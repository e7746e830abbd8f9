package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message is one immutable communication event in the room log.
// Seq is the store-assigned insertion counter; within a room, (Timestamp, Seq)
// is the total order. Timestamp is epoch milliseconds, monotonically
// non-decreasing per store.
type Message struct {
	Seq       int64          `json:"seq"`
	Room      string         `json:"room"`
	Body      string         `json:"body"`
	Sender    string         `json:"sender,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Context   MessageContext `json:"context"`
}

// MessageContext is the tagged metadata attached to a message. All fields are
// optional; zero values mean "not set". It replaces the open-ended metadata
// bags of ad-hoc coordination logs so filtering stays exhaustively checkable.
type MessageContext struct {
	Step     int    `json:"step,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Priority string `json:"priority,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
	Target   string `json:"target,omitempty"`
	Kind     string `json:"kind,omitempty"` // event kind, e.g. task-complete
}

// Time returns the message timestamp as a time.Time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// RoomPattern pairs a room with the content pattern that routes into it.
type RoomPattern struct {
	Room    string `json:"room" yaml:"room"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Profile declares what an agent can do. Capabilities is required and must be
// non-empty for registration to succeed.
type Profile struct {
	Capabilities    []string      `json:"capabilities" yaml:"capabilities"`
	Specializations []string      `json:"specializations,omitempty" yaml:"specializations,omitempty"`
	TaskAffinities  []string      `json:"task_affinities,omitempty" yaml:"task_affinities,omitempty"`
	StepAffinities  []int         `json:"step_affinities,omitempty" yaml:"step_affinities,omitempty"`
	PreferredRooms  []RoomPattern `json:"preferred_rooms,omitempty" yaml:"preferred_rooms,omitempty"`
	DependsOn       []string      `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Role            string        `json:"role,omitempty" yaml:"role,omitempty"`
}

// Validate checks the profile for registration. A profile without at least
// one capability is malformed.
func (p Profile) Validate() error {
	if len(p.Capabilities) == 0 {
		return &InvalidProfileError{Reason: "profile declares no capabilities"}
	}
	for _, c := range p.Capabilities {
		if strings.TrimSpace(c) == "" {
			return &InvalidProfileError{Reason: "empty capability tag"}
		}
	}
	return nil
}

// HasCapability reports whether the profile declares the given capability.
func (p Profile) HasCapability(cap string) bool {
	for _, c := range p.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// HasTaskAffinity reports whether the profile declares affinity for a task
// type or complexity tier.
func (p Profile) HasTaskAffinity(affinity string) bool {
	for _, a := range p.TaskAffinities {
		if a == affinity {
			return true
		}
	}
	return false
}

// HasStepAffinity reports whether the profile declares affinity for a step.
func (p Profile) HasStepAffinity(step int) bool {
	for _, s := range p.StepAffinities {
		if s == step {
			return true
		}
	}
	return false
}

// AgentStatus is the derived liveness state of a registration. It is computed
// from LastSeen and the liveness window, never stored.
type AgentStatus string

// Agent status constants.
const (
	AgentActive  AgentStatus = "active"
	AgentStale   AgentStatus = "stale"
	AgentStopped AgentStatus = "stopped"
)

// Registration is the current known state of one agent. AgentID is the
// primary key; re-registration overwrites the profile and refreshes LastSeen.
type Registration struct {
	AgentID      string  `json:"agent_id"`
	Profile      Profile `json:"profile"`
	RegisteredAt int64   `json:"registered_at"` // epoch millis
	LastSeen     int64   `json:"last_seen"`     // epoch millis
	StoppedAt    int64   `json:"stopped_at,omitempty"`
}

// Status derives the agent's liveness state at the given instant.
func (r Registration) Status(now time.Time, livenessWindow time.Duration) AgentStatus {
	if r.StoppedAt != 0 {
		return AgentStopped
	}
	if now.UnixMilli()-r.LastSeen < livenessWindow.Milliseconds() {
		return AgentActive
	}
	return AgentStale
}

// MarshalProfile serializes a profile to its JSON column representation.
func MarshalProfile(p Profile) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	return string(b), nil
}

// UnmarshalProfile parses the JSON column representation of a profile.
func UnmarshalProfile(s string) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, nil
}

// DependencyKind classifies what a waiting agent is blocked on.
type DependencyKind string

// Dependency kind constants.
const (
	DepTaskComplete     DependencyKind = "task-complete"
	DepPhaseComplete    DependencyKind = "phase-complete"
	DepResourceExists   DependencyKind = "resource-exists"
	DepContextAvailable DependencyKind = "context-available"
	DepAgentReady       DependencyKind = "agent-ready"
)

// DependencyStatus is the lifecycle state of a dependency record.
// pending -> satisfied is the only transition; satisfied is terminal.
type DependencyStatus string

// Dependency status constants.
const (
	DepPending   DependencyStatus = "pending"
	DepSatisfied DependencyStatus = "satisfied"
)

// Dependency is a declared precondition an agent is waiting on.
type Dependency struct {
	ID           int64            `json:"id"`
	WaitingAgent string           `json:"waiting_agent"`
	Kind         DependencyKind   `json:"kind"`
	Target       string           `json:"target"`
	Status       DependencyStatus `json:"status"`
	CreatedAt    int64            `json:"created_at"` // epoch millis
	SatisfiedAt  int64            `json:"satisfied_at,omitempty"`
}

// MemoryRecord is one durable key-value slot scoped to an agent.
// The composite key is (AgentID, MemoryType, Step, Phase); writes upsert.
type MemoryRecord struct {
	AgentID      string  `json:"agent_id"`
	MemoryType   string  `json:"memory_type"`
	Step         int     `json:"step,omitempty"`
	Phase        string  `json:"phase,omitempty"`
	Content      string  `json:"content"`
	LastAccessed int64   `json:"last_accessed"` // epoch millis, touched on read
	UtilityScore float64 `json:"utility_score"`
}

// ComplexityTier buckets a task description by estimated difficulty.
type ComplexityTier string

// Complexity tier constants, ordered high to low for tier matching.
const (
	TierHigh   ComplexityTier = "high"
	TierMedium ComplexityTier = "medium"
	TierLow    ComplexityTier = "low"
)

// CategoryMatch is one matched task category with its confidence.
type CategoryMatch struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// TaskProfile is the derived classification of a free-text task description.
// It is computed on demand and never persisted as primary data.
type TaskProfile struct {
	Complexity               ComplexityTier  `json:"complexity"`
	Categories               []CategoryMatch `json:"categories"`
	RequiredCapabilities     []string        `json:"required_capabilities"`
	EstimatedDurationMinutes int             `json:"estimated_duration_minutes"`
	Prerequisites            []string        `json:"prerequisites"`
	ActiveStep               int             `json:"active_step,omitempty"`
}

// HasCategory reports whether the profile matched the given category tag.
func (t TaskProfile) HasCategory(tag string) bool {
	for _, c := range t.Categories {
		if c.Tag == tag {
			return true
		}
	}
	return false
}
