// Package bus composes the store, router, registry, analyzer, matcher, and
// coordinator into the single coordination surface external callers use:
// post and read messages, register agents, find agents for a task, route an
// assignment, and register dependencies. Everything else in the module is a
// building block of this facade.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"agora/pkg/analyzer"
	"agora/pkg/config"
	"agora/pkg/coordinator"
	"agora/pkg/matcher"
	"agora/pkg/protocol"
	"agora/pkg/registry"
	"agora/pkg/router"
	"agora/pkg/store"
)

// Bus is the coordination facade. Construct with New; Run starts the
// background sweeps and blocks until the context is cancelled. All methods
// are safe for concurrent use.
type Bus struct {
	cfg   config.Config
	store *store.Store
	reg   *registry.Registry
	coord *coordinator.Coordinator

	// mu guards the hot-reloadable policy tables.
	mu    sync.RWMutex
	table *router.Table
	an    *analyzer.Analyzer
	match *matcher.Matcher
}

// New builds a Bus over an opened store, loading the routing and analyzer
// tables named in cfg (built-ins when the files are absent).
func New(cfg config.Config, s *store.Store) (*Bus, error) {
	cfg = cfg.WithDefaults()

	reg := registry.New(s)
	coord := coordinator.New(coordinator.Config{
		LivenessWindow: cfg.LivenessWindow.Std(),
		StaleHorizon:   cfg.DependencyHorizon.Std(),
	}, s, reg)

	b := &Bus{
		cfg:   cfg,
		store: s,
		reg:   reg,
		coord: coord,
	}
	if err := b.reloadTables(); err != nil {
		return nil, err
	}
	return b, nil
}

// reloadTables re-reads the routing and analyzer tables from disk. A parse
// failure keeps the previous tables: a bad edit must not take routing down.
func (b *Bus) reloadTables() error {
	table, err := router.LoadTable(b.cfg.RoutingTablePath)
	if err != nil {
		return fmt.Errorf("load routing table: %w", err)
	}

	anCfg, err := analyzer.LoadConfig(b.cfg.AnalyzerTablePath)
	if err != nil {
		return fmt.Errorf("load analyzer table: %w", err)
	}
	an, err := analyzer.New(anCfg)
	if err != nil {
		return fmt.Errorf("compile analyzer table: %w", err)
	}

	preferred := make(map[string][]string)
	for _, cat := range an.Categories() {
		if len(cat.PreferredAgents) > 0 {
			preferred[cat.Tag] = cat.PreferredAgents
		}
	}

	b.mu.Lock()
	b.table = table
	b.an = an
	b.match = matcher.New(matcher.DefaultWeights(), preferred)
	b.mu.Unlock()
	return nil
}

// Store exposes the underlying store for read-only adapters and tests.
func (b *Bus) Store() *store.Store {
	return b.store
}

// Registry exposes the agent registry view.
func (b *Bus) Registry() *registry.Registry {
	return b.reg
}

// Coordinator exposes the dependency coordinator.
func (b *Bus) Coordinator() *coordinator.Coordinator {
	return b.coord
}

// Receipt acknowledges a posted message.
type Receipt struct {
	Room      string `json:"room"`
	Seq       int64  `json:"seq"`
	Timestamp int64  `json:"timestamp"`
}

// PostMessage appends one message and feeds it to the dependency
// coordinator. Rooms grown past the rotation threshold redirect to their
// successor room; the caller's receipt names the room actually written.
func (b *Bus) PostMessage(ctx context.Context, room, body, sender string, mctx protocol.MessageContext) (Receipt, error) {
	room = b.resolveRoom(ctx, room)

	msg, err := b.store.AppendFrom(ctx, room, body, sender, mctx)
	if err != nil {
		return Receipt{}, err
	}

	if mctx.Kind != "" {
		if err := b.coord.NotifyEvent(ctx, msg); err != nil {
			// The append is already durable, so the caller gets its receipt;
			// a lost receipt invites a duplicate post. The failure is recorded
			// on the events room and CheckDependency re-evaluates on demand.
			_, _ = b.store.Append(ctx, protocol.RoomEvents,
				fmt.Sprintf("dependency re-evaluation failed for message %d: %v", msg.Seq, err),
				protocol.MessageContext{})
		}
	}

	return Receipt{Room: msg.Room, Seq: msg.Seq, Timestamp: msg.Timestamp}, nil
}

// GetMessages returns a room's messages in insertion order, optionally
// filtered. Unknown rooms yield an empty slice.
func (b *Bus) GetMessages(ctx context.Context, room string, f store.Filter) ([]protocol.Message, error) {
	return b.store.Read(ctx, room, f)
}

// Subscribe returns a change-notification channel for a room.
func (b *Bus) Subscribe(room string) *store.Subscription {
	return b.store.Subscribe(room)
}

// RegisterAgent upserts an agent and records the registration on the events
// room.
func (b *Bus) RegisterAgent(ctx context.Context, agentID string, p protocol.Profile) (protocol.Registration, error) {
	reg, err := b.reg.Register(ctx, agentID, p)
	if err != nil {
		return protocol.Registration{}, err
	}
	_, err = b.store.Append(ctx, protocol.RoomEvents,
		fmt.Sprintf("agent %s registered", agentID), protocol.MessageContext{})
	if err != nil {
		return reg, err
	}
	return reg, nil
}

// Requirements optionally constrains FindAgentsForTask.
type Requirements struct {
	ActiveStep        int
	ExtraCapabilities []string
	LivenessWindow    time.Duration // 0 uses the bus default
}

// MatchResult is a ranked candidate list with the derived profile and, when
// the list is empty, a diagnostic reason. An empty result is an expected,
// common outcome, never an error.
type MatchResult struct {
	Profile    protocol.TaskProfile `json:"profile"`
	Candidates []matcher.Candidate  `json:"candidates"`
	Diagnostic string               `json:"diagnostic,omitempty"`
}

// FindAgentsForTask analyzes a description and ranks the active agents
// against it.
func (b *Bus) FindAgentsForTask(ctx context.Context, description string, req Requirements) (MatchResult, error) {
	b.mu.RLock()
	an, match := b.an, b.match
	b.mu.RUnlock()

	profile := an.Analyze(description)
	profile.ActiveStep = req.ActiveStep
	for _, c := range req.ExtraCapabilities {
		if !containsString(profile.RequiredCapabilities, c) {
			profile.RequiredCapabilities = append(profile.RequiredCapabilities, c)
		}
	}

	window := req.LivenessWindow
	if window == 0 {
		window = b.cfg.LivenessWindow.Std()
	}
	active, err := b.reg.Active(ctx, window)
	if err != nil {
		return MatchResult{}, err
	}

	result := MatchResult{Profile: profile}
	if len(active) == 0 {
		result.Diagnostic = "no active agents"
		return result, nil
	}

	result.Candidates = match.Rank(profile, active)

	if len(profile.RequiredCapabilities) > 0 && result.Candidates[0].Score == 0 {
		result.Diagnostic = "no capability match among active agents"
	}
	return result, nil
}

// RouteResult is the outcome of RouteAndNotify.
type RouteResult struct {
	Room         string  `json:"room"`
	TaskID       string  `json:"task_id"`
	EnhancedBody string  `json:"enhanced_body"`
	Receipt      Receipt `json:"receipt"`
}

// RouteAndNotify analyzes a task description, selects its room (honoring the
// target agent's preferred rooms when given), posts the assignment message,
// and returns where it went. The enhanced body carries the task id and
// derived classification so receiving agents need no second lookup.
func (b *Bus) RouteAndNotify(ctx context.Context, description, targetAgent string) (RouteResult, error) {
	b.mu.RLock()
	table, an := b.table, b.an
	b.mu.RUnlock()

	profile := an.Analyze(description)

	var preferred []protocol.RoomPattern
	if targetAgent != "" {
		if reg, ok, err := b.reg.Get(ctx, targetAgent); err != nil {
			return RouteResult{}, err
		} else if ok {
			preferred = reg.Profile.PreferredRooms
		}
	}

	room := table.SelectRoom(description, profile.ActiveStep, "", preferred)
	taskID := uuid.New().String()

	enhanced := fmt.Sprintf("[task %s] [%s] %s", taskID, profile.Complexity, description)
	mctx := protocol.MessageContext{
		TaskID:   taskID,
		Target:   targetAgent,
		Kind:     protocol.KindAssignment,
		Priority: string(profile.Complexity),
	}

	receipt, err := b.PostMessage(ctx, room, enhanced, "", mctx)
	if err != nil {
		return RouteResult{}, err
	}

	return RouteResult{
		Room:         receipt.Room,
		TaskID:       taskID,
		EnhancedBody: enhanced,
		Receipt:      receipt,
	}, nil
}

// RegisterDependency declares a precondition for an agent. If the condition
// already holds it is satisfied synchronously within this call.
func (b *Bus) RegisterDependency(ctx context.Context, waitingAgent string, kind protocol.DependencyKind, target string) (protocol.Dependency, error) {
	return b.coord.RegisterDependency(ctx, waitingAgent, kind, target)
}

// CheckDependency returns the current state of a dependency record.
func (b *Bus) CheckDependency(ctx context.Context, id int64) (protocol.Dependency, error) {
	return b.coord.Check(ctx, id)
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
