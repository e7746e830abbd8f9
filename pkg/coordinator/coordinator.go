// Package coordinator tracks dependency-gated handoff between agents. Each
// dependency record moves pending -> satisfied exactly once; satisfaction is
// detected from completion messages observed on the bus and announced with a
// notification message addressed to the waiting agent. Waiting is never a
// blocking call: agents poll or subscribe, the coordinator holds no threads.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"agora/pkg/protocol"
	"agora/pkg/registry"
	"agora/pkg/store"
)

// Config holds coordinator tuning.
type Config struct {
	LivenessWindow time.Duration // for agent-ready checks (default 5m)
	StaleHorizon   time.Duration // pending deps older than this are reaped (default 24h)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.LivenessWindow == 0 {
		out.LivenessWindow = registry.DefaultLivenessWindow
	}
	if out.StaleHorizon == 0 {
		out.StaleHorizon = 24 * time.Hour
	}
	return out
}

// Coordinator owns the dependency lifecycle. It reads and writes through the
// durable store; notifications are ordinary messages on the bus.
type Coordinator struct {
	cfg   Config
	store *store.Store
	reg   *registry.Registry

	// statFunc allows tests to fake resource-exists checks.
	statFunc func(path string) bool
}

// New creates a Coordinator.
func New(cfg Config, s *store.Store, reg *registry.Registry) *Coordinator {
	return &Coordinator{
		cfg:   cfg.withDefaults(),
		store: s,
		reg:   reg,
		statFunc: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// SetStatFunc overrides the resource-exists probe. Test use only.
func (c *Coordinator) SetStatFunc(f func(string) bool) {
	c.statFunc = f
}

// RegisterDependency records a dependency and immediately checks it once.
// A dependency whose condition already holds transitions to satisfied
// synchronously within this call, notification included.
func (c *Coordinator) RegisterDependency(ctx context.Context, waitingAgent string, kind protocol.DependencyKind, target string) (protocol.Dependency, error) {
	dep, err := c.store.InsertDependency(ctx, waitingAgent, kind, target)
	if err != nil {
		return protocol.Dependency{}, err
	}

	ok, err := c.isSatisfied(ctx, dep)
	if err != nil {
		return dep, err
	}
	if ok {
		dep, err = c.satisfy(ctx, dep)
		if err != nil {
			return dep, err
		}
	}
	return dep, nil
}

// Check returns the current state of a dependency record.
func (c *Coordinator) Check(ctx context.Context, id int64) (protocol.Dependency, error) {
	return c.store.GetDependency(ctx, id)
}

// Deregister abandons an agent's pending dependencies (e.g. when the agent
// gives up a long wait) and returns the count removed.
func (c *Coordinator) Deregister(ctx context.Context, waitingAgent string) (int, error) {
	return c.store.DeregisterDependencies(ctx, waitingAgent)
}

// NotifyEvent re-evaluates every pending dependency against an observed bus
// message. Call it for each completion-type message (any message carrying a
// context kind). Satisfied dependencies transition and their waiters are
// notified; delivery is at-least-once, so waiters must treat duplicate
// notifications as idempotent.
func (c *Coordinator) NotifyEvent(ctx context.Context, msg protocol.Message) error {
	if msg.Context.Kind == "" {
		return nil
	}

	pending, err := c.store.PendingDependencies(ctx)
	if err != nil {
		return err
	}

	for _, dep := range pending {
		if !c.eventMatches(dep, msg) {
			ok, err := c.isSatisfied(ctx, dep)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		if _, err := c.satisfy(ctx, dep); err != nil {
			return err
		}
	}
	return nil
}

// eventMatches reports whether this message directly satisfies the
// dependency, without consulting the store again.
func (c *Coordinator) eventMatches(dep protocol.Dependency, msg protocol.Message) bool {
	switch dep.Kind {
	case protocol.DepTaskComplete:
		return msg.Context.Kind == protocol.KindTaskComplete &&
			(msg.Context.TaskID == dep.Target || msg.Room == dep.Target)
	case protocol.DepPhaseComplete:
		return msg.Context.Kind == protocol.KindPhaseComplete && msg.Context.Phase == dep.Target
	case protocol.DepAgentReady:
		return msg.Context.Kind == protocol.KindAgentReady && msg.Sender == dep.Target
	default:
		return false
	}
}

// isSatisfied checks a dependency's condition against current durable state.
func (c *Coordinator) isSatisfied(ctx context.Context, dep protocol.Dependency) (bool, error) {
	switch dep.Kind {
	case protocol.DepTaskComplete:
		// Satisfied by any recorded completion naming the target task or room.
		byTask, err := c.store.Read(ctx, dep.Target, store.Filter{Kind: protocol.KindTaskComplete, Limit: 1})
		if err != nil {
			return false, err
		}
		if len(byTask) > 0 {
			return true, nil
		}
		return c.anyCompletion(ctx, protocol.KindTaskComplete, dep.Target)

	case protocol.DepPhaseComplete:
		return c.anyPhaseCompletion(ctx, dep.Target)

	case protocol.DepResourceExists:
		return c.statFunc(dep.Target), nil

	case protocol.DepContextAvailable:
		agentID, memoryType, ok := strings.Cut(dep.Target, ":")
		if !ok {
			return false, nil
		}
		return c.store.HasMemory(ctx, agentID, memoryType)

	case protocol.DepAgentReady:
		return c.reg.IsActive(ctx, dep.Target, c.cfg.LivenessWindow)

	default:
		return false, fmt.Errorf("unknown dependency kind %q", dep.Kind)
	}
}

// anyCompletion scans all rooms for a completion message whose task id
// matches the target.
func (c *Coordinator) anyCompletion(ctx context.Context, kind, taskID string) (bool, error) {
	rooms, err := c.store.Rooms(ctx)
	if err != nil {
		return false, err
	}
	for _, room := range rooms {
		msgs, err := c.store.Read(ctx, room, store.Filter{Kind: kind, TaskID: taskID, Limit: 1})
		if err != nil {
			return false, err
		}
		if len(msgs) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (c *Coordinator) anyPhaseCompletion(ctx context.Context, phase string) (bool, error) {
	rooms, err := c.store.Rooms(ctx)
	if err != nil {
		return false, err
	}
	for _, room := range rooms {
		msgs, err := c.store.Read(ctx, room, store.Filter{Kind: protocol.KindPhaseComplete, Limit: 50})
		if err != nil {
			return false, err
		}
		for _, m := range msgs {
			if m.Context.Phase == phase {
				return true, nil
			}
		}
	}
	return false, nil
}

// satisfy transitions a dependency and notifies the waiter. The store-level
// transition is compare-and-set on pending, so concurrent satisfiers produce
// at most one transition; the notification itself may repeat (at-least-once).
func (c *Coordinator) satisfy(ctx context.Context, dep protocol.Dependency) (protocol.Dependency, error) {
	changed, err := c.store.SatisfyDependency(ctx, dep.ID)
	if err != nil {
		return dep, err
	}
	dep.Status = protocol.DepSatisfied

	if changed {
		body := fmt.Sprintf("dependency satisfied: %s %s", dep.Kind, dep.Target)
		_, err = c.store.Append(ctx, protocol.RoomCoordination, body, protocol.MessageContext{
			Target: dep.WaitingAgent,
			Kind:   protocol.KindNotification,
		})
		if err != nil {
			return dep, fmt.Errorf("notify waiter %s: %w", dep.WaitingAgent, err)
		}
	}
	return dep, nil
}

// Reap deletes pending dependencies older than the stale horizon and logs
// each to the events room. Abandoned waits must not accumulate silently.
func (c *Coordinator) Reap(ctx context.Context) (int, error) {
	stale, err := c.store.ReapStaleDependencies(ctx, c.cfg.StaleHorizon)
	if err != nil {
		return 0, err
	}
	for _, dep := range stale {
		body := fmt.Sprintf("reaped stale dependency %d: %s waiting on %s %s",
			dep.ID, dep.WaitingAgent, dep.Kind, dep.Target)
		if _, err := c.store.Append(ctx, protocol.RoomEvents, body, protocol.MessageContext{}); err != nil {
			return len(stale), err
		}
	}
	return len(stale), nil
}
