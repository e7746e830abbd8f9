package coordinator

import (
	"context"
	"fmt"
	"strings"

	"agora/pkg/protocol"
)

// DetectCircularWait walks the blocked-by graph from agent and returns the
// cycle as an ordered agent list if a revisit occurs, or nil if the walk
// reaches a node with no outstanding block. A detected cycle is also emitted
// as a circular-dependency critical event on the events room: cycles are
// reported for operators, never silently broken.
func (c *Coordinator) DetectCircularWait(ctx context.Context, agent string) ([]string, error) {
	edges, err := c.blockedByEdges(ctx)
	if err != nil {
		return nil, err
	}

	// Iterative DFS along the single outgoing chain per agent would miss
	// branches; walk all blockers with a path stack instead.
	var path []string
	onPath := make(map[string]int)
	visited := make(map[string]bool)

	var walk func(node string) []string
	walk = func(node string) []string {
		if idx, ok := onPath[node]; ok {
			return append([]string(nil), path[idx:]...)
		}
		if visited[node] {
			return nil
		}
		visited[node] = true
		onPath[node] = len(path)
		path = append(path, node)

		for _, blocker := range edges[node] {
			if cycle := walk(blocker); cycle != nil {
				return cycle
			}
		}

		delete(onPath, node)
		path = path[:len(path)-1]
		return nil
	}

	cycle := walk(agent)
	if cycle == nil {
		return nil, nil
	}

	cdErr := &protocol.CircularDependencyError{Cycle: cycle}
	body := fmt.Sprintf("CRITICAL %s", cdErr.Error())
	_, err = c.store.Append(ctx, protocol.RoomEvents, body, protocol.MessageContext{
		Kind:     protocol.KindCircularDep,
		Priority: "critical",
		Target:   strings.Join(cycle, ","),
	})
	if err != nil {
		return cycle, err
	}
	return cycle, nil
}

// blockedByEdges builds the blocked-by adjacency from pending dependencies
// whose target names a registered agent (agent-ready waits, or task waits
// addressed at an agent) plus declared profile coordination dependencies
// where the depended-on agent has outstanding pending waits of its own.
func (c *Coordinator) blockedByEdges(ctx context.Context) (map[string][]string, error) {
	pending, err := c.store.PendingDependencies(ctx)
	if err != nil {
		return nil, err
	}

	hasPending := make(map[string]bool)
	for _, dep := range pending {
		hasPending[dep.WaitingAgent] = true
	}

	edges := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	add := func(from, to string) {
		if from == to {
			return
		}
		if seen[from] == nil {
			seen[from] = make(map[string]bool)
		}
		if seen[from][to] {
			return
		}
		seen[from][to] = true
		edges[from] = append(edges[from], to)
	}

	for _, dep := range pending {
		isAgent, err := c.store.HasAgent(ctx, dep.Target)
		if err != nil {
			return nil, err
		}
		if isAgent {
			add(dep.WaitingAgent, dep.Target)
		}
	}

	// Profile-declared coordination dependencies only block while the
	// depended-on agent is itself waiting on something.
	regs, err := c.store.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		for _, dep := range reg.Profile.DependsOn {
			if hasPending[dep] {
				add(reg.AgentID, dep)
			}
		}
	}

	return edges, nil
}
