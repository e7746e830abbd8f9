package protocol

import (
	"fmt"
	"strings"
)

// StoreUnavailableError reports that the backing medium could not be opened
// or a write could not complete within the contention budget. Callers should
// retry with backoff. It enables typed discrimination via errors.As.
type StoreUnavailableError struct {
	Op     string // operation that failed, e.g. "append", "open"
	Path   string // database path, if known
	Reason string
}

func (e *StoreUnavailableError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store unavailable during %s (%s): %s", e.Op, e.Path, e.Reason)
	}
	return fmt.Sprintf("store unavailable during %s: %s", e.Op, e.Reason)
}

// InvalidProfileError reports a malformed agent registration input. The
// registration is rejected whole; nothing is partially applied.
type InvalidProfileError struct {
	AgentID string
	Reason  string
}

func (e *InvalidProfileError) Error() string {
	if e.AgentID != "" {
		return fmt.Sprintf("invalid profile for agent %s: %s", e.AgentID, e.Reason)
	}
	return fmt.Sprintf("invalid profile: %s", e.Reason)
}

// CircularDependencyError carries a detected wait cycle. It is reported as a
// critical event, never used to abort the coordinator: automatic cycle
// breaking could strand work silently, so operators must intervene.
type CircularDependencyError struct {
	Cycle []string // agents in cycle order, starting at the queried agent
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}
