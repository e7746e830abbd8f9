// Package router classifies outbound messages into rooms. SelectRoom is a
// pure function of its inputs and a static pattern table: no store access,
// no side effects, deterministic for identical inputs.
package router

import (
	"fmt"
	"regexp"

	"agora/pkg/protocol"
)

// Route is one (room, pattern) pair. Patterns are case-insensitive regular
// expressions matched against the message text.
type Route struct {
	Room    string `yaml:"room"`
	Pattern string `yaml:"pattern"`
}

// StepRoute scopes routes to one pipeline step.
type StepRoute struct {
	Step   int     `yaml:"step"`
	Routes []Route `yaml:"routes"`
}

// PhaseRoute scopes routes to one named phase.
type PhaseRoute struct {
	Phase  string  `yaml:"phase"`
	Routes []Route `yaml:"routes"`
}

// TableConfig is the YAML shape of a routing table.
type TableConfig struct {
	Steps   []StepRoute  `yaml:"steps,omitempty"`
	Phases  []PhaseRoute `yaml:"phases,omitempty"`
	Global  []Route      `yaml:"global"`
	Default string       `yaml:"default,omitempty"`
}

type compiledRoute struct {
	room string
	re   *regexp.Regexp
}

// Table is a compiled routing table. Build one with Compile or DefaultTable;
// a Table is immutable after construction and safe for concurrent use.
type Table struct {
	steps     map[int][]compiledRoute
	phases    map[string][]compiledRoute
	global    []compiledRoute
	defaultTo string
}

// Compile validates and compiles a table configuration. Every pattern must be
// a valid regular expression; compilation is all-or-nothing.
func Compile(cfg TableConfig) (*Table, error) {
	t := &Table{
		steps:     make(map[int][]compiledRoute),
		phases:    make(map[string][]compiledRoute),
		defaultTo: cfg.Default,
	}
	if t.defaultTo == "" {
		t.defaultTo = protocol.RoomCoordination
	}

	for _, sr := range cfg.Steps {
		routes, err := compileRoutes(sr.Routes)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", sr.Step, err)
		}
		t.steps[sr.Step] = routes
	}
	for _, pr := range cfg.Phases {
		routes, err := compileRoutes(pr.Routes)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", pr.Phase, err)
		}
		t.phases[pr.Phase] = routes
	}
	global, err := compileRoutes(cfg.Global)
	if err != nil {
		return nil, fmt.Errorf("global: %w", err)
	}
	t.global = global

	return t, nil
}

func compileRoutes(routes []Route) ([]compiledRoute, error) {
	out := make([]compiledRoute, 0, len(routes))
	for _, r := range routes {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("room %s pattern %q: %w", r.Room, r.Pattern, err)
		}
		out = append(out, compiledRoute{room: r.Room, re: re})
	}
	return out, nil
}

// SelectRoom picks the destination room for a message. Resolution order,
// first match wins:
//
//  1. The target agent's preferred rooms, if the text matches that room's
//     declared pattern.
//  2. Step-scoped routes for the given step.
//  3. Phase-scoped routes for the given phase.
//  4. The global ordered route table.
//  5. The default catch-all room.
//
// preferred comes from the target agent's registered profile; callers with
// no target pass nil.
func (t *Table) SelectRoom(text string, step int, phase string, preferred []protocol.RoomPattern) string {
	for _, p := range preferred {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			continue // a broken preferred pattern never blocks routing
		}
		if re.MatchString(text) {
			return p.Room
		}
	}

	if step != 0 {
		for _, r := range t.steps[step] {
			if r.re.MatchString(text) {
				return r.room
			}
		}
	}

	if phase != "" {
		for _, r := range t.phases[phase] {
			if r.re.MatchString(text) {
				return r.room
			}
		}
	}

	for _, r := range t.global {
		if r.re.MatchString(text) {
			return r.room
		}
	}

	return t.defaultTo
}

// Default returns the table's catch-all room.
func (t *Table) Default() string {
	return t.defaultTo
}
