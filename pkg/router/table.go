package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTableConfig returns the built-in routing table. Step and phase
// scopes route pipeline traffic into stage rooms; the global table catches
// cross-cutting traffic. Order matters: more specific rooms come first.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Steps: []StepRoute{
			{Step: 8, Routes: []Route{
				{Room: "step-8-slices", Pattern: `slice|phase \d+ (complete|done)|handoff`},
			}},
			{Step: 9, Routes: []Route{
				{Room: "step-9-review", Pattern: `review|approve|reject|feedback`},
			}},
		},
		Phases: []PhaseRoute{
			{Phase: "planning", Routes: []Route{
				{Room: "planning", Pattern: `plan|design|architect|estimate`},
			}},
			{Phase: "verification", Routes: []Route{
				{Room: "verification", Pattern: `verif|test|validate|check`},
			}},
		},
		Global: []Route{
			{Room: "blockers", Pattern: `blocked|blocker|stuck|waiting on|cannot proceed`},
			{Room: "task-handoff", Pattern: `handoff|hand off|take over|assigned to you`},
			{Room: "implementation", Pattern: `implement|code|build|refactor|fix`},
			{Room: "testing", Pattern: `test|spec|coverage|regression`},
			{Room: "review", Pattern: `review|lgtm|approve`},
			{Room: "status", Pattern: `status|progress|update|complete|done`},
		},
		Default: "coordination",
	}
}

// LoadTable reads and compiles a routing table from a YAML file. A missing
// file is not an error: the built-in table is returned so a bare deployment
// routes sensibly without configuration.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Compile(DefaultTableConfig())
	}
	if err != nil {
		return nil, fmt.Errorf("read routing table %s: %w", path, err)
	}

	var cfg TableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse routing table %s: %w", path, err)
	}
	if len(cfg.Global) == 0 && len(cfg.Steps) == 0 && len(cfg.Phases) == 0 {
		return Compile(DefaultTableConfig())
	}
	return Compile(cfg)
}
