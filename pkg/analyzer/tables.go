package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the built-in classification table. Tier patterns are
// checked high before medium before low; keep that ordering when editing.
func DefaultConfig() Config {
	return Config{
		Tiers: TierPatterns{
			High: []string{
				`architect|migrat|distributed|concurren|refactor (the|entire|whole)`,
				`multi-agent|orchestrat|end.to.end|across (all|every)`,
				`security audit|performance overhaul`,
			},
			Medium: []string{
				`implement|integrat|auth|api|endpoint|schema|database`,
				`debug|investigate|diagnose`,
				`optimi[sz]e|cache|index`,
			},
			Low: []string{
				`typo|rename|comment|readme|bump|tweak`,
				`format|lint|style`,
			},
		},
		Categories: []Category{
			{
				Tag:            "implementation",
				Patterns:       []string{`implement|build|create|add`, `code|coding|develop|write`, `fix|refactor|patch`},
				RequiredCaps:   []string{"coding", "implementation"},
				Prerequisites:  []string{"planning"},
				DurationFactor: 1.0,
			},
			{
				Tag:            "testing",
				Patterns:       []string{`test|spec|coverage`, `regression|verify|validate`},
				RequiredCaps:   []string{"testing"},
				Prerequisites:  []string{"implementation"},
				DurationFactor: 0.8,
			},
			{
				Tag:            "review",
				Patterns:       []string{`review|audit|inspect`, `feedback|approve`},
				RequiredCaps:   []string{"review"},
				Prerequisites:  []string{"implementation"},
				DurationFactor: 0.6,
			},
			{
				Tag:            "planning",
				Patterns:       []string{`plan|design|architect`, `estimate|scope|break down`},
				RequiredCaps:   []string{"planning"},
				DurationFactor: 0.9,
			},
			{
				Tag:            "research",
				Patterns:       []string{`research|investigate|explore|compare`, `evaluate|benchmark`},
				RequiredCaps:   []string{"research"},
				DurationFactor: 1.2,
			},
			{
				Tag:            "orchestration",
				Patterns:       []string{`orchestrat|coordinat|multi-agent`, `handoff|delegate|assign`},
				RequiredCaps:   []string{"coordination"},
				Prerequisites:  []string{"planning"},
				DurationFactor: 1.5,
			},
			{
				Tag:            "documentation",
				Patterns:       []string{`document|docs|readme|changelog`, `describe|explain`},
				RequiredCaps:   []string{"writing"},
				DurationFactor: 0.5,
			},
		},
	}
}

// LoadConfig reads an analyzer table from a YAML file, falling back to the
// built-in table when the file does not exist or is empty.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read analyzer table %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse analyzer table %s: %w", path, err)
	}
	if len(cfg.Categories) == 0 {
		return DefaultConfig(), nil
	}
	if len(cfg.Tiers.High) == 0 && len(cfg.Tiers.Medium) == 0 && len(cfg.Tiers.Low) == 0 {
		cfg.Tiers = DefaultConfig().Tiers
	}
	return cfg, nil
}
