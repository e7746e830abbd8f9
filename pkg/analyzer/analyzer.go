// Package analyzer decomposes free-text task descriptions into structured
// profiles: complexity tier, category tags with confidence, required
// capabilities, duration estimate, and prerequisite steps. Analyze is a
// total function over a static table: unrecognized input degrades to a
// safe default profile, it never fails.
package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"agora/pkg/protocol"
)

// Category defines one task category: the patterns that detect it, the
// capabilities it demands, the agents that prefer it, and its duration
// adjustment.
type Category struct {
	Tag             string   `yaml:"tag"`
	Patterns        []string `yaml:"patterns"`
	RequiredCaps    []string `yaml:"required_capabilities"`
	PreferredAgents []string `yaml:"preferred_agents,omitempty"`
	Prerequisites   []string `yaml:"prerequisites,omitempty"`
	DurationFactor  float64  `yaml:"duration_factor,omitempty"` // 0 means 1.0
}

// TierPatterns holds the ordered complexity keyword tiers. The first tier
// with a match wins; token count is the fallback. This ordering is the
// tie-break policy and must not be reordered.
type TierPatterns struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// Config is the analyzer's static classification table.
type Config struct {
	Tiers      TierPatterns `yaml:"tiers"`
	Categories []Category   `yaml:"categories"`

	// ConfidenceBaseline is added to every category's matched-pattern
	// fraction before capping at 1.0.
	ConfidenceBaseline float64 `yaml:"confidence_baseline,omitempty"`

	// Base duration minutes per complexity tier.
	BaseDurationLow    int `yaml:"base_duration_low,omitempty"`
	BaseDurationMedium int `yaml:"base_duration_medium,omitempty"`
	BaseDurationHigh   int `yaml:"base_duration_high,omitempty"`
}

type compiledCategory struct {
	cat      Category
	patterns []*regexp.Regexp
}

// Analyzer classifies task descriptions. Immutable after construction and
// safe for concurrent use.
type Analyzer struct {
	cfg        Config
	tierHigh   []*regexp.Regexp
	tierMedium []*regexp.Regexp
	tierLow    []*regexp.Regexp
	categories []compiledCategory
}

// New compiles an analyzer from a config. Invalid patterns are an error:
// the table is static configuration and must be correct at startup.
func New(cfg Config) (*Analyzer, error) {
	cfg = withDefaults(cfg)

	a := &Analyzer{cfg: cfg}
	var err error
	if a.tierHigh, err = compileAll(cfg.Tiers.High); err != nil {
		return nil, err
	}
	if a.tierMedium, err = compileAll(cfg.Tiers.Medium); err != nil {
		return nil, err
	}
	if a.tierLow, err = compileAll(cfg.Tiers.Low); err != nil {
		return nil, err
	}
	for _, c := range cfg.Categories {
		res, err := compileAll(c.Patterns)
		if err != nil {
			return nil, err
		}
		a.categories = append(a.categories, compiledCategory{cat: c, patterns: res})
	}
	return a, nil
}

func withDefaults(cfg Config) Config {
	if cfg.ConfidenceBaseline == 0 {
		cfg.ConfidenceBaseline = 0.4
	}
	if cfg.BaseDurationLow == 0 {
		cfg.BaseDurationLow = 15
	}
	if cfg.BaseDurationMedium == 0 {
		cfg.BaseDurationMedium = 45
	}
	if cfg.BaseDurationHigh == 0 {
		cfg.BaseDurationHigh = 120
	}
	return cfg
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// Analyze produces a task profile for a description. It never fails: a
// description with zero matches anywhere yields the default profile
// (low complexity, synthetic "general" category, no capabilities).
func (a *Analyzer) Analyze(description string) protocol.TaskProfile {
	desc := strings.TrimSpace(description)

	profile := protocol.TaskProfile{
		Complexity: a.classifyComplexity(desc),
	}

	capSet := make(map[string]struct{})
	prereqSet := make(map[string]struct{})
	factor := 1.0

	for _, cc := range a.categories {
		matched := 0
		for _, re := range cc.patterns {
			if re.MatchString(desc) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		confidence := float64(matched)/float64(len(cc.patterns)) + a.cfg.ConfidenceBaseline
		if confidence > 1.0 {
			confidence = 1.0
		}
		profile.Categories = append(profile.Categories, protocol.CategoryMatch{
			Tag:        cc.cat.Tag,
			Confidence: confidence,
		})

		for _, c := range cc.cat.RequiredCaps {
			capSet[c] = struct{}{}
		}
		for _, p := range cc.cat.Prerequisites {
			prereqSet[p] = struct{}{}
		}
		if cc.cat.DurationFactor > 0 {
			factor *= cc.cat.DurationFactor
		}
	}

	if len(profile.Categories) == 0 {
		profile.Categories = []protocol.CategoryMatch{{Tag: "general", Confidence: a.cfg.ConfidenceBaseline}}
	} else {
		// Highest confidence first; table order breaks ties (stable sort).
		sort.SliceStable(profile.Categories, func(i, j int) bool {
			return profile.Categories[i].Confidence > profile.Categories[j].Confidence
		})
	}

	profile.RequiredCapabilities = sortedKeys(capSet)
	profile.Prerequisites = sortedKeys(prereqSet)
	profile.EstimatedDurationMinutes = int(float64(a.baseDuration(profile.Complexity)) * factor)

	return profile
}

// classifyComplexity matches the description against the ordered tiers; the
// first tier with any match wins. Absent any tier match, token count decides:
// >20 tokens high, >10 medium, else low.
func (a *Analyzer) classifyComplexity(desc string) protocol.ComplexityTier {
	for _, re := range a.tierHigh {
		if re.MatchString(desc) {
			return protocol.TierHigh
		}
	}
	for _, re := range a.tierMedium {
		if re.MatchString(desc) {
			return protocol.TierMedium
		}
	}
	for _, re := range a.tierLow {
		if re.MatchString(desc) {
			return protocol.TierLow
		}
	}

	tokens := len(strings.Fields(desc))
	switch {
	case tokens > 20:
		return protocol.TierHigh
	case tokens > 10:
		return protocol.TierMedium
	default:
		return protocol.TierLow
	}
}

func (a *Analyzer) baseDuration(tier protocol.ComplexityTier) int {
	switch tier {
	case protocol.TierHigh:
		return a.cfg.BaseDurationHigh
	case protocol.TierMedium:
		return a.cfg.BaseDurationMedium
	default:
		return a.cfg.BaseDurationLow
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Categories exposes the configured category table (for matcher lookups of
// preferred agents per matched category).
func (a *Analyzer) Categories() []Category {
	cats := make([]Category, 0, len(a.categories))
	for _, cc := range a.categories {
		cats = append(cats, cc.cat)
	}
	return cats
}
