// Package matcher ranks registered agents against a task profile. Scoring is
// additive across independent signals, the ordering is fully deterministic
// (ties break by registration recency, then agent ID), and every score comes
// with human-readable reasons so mis-routing can be audited.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"agora/pkg/protocol"
)

// Weights configures the scoring signals. The exact numbers are policy, not
// precision: what matters is that more specific matches outrank generic ones
// (step affinity > preferred agent > capability overlap > tier affinity).
type Weights struct {
	TierAffinity      float64 // candidate declares affinity for the profile's tier
	CapabilityOverlap float64 // per overlapping required capability
	PreferredAgent    float64 // scaled by the matching category's confidence
	StepAffinity      float64 // candidate declares affinity for the active step
}

// DefaultWeights preserves the relative ordering of signal specificity.
func DefaultWeights() Weights {
	return Weights{
		TierAffinity:      3,
		CapabilityOverlap: 2,
		PreferredAgent:    5,
		StepAffinity:      6,
	}
}

// Candidate is one ranked agent with its score and audit trail.
type Candidate struct {
	AgentID string   `json:"agent_id"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Matcher scores candidates. PreferredAgents maps a category tag to the
// agents that prefer it; callers build it from the analyzer's category table.
type Matcher struct {
	weights   Weights
	preferred map[string][]string
}

// New creates a Matcher. Zero-valued weights fall back to DefaultWeights.
func New(w Weights, preferredByCategory map[string][]string) *Matcher {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Matcher{weights: w, preferred: preferredByCategory}
}

// Rank scores every candidate against the profile and returns them ordered
// best first. For equal scores the more recently active agent ranks first;
// agent ID is the final tiebreak so the order never depends on map iteration.
func (m *Matcher) Rank(profile protocol.TaskProfile, candidates []protocol.Registration) []Candidate {
	type scored struct {
		Candidate
		lastSeen int64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, reg := range candidates {
		score, reasons := m.score(profile, reg)
		ranked = append(ranked, scored{
			Candidate: Candidate{AgentID: reg.AgentID, Score: score, Reasons: reasons},
			lastSeen:  reg.LastSeen,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].lastSeen != ranked[j].lastSeen {
			return ranked[i].lastSeen > ranked[j].lastSeen
		}
		return ranked[i].AgentID < ranked[j].AgentID
	})

	out := make([]Candidate, len(ranked))
	for i, r := range ranked {
		out[i] = r.Candidate
	}
	return out
}

// score computes one candidate's additive score and its reasons. The first
// reason is always the match bucket.
func (m *Matcher) score(profile protocol.TaskProfile, reg protocol.Registration) (float64, []string) {
	var score float64
	var reasons []string

	if reg.Profile.HasTaskAffinity(string(profile.Complexity)) {
		score += m.weights.TierAffinity
		reasons = append(reasons, fmt.Sprintf("declares %s-complexity affinity (+%.0f)",
			profile.Complexity, m.weights.TierAffinity))
	}

	var overlap []string
	for _, want := range profile.RequiredCapabilities {
		if reg.Profile.HasCapability(want) {
			overlap = append(overlap, want)
		}
	}
	if len(overlap) > 0 {
		bonus := m.weights.CapabilityOverlap * float64(len(overlap))
		score += bonus
		reasons = append(reasons, fmt.Sprintf("capability overlap: %s (+%.0f)",
			strings.Join(overlap, ", "), bonus))
	}

	for _, cat := range profile.Categories {
		for _, agent := range m.preferred[cat.Tag] {
			if agent != reg.AgentID {
				continue
			}
			bonus := m.weights.PreferredAgent * cat.Confidence
			score += bonus
			reasons = append(reasons, fmt.Sprintf("preferred for %s (confidence %.2f, +%.1f)",
				cat.Tag, cat.Confidence, bonus))
		}
	}

	if profile.ActiveStep != 0 && reg.Profile.HasStepAffinity(profile.ActiveStep) {
		score += m.weights.StepAffinity
		reasons = append(reasons, fmt.Sprintf("affinity for step %d (+%.0f)",
			profile.ActiveStep, m.weights.StepAffinity))
	}

	bucket := m.bucket(profile, score)
	reasons = append([]string{bucket + " match"}, reasons...)
	return score, reasons
}

// bucket labels a score relative to the maximum this profile could award, so
// the label stays meaningful as weights and profiles vary.
func (m *Matcher) bucket(profile protocol.TaskProfile, score float64) string {
	max := m.weights.TierAffinity +
		m.weights.CapabilityOverlap*float64(len(profile.RequiredCapabilities))
	for _, cat := range profile.Categories {
		if len(m.preferred[cat.Tag]) > 0 {
			max += m.weights.PreferredAgent * cat.Confidence
		}
	}
	if profile.ActiveStep != 0 {
		max += m.weights.StepAffinity
	}

	if max <= 0 {
		return "poor"
	}
	switch frac := score / max; {
	case frac >= 0.75:
		return "excellent"
	case frac >= 0.5:
		return "good"
	case frac > 0:
		return "partial"
	default:
		return "poor"
	}
}
