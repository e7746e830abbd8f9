package matcher

import (
	"strings"
	"testing"

	"agora/pkg/protocol"
)

func reg(id string, lastSeen int64, p protocol.Profile) protocol.Registration {
	return protocol.Registration{AgentID: id, Profile: p, LastSeen: lastSeen}
}

func TestRankOrdersByScore(t *testing.T) {
	m := New(DefaultWeights(), nil)
	profile := protocol.TaskProfile{
		Complexity:           protocol.TierMedium,
		RequiredCapabilities: []string{"coding", "testing"},
		ActiveStep:           8,
	}

	candidates := []protocol.Registration{
		reg("generalist", 100, protocol.Profile{Capabilities: []string{"coding"}}),
		reg("specialist", 100, protocol.Profile{
			Capabilities:   []string{"coding", "testing"},
			TaskAffinities: []string{"medium"},
			StepAffinities: []int{8},
		}),
		reg("outsider", 100, protocol.Profile{Capabilities: []string{"deploy"}}),
	}

	ranked := m.Rank(profile, candidates)
	if len(ranked) != 3 {
		t.Fatalf("len = %d", len(ranked))
	}
	if ranked[0].AgentID != "specialist" || ranked[1].AgentID != "generalist" || ranked[2].AgentID != "outsider" {
		t.Fatalf("order = %s %s %s", ranked[0].AgentID, ranked[1].AgentID, ranked[2].AgentID)
	}

	// tier 3 + capabilities 2x2 + step 6
	if ranked[0].Score != 13 {
		t.Errorf("specialist score = %v, want 13", ranked[0].Score)
	}
	if ranked[2].Score != 0 {
		t.Errorf("outsider score = %v, want 0", ranked[2].Score)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("scores out of order at %d", i)
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	m := New(DefaultWeights(), nil)
	profile := protocol.TaskProfile{
		Complexity:           protocol.TierLow,
		RequiredCapabilities: []string{"coding"},
	}
	p := protocol.Profile{Capabilities: []string{"coding"}}

	t.Run("recency breaks score ties", func(t *testing.T) {
		ranked := m.Rank(profile, []protocol.Registration{
			reg("older", 100, p),
			reg("newer", 200, p),
		})
		if ranked[0].AgentID != "newer" {
			t.Errorf("order = %s %s, want newer first", ranked[0].AgentID, ranked[1].AgentID)
		}
	})

	t.Run("agent id breaks full ties", func(t *testing.T) {
		ranked := m.Rank(profile, []protocol.Registration{
			reg("bravo", 100, p),
			reg("alpha", 100, p),
		})
		if ranked[0].AgentID != "alpha" {
			t.Errorf("order = %s %s, want alpha first", ranked[0].AgentID, ranked[1].AgentID)
		}
	})
}

func TestScoreReasons(t *testing.T) {
	preferred := map[string][]string{"implementation": {"coder-1"}}
	m := New(DefaultWeights(), preferred)
	profile := protocol.TaskProfile{
		Complexity:           protocol.TierMedium,
		Categories:           []protocol.CategoryMatch{{Tag: "implementation", Confidence: 0.8}},
		RequiredCapabilities: []string{"coding"},
	}

	ranked := m.Rank(profile, []protocol.Registration{
		reg("coder-1", 100, protocol.Profile{
			Capabilities:   []string{"coding"},
			TaskAffinities: []string{"medium"},
		}),
	})

	c := ranked[0]
	// tier 3 + capability 2 + preferred 5*0.8
	if c.Score != 9 {
		t.Fatalf("score = %v, want 9", c.Score)
	}
	if len(c.Reasons) != 4 {
		t.Fatalf("reasons = %v", c.Reasons)
	}
	if !strings.HasSuffix(c.Reasons[0], " match") {
		t.Errorf("first reason should be the bucket, got %q", c.Reasons[0])
	}
	joined := strings.Join(c.Reasons, "; ")
	for _, want := range []string{"medium-complexity affinity", "capability overlap: coding", "preferred for implementation"} {
		if !strings.Contains(joined, want) {
			t.Errorf("reasons missing %q: %v", want, c.Reasons)
		}
	}
}

func TestBucketLabels(t *testing.T) {
	m := New(DefaultWeights(), nil)
	profile := protocol.TaskProfile{
		Complexity:           protocol.TierHigh,
		RequiredCapabilities: []string{"coding"},
	}
	// Max achievable here is tier 3 + capability 2 = 5.
	cases := []struct {
		name   string
		p      protocol.Profile
		bucket string
	}{
		{"full", protocol.Profile{Capabilities: []string{"coding"}, TaskAffinities: []string{"high"}}, "excellent"},
		{"tier only", protocol.Profile{Capabilities: []string{"other"}, TaskAffinities: []string{"high"}}, "good"},
		{"capability only", protocol.Profile{Capabilities: []string{"coding"}}, "partial"},
		{"nothing", protocol.Profile{Capabilities: []string{"other"}}, "poor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ranked := m.Rank(profile, []protocol.Registration{reg("a", 0, tc.p)})
			if got := ranked[0].Reasons[0]; got != tc.bucket+" match" {
				t.Errorf("bucket = %q, want %q", got, tc.bucket+" match")
			}
		})
	}
}

func TestZeroWeightsFallBackToDefaults(t *testing.T) {
	m := New(Weights{}, nil)
	if m.weights != DefaultWeights() {
		t.Errorf("weights = %+v", m.weights)
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	m := New(DefaultWeights(), nil)
	if got := m.Rank(protocol.TaskProfile{}, nil); len(got) != 0 {
		t.Errorf("ranked = %v", got)
	}
}
