package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"agora/pkg/protocol"
)

func defaultAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("compile default config: %v", err)
	}
	return a
}

func TestAnalyzeAuthExample(t *testing.T) {
	a := defaultAnalyzer(t)
	p := a.Analyze("implement user authentication with JWT")

	if p.Complexity != protocol.TierMedium {
		t.Errorf("complexity = %s, want medium", p.Complexity)
	}
	if !p.HasCategory("implementation") {
		t.Fatalf("categories = %+v, want implementation", p.Categories)
	}
	if c := p.Categories[0].Confidence; c < 0.7 || c > 0.8 {
		t.Errorf("implementation confidence = %0.3f, want about 0.73", c)
	}
	want := []string{"coding", "implementation"}
	if len(p.RequiredCapabilities) != 2 || p.RequiredCapabilities[0] != want[0] || p.RequiredCapabilities[1] != want[1] {
		t.Errorf("capabilities = %v, want %v", p.RequiredCapabilities, want)
	}
	if p.EstimatedDurationMinutes != 45 {
		t.Errorf("duration = %d, want 45", p.EstimatedDurationMinutes)
	}
}

func TestAnalyzeNeverFails(t *testing.T) {
	a := defaultAnalyzer(t)
	for _, desc := range []string{"", "   ", "qwfpgj zxcvb", "!!!"} {
		p := a.Analyze(desc)
		if p.Complexity != protocol.TierLow {
			t.Errorf("%q: complexity = %s, want low", desc, p.Complexity)
		}
		if len(p.Categories) != 1 || p.Categories[0].Tag != "general" {
			t.Errorf("%q: categories = %+v, want synthetic general", desc, p.Categories)
		}
		if len(p.RequiredCapabilities) != 0 {
			t.Errorf("%q: capabilities = %v, want none", desc, p.RequiredCapabilities)
		}
	}
}

func TestClassifyComplexityTierOrder(t *testing.T) {
	a := defaultAnalyzer(t)
	cases := []struct {
		desc string
		want protocol.ComplexityTier
	}{
		{"architect the distributed cache", protocol.TierHigh},
		{"debug the flaky endpoint", protocol.TierMedium},
		{"fix a typo in the readme", protocol.TierLow},
		// High keywords beat low keywords in the same text.
		{"rename the orchestration layer across every package", protocol.TierHigh},
	}
	for _, tc := range cases {
		if got := a.Analyze(tc.desc).Complexity; got != tc.want {
			t.Errorf("%q: complexity = %s, want %s", tc.desc, got, tc.want)
		}
	}
}

func TestClassifyComplexityTokenFallback(t *testing.T) {
	a := defaultAnalyzer(t)

	long := "quick brown fox jumps over a lazy dog near the quiet river bank while birds sing softly in warm morning sun"
	if got := a.Analyze(long).Complexity; got != protocol.TierHigh {
		t.Errorf("21 tokens: complexity = %s, want high", got)
	}

	mid := "quick brown fox jumps over a lazy dog near quiet river"
	if got := a.Analyze(mid).Complexity; got != protocol.TierMedium {
		t.Errorf("11 tokens: complexity = %s, want medium", got)
	}
}

func TestAnalyzeDurationFactorsMultiply(t *testing.T) {
	a := defaultAnalyzer(t)
	p := a.Analyze("test the review flow")

	if p.Complexity != protocol.TierLow {
		t.Fatalf("complexity = %s, want low", p.Complexity)
	}
	if !p.HasCategory("testing") || !p.HasCategory("review") {
		t.Fatalf("categories = %+v, want testing and review", p.Categories)
	}
	// 15 minutes base, 0.8 testing factor, 0.6 review factor.
	if p.EstimatedDurationMinutes != 7 {
		t.Errorf("duration = %d, want 7", p.EstimatedDurationMinutes)
	}
}

func TestAnalyzeCategoriesSortedByConfidence(t *testing.T) {
	a := defaultAnalyzer(t)
	p := a.Analyze("plan and design the build, then write the code")

	if len(p.Categories) < 2 {
		t.Fatalf("categories = %+v, want several", p.Categories)
	}
	for i := 1; i < len(p.Categories); i++ {
		if p.Categories[i].Confidence > p.Categories[i-1].Confidence {
			t.Errorf("categories out of order at %d: %+v", i, p.Categories)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if len(cfg.Categories) == 0 {
			t.Error("expected built-in categories")
		}
	})

	t.Run("custom categories keep default tiers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "table.yaml")
		body := "categories:\n  - tag: deploy\n    patterns: [\"deploy|release\"]\n    required_capabilities: [ops]\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if len(cfg.Categories) != 1 || cfg.Categories[0].Tag != "deploy" {
			t.Errorf("categories = %+v", cfg.Categories)
		}
		if len(cfg.Tiers.High) == 0 {
			t.Error("empty tiers should fall back to defaults")
		}

		a, err := New(cfg)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		p := a.Analyze("deploy the release")
		if !p.HasCategory("deploy") {
			t.Errorf("categories = %+v, want deploy", p.Categories)
		}
	})
}
