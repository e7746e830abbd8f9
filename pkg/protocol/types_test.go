package protocol

import (
	"testing"
	"time"
)

func TestProfileValidate(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid", Profile{Capabilities: []string{"coding"}}, false},
		{"no capabilities", Profile{}, true},
		{"blank capability", Profile{Capabilities: []string{"  "}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.profile.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestProfileRoundTrip(t *testing.T) {
	p := Profile{
		Capabilities:   []string{"coding", "testing"},
		TaskAffinities: []string{"high"},
		StepAffinities: []int{3, 8},
		PreferredRooms: []RoomPattern{{Room: "implementation", Pattern: "implement"}},
		DependsOn:      []string{"architect-1"},
		Role:           "coder",
	}

	raw, err := MarshalProfile(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalProfile(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !got.HasCapability("testing") || !got.HasTaskAffinity("high") || !got.HasStepAffinity(8) {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Role != "coder" || len(got.PreferredRooms) != 1 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestRegistrationStatus(t *testing.T) {
	now := time.Now()
	window := 5 * time.Minute

	fresh := Registration{LastSeen: now.Add(-30 * time.Second).UnixMilli()}
	if got := fresh.Status(now, window); got != AgentActive {
		t.Errorf("fresh agent: got %s", got)
	}

	old := Registration{LastSeen: now.Add(-window).UnixMilli()}
	if got := old.Status(now, window); got != AgentStale {
		t.Errorf("agent at window boundary: got %s", got)
	}

	stopped := Registration{LastSeen: now.UnixMilli(), StoppedAt: now.UnixMilli()}
	if got := stopped.Status(now, window); got != AgentStopped {
		t.Errorf("stopped agent: got %s", got)
	}
}
