package coordinator

import (
	"context"
	"testing"

	"agora/pkg/protocol"
	"agora/pkg/store"
)

func regWithRole(id, role string, steps ...int) protocol.Registration {
	return protocol.Registration{
		AgentID: id,
		Profile: protocol.Profile{
			Capabilities:   []string{"general"},
			Role:           role,
			StepAffinities: steps,
		},
	}
}

func TestResolveConflictRoleWeight(t *testing.T) {
	ctx := context.Background()
	c, s, _ := setupCoordinator(t)

	winner, err := c.ResolveConflict(ctx, regWithRole("arch-1", "architect"), regWithRole("test-1", "tester"), "schema.sql")
	if err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}
	if winner != "arch-1" {
		t.Errorf("winner = %s, want arch-1", winner)
	}

	notes, err := s.Read(ctx, protocol.RoomCoordination, store.Filter{Kind: protocol.KindConflictLost})
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Context.Target != "test-1" {
		t.Fatalf("loser notification = %v", notes)
	}
}

func TestResolveConflictEarlierStageWinsWithinRole(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setupCoordinator(t)

	winner, err := c.ResolveConflict(ctx, regWithRole("coder-late", "coder", 9), regWithRole("coder-early", "coder", 2), "main.go")
	if err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}
	if winner != "coder-early" {
		t.Errorf("winner = %s, want coder-early", winner)
	}
}

func TestResolveConflictTieIsDeterministic(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setupCoordinator(t)

	for i := 0; i < 10; i++ {
		winner, err := c.ResolveConflict(ctx, regWithRole("bravo", "coder"), regWithRole("alpha", "coder"), "file.go")
		if err != nil {
			t.Fatalf("ResolveConflict: %v", err)
		}
		if winner != "alpha" {
			t.Fatalf("iteration %d: winner = %s, want alpha (lexicographic tiebreak)", i, winner)
		}
	}
}

func TestResolveConflictArgumentOrderIrrelevant(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setupCoordinator(t)

	a := regWithRole("arch-1", "architect")
	b := regWithRole("rev-1", "reviewer")

	w1, err := c.ResolveConflict(ctx, a, b, "r")
	if err != nil {
		t.Fatal(err)
	}
	w2, err := c.ResolveConflict(ctx, b, a, "r")
	if err != nil {
		t.Fatal(err)
	}
	if w1 != w2 {
		t.Errorf("winner depends on argument order: %s vs %s", w1, w2)
	}
}
