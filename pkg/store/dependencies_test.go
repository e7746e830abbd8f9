package store

import (
	"context"
	"testing"
	"time"

	"agora/pkg/protocol"
)

func TestSatisfyDependencyIsOneWay(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	dep, err := s.InsertDependency(ctx, "tester-1", protocol.DepTaskComplete, "task-42")
	if err != nil {
		t.Fatalf("InsertDependency: %v", err)
	}
	if dep.Status != protocol.DepPending || dep.ID == 0 {
		t.Fatalf("dep = %+v", dep)
	}

	changed, err := s.SatisfyDependency(ctx, dep.ID)
	if err != nil {
		t.Fatalf("SatisfyDependency: %v", err)
	}
	if !changed {
		t.Error("first transition reported no change")
	}

	changed, err = s.SatisfyDependency(ctx, dep.ID)
	if err != nil {
		t.Fatalf("second SatisfyDependency: %v", err)
	}
	if changed {
		t.Error("satisfied row transitioned twice")
	}

	got, err := s.GetDependency(ctx, dep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != protocol.DepSatisfied || got.SatisfiedAt == 0 {
		t.Errorf("dep = %+v", got)
	}
}

func TestPendingDependenciesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first, err := s.InsertDependency(ctx, "a", protocol.DepTaskComplete, "t1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.InsertDependency(ctx, "b", protocol.DepTaskComplete, "t2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SatisfyDependency(ctx, first.ID); err != nil {
		t.Fatal(err)
	}

	pending, err := s.PendingDependencies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending = %v", pending)
	}
}

func TestDeregisterDependenciesKeepsSatisfied(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	done, err := s.InsertDependency(ctx, "tester-1", protocol.DepTaskComplete, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SatisfyDependency(ctx, done.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertDependency(ctx, "tester-1", protocol.DepPhaseComplete, "planning"); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeregisterDependencies(ctx, "tester-1")
	if err != nil {
		t.Fatalf("DeregisterDependencies: %v", err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1 (pending only)", n)
	}

	all, err := s.DependenciesFor(ctx, "tester-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Status != protocol.DepSatisfied {
		t.Errorf("remaining = %v, want the satisfied row", all)
	}
}

func TestReapStaleDependencies(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	base := time.Now()
	clock := base.Add(-48 * time.Hour)
	s.SetNowFunc(func() time.Time { return clock })
	stale, err := s.InsertDependency(ctx, "tester-1", protocol.DepTaskComplete, "abandoned")
	if err != nil {
		t.Fatal(err)
	}

	clock = base
	fresh, err := s.InsertDependency(ctx, "tester-2", protocol.DepTaskComplete, "live")
	if err != nil {
		t.Fatal(err)
	}

	reaped, err := s.ReapStaleDependencies(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("ReapStaleDependencies: %v", err)
	}
	if len(reaped) != 1 || reaped[0].ID != stale.ID {
		t.Errorf("reaped = %v, want the abandoned row", reaped)
	}

	pending, err := s.PendingDependencies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != fresh.ID {
		t.Errorf("pending = %v, want only the fresh row", pending)
	}

	reaped, err = s.ReapStaleDependencies(ctx, 24*time.Hour)
	if err != nil || len(reaped) != 0 {
		t.Errorf("second reap = %v, %v", reaped, err)
	}
}
