package store

import (
	"context"
	"testing"
	"time"
)

func TestSaveMemoryUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	scope := MemoryScope{Step: 3, Phase: "implementation"}
	if err := s.SaveMemory(ctx, "coder-1", "context", "v1", scope); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveMemory(ctx, "coder-1", "context", "v2", scope); err != nil {
		t.Fatalf("save again: %v", err)
	}

	rec, ok, err := s.LoadMemory(ctx, "coder-1", "context", scope)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Content != "v2" {
		t.Errorf("upsert did not overwrite: %q", rec.Content)
	}

	all, err := s.ListMemories(ctx, "coder-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected one record per composite key, got %d", len(all))
	}
}

func TestScopedKeysAreDistinct(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveMemory(ctx, "coder-1", "context", "step 1", MemoryScope{Step: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveMemory(ctx, "coder-1", "context", "step 2", MemoryScope{Step: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := s.ListMemories(ctx, "coder-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("scoped keys collided: %d records", len(all))
	}
}

func TestLoadMemoryTouchesAccess(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now()
	s.SetNowFunc(func() time.Time { return base })
	if err := s.SaveMemory(ctx, "coder-1", "notes", "remember this", MemoryScope{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	s.SetNowFunc(func() time.Time { return base.Add(time.Hour) })
	rec, ok, err := s.LoadMemory(ctx, "coder-1", "notes", MemoryScope{})
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if rec.LastAccessed != base.Add(time.Hour).UnixMilli() {
		t.Errorf("read did not touch last_accessed: %d", rec.LastAccessed)
	}

	again, _, err := s.LoadMemory(ctx, "coder-1", "notes", MemoryScope{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if again.UtilityScore <= rec.UtilityScore {
		t.Errorf("utility did not grow on read: %f then %f", rec.UtilityScore, again.UtilityScore)
	}
}

func TestLoadMemoryAbsenceIsNotAnError(t *testing.T) {
	s := setupTestStore(t)

	_, ok, err := s.LoadMemory(context.Background(), "ghost", "notes", MemoryScope{})
	if err != nil {
		t.Fatalf("expected no error for missing record, got %v", err)
	}
	if ok {
		t.Error("expected ok=false")
	}
}

func TestTopMemoriesOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveMemory(ctx, "a", "notes", "rarely used", MemoryScope{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveMemory(ctx, "b", "notes", "hot", MemoryScope{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Reads drive b's utility up.
	for i := 0; i < 5; i++ {
		if _, _, err := s.LoadMemory(ctx, "b", "notes", MemoryScope{}); err != nil {
			t.Fatalf("load: %v", err)
		}
	}

	top, err := s.TopMemories(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].AgentID != "b" {
		t.Errorf("expected b ranked first, got %+v", top)
	}
}
