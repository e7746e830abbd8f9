package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatchStateDirMissingDirectory(t *testing.T) {
	cmd := watchStateDir(filepath.Join(t.TempDir(), "absent", "agora.db"))
	if cmd != nil {
		t.Error("expected nil command for a missing state directory")
	}
}

func TestInitWatcher(t *testing.T) {
	dir := t.TempDir()
	watcher := initWatcher(dir)
	if watcher == nil {
		t.Fatal("expected a watcher for an existing directory")
	}
	if err := watcher.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestDebounceTimerStartsStopped(t *testing.T) {
	timer := newDebounceTimer()
	defer timer.Stop()

	select {
	case <-timer.C:
		t.Fatal("timer fired before reset")
	case <-time.After(20 * time.Millisecond):
	}

	resetDebounceTimer(timer)
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after reset")
	}
}
