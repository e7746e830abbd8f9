package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// fsChangeMsg is sent when the coordination database changes on disk.
type fsChangeMsg struct{}

// watchStateDir creates a file system watcher on the database directory.
// Returns nil if the directory doesn't exist or watcher creation fails
// (dashboard will fall back to polling-only mode).
func watchStateDir(dbPath string) tea.Cmd {
	watcher := initWatcher(filepath.Dir(dbPath))
	if watcher == nil {
		return nil
	}
	return runWatcher(watcher)
}

// initWatcher creates a file system watcher for the given directory.
// Returns nil if initialization fails.
func initWatcher(stateDir string) *fsnotify.Watcher {
	if _, err := os.Stat(stateDir); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (falling back to polling)", err)
		return nil
	}

	if err := watcher.Add(stateDir); err != nil {
		_ = watcher.Close()
		log.Printf("fsnotify: failed to watch %s: %v (falling back to polling)", stateDir, err)
		return nil
	}

	return watcher
}

// runWatcher returns a tea.Cmd that waits for file system events and returns
// fsChangeMsg once activity settles. SQLite WAL checkpoints produce bursts of
// writes, so events are debounced before triggering a refresh.
func runWatcher(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		defer watcher.Close()

		debounceTimer := newDebounceTimer()
		defer debounceTimer.Stop()

		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				resetDebounceTimer(debounceTimer)

			case <-debounceTimer.C:
				return fsChangeMsg{}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("fsnotify: watcher error: %v", err)
				return nil
			}
		}
	}
}

// newDebounceTimer creates a stopped timer for debouncing file system events.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

// resetDebounceTimer resets the debounce timer to prevent rapid-fire events.
func resetDebounceTimer(timer *time.Timer) {
	const debounceDuration = 100 * time.Millisecond
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounceDuration)
}
