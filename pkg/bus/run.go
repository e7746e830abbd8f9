package bus

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"agora/pkg/protocol"
)

// tableReloadFallback is the poll interval used as a safety net when the
// fsnotify watch misses events (or cannot be established at all).
const tableReloadFallback = time.Minute

// Run starts the Bus background work and blocks until ctx is cancelled:
//
//  1. Retention sweep: purge messages older than the horizon.
//  2. Dependency reap: drop abandoned pending waits.
//  3. Room rotation notices.
//  4. Policy table hot-reload on file change.
//
// Background work runs on its own schedule and never stalls foreground
// message posting.
func (b *Bus) Run(ctx context.Context) error {
	go b.watchTables(ctx)

	ticker := time.NewTicker(b.cfg.SweepInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.sweep(ctx)
		}
	}
}

// sweep runs one round of background maintenance. Failures are recorded on
// the events room and never abort the loop.
func (b *Bus) sweep(ctx context.Context) {
	if purged, err := b.store.PurgeOlderThan(ctx, b.cfg.RetentionHorizon.Std()); err == nil && purged > 0 {
		_, _ = b.store.Append(ctx, protocol.RoomEvents,
			fmt.Sprintf("retention purge removed %d messages", purged), protocol.MessageContext{})
	}

	if _, err := b.coord.Reap(ctx); err != nil {
		_, _ = b.store.Append(ctx, protocol.RoomEvents,
			fmt.Sprintf("dependency reap failed: %v", err), protocol.MessageContext{})
	}

	if err := b.rotateSweep(ctx); err != nil {
		_, _ = b.store.Append(ctx, protocol.RoomEvents,
			fmt.Sprintf("rotation sweep failed: %v", err), protocol.MessageContext{})
	}
}

// watchTables reloads the routing/analyzer tables when their files change.
// Falls back to pure polling when fsnotify is unavailable; a poll ticker
// backs the watcher either way.
func (b *Bus) watchTables(ctx context.Context) {
	dirs := watchDirs(b.cfg.RoutingTablePath, b.cfg.AnalyzerTablePath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		b.watchTablesPoll(ctx)
		return
	}
	defer func() { _ = watcher.Close() }()

	watching := false
	for _, dir := range dirs {
		if err := watcher.Add(dir); err == nil {
			watching = true
		}
	}
	if !watching {
		b.watchTablesPoll(ctx)
		return
	}

	fallback := time.NewTicker(tableReloadFallback)
	defer fallback.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-watcher.Events:
			b.tryReload(ctx)
		case err := <-watcher.Errors:
			if err != nil {
				_, _ = b.store.Append(ctx, protocol.RoomEvents,
					fmt.Sprintf("table watcher error: %v", err), protocol.MessageContext{})
			}
		case <-fallback.C:
			b.tryReload(ctx)
		}
	}
}

func (b *Bus) watchTablesPoll(ctx context.Context) {
	ticker := time.NewTicker(tableReloadFallback)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tryReload(ctx)
		}
	}
}

func (b *Bus) tryReload(ctx context.Context) {
	if err := b.reloadTables(); err != nil {
		_, _ = b.store.Append(ctx, protocol.RoomEvents,
			fmt.Sprintf("table reload failed, keeping previous tables: %v", err), protocol.MessageContext{})
	}
}

func watchDirs(paths ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
