// Package watch re-runs the inventory scan when the workspace changes.
// Archive and restore stay strictly on-demand; the watcher only reports
// fresh candidates as the tree evolves.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mothball/internal/config"
	"mothball/internal/logging"
	"mothball/internal/scan"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the workspace and triggers debounced re-scans.
type Watcher struct {
	mu           sync.Mutex
	watcher      *fsnotify.Watcher
	cfg          *config.Config
	scanner      *scan.Scanner
	onCandidates func([]scan.Candidate)
	debounceMap  map[string]time.Time
	debounceDur  time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
}

// New creates a Watcher; onCandidates receives the result of every re-scan.
func New(cfg *config.Config, onCandidates func([]scan.Candidate)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:      fsw,
		cfg:          cfg,
		scanner:      scan.New(cfg),
		onCandidates: onCandidates,
		debounceMap:  make(map[string]time.Time),
		debounceDur:  500 * time.Millisecond, // Batch rapid saves
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
// fsnotify watches are not recursive, so every non-excluded directory is
// registered individually.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirs(); err != nil {
		logging.Get(logging.CategoryWatch).Warn("Initial watch setup incomplete: %v", err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}
	logging.Watch("Watcher stopped")
}

func (w *Watcher) addDirs() error {
	excluded := make(map[string]bool, len(w.cfg.Scan.Excludes))
	for _, name := range w.cfg.Scan.Excludes {
		excluded[name] = true
	}
	archiveRoot := w.cfg.ArchiveRoot()

	return filepath.Walk(w.cfg.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path == archiveRoot || excluded[name] {
			return filepath.SkipDir
		}
		if strings.HasPrefix(name, ".") && path != w.cfg.Root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.WatchDebug("Could not watch %s: %v", path, err)
		}
		return nil
	})
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Context cancelled")
			return

		case <-w.stopCh:
			logging.WatchDebug("Stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)

		case <-debounceTicker.C:
			w.processDebounced(ctx)
		}
	}
}

// handleEvent records a filesystem event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return // Ignore chmod, etc.
	}

	logging.WatchDebug("Event: %s %s", event.Op, event.Name)

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()

	// New directories need their own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				logging.WatchDebug("Could not watch new dir %s: %v", event.Name, err)
			}
		}
	}
}

// processDebounced triggers one re-scan once all pending events have settled
// past the debounce window.
func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, eventTime := range w.debounceMap {
		if now.Sub(eventTime) < w.debounceDur {
			w.mu.Unlock()
			return // Still settling
		}
	}
	w.debounceMap = make(map[string]time.Time)
	w.mu.Unlock()

	logging.Watch("Changes settled, re-scanning")
	candidates, warnings, err := w.scanner.Scan(ctx)
	if err != nil {
		logging.Get(logging.CategoryWatch).Error("Re-scan failed: %v", err)
		return
	}
	for _, warn := range warnings {
		logging.Get(logging.CategoryWatch).Warn("Scan warning: %s: %s", warn.Path, warn.Message)
	}

	if w.onCandidates != nil {
		w.onCandidates(candidates)
	}
}
