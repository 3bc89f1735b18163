// Package watch runs the plan-file watcher: it monitors a directory for
// plan files and applies each change through the tracker.
//
// The watcher:
// 1. Watches the plan directory for create/write/remove events
// 2. Debounces rapid bursts of events per file
// 3. Applies changed plan files as non-interactive batches
// 4. Handles graceful shutdown
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taskdot/taskdot/internal/plan"
	"github.com/taskdot/taskdot/internal/tracker"
)

// Config holds configuration for the watcher.
type Config struct {
	// DebounceInterval is how long a file must be quiet before its plan
	// is applied. Editors often write a file several times in a row.
	DebounceInterval time.Duration

	// Apply options used for every triggered batch. Resolve is forced to
	// nil: watch mode is non-interactive, duplicates are skipped.
	Apply plan.Options

	// Logger for watcher activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 500 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Watcher monitors a directory of plan files and applies changes.
type Watcher struct {
	tracker *tracker.Tracker
	dir     string
	config  *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> last event
	changeQueueMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a watcher over dir. Use Run() to begin watching.
func New(tr *tracker.Tracker, dir string, config *Config) (*Watcher, error) {
	if tr == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("plan directory cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}
	config.Apply.Resolve = nil

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		tracker:     tr,
		dir:         dir,
		config:      config,
		watcher:     fsWatcher,
		changeQueue: make(map[string]time.Time),
	}, nil
}

// IsPlanFile reports whether a path looks like a plan file.
func IsPlanFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".yaml", ".yml":
		return true
	}
	return false
}

// Run watches the directory until ctx is cancelled. Existing plan files
// are applied once on startup so a restart never misses edits.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.applyExisting(ctx); err != nil {
		return fmt.Errorf("initial apply failed: %w", err)
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.config.Logger.Printf("Watching: %s", w.dir)

	w.wg.Add(2)
	go w.watchFileEvents(ctx)
	go w.processChangeQueue(ctx)

	<-ctx.Done()
	if err := w.watcher.Close(); err != nil {
		w.config.Logger.Printf("Error closing watcher: %v", err)
	}
	w.wg.Wait()
	w.config.Logger.Println("Watcher stopped")
	return nil
}

// applyExisting applies every plan file already present in the directory.
func (w *Watcher) applyExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read plan directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsPlanFile(entry.Name()) {
			continue
		}
		w.applyPlan(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (w *Watcher) watchFileEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Removals need no apply; renames surface as create+remove.
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !IsPlanFile(event.Name) {
				continue
			}
			w.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			w.queueChange(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange records a file event, resetting its debounce window.
func (w *Watcher) queueChange(path string) {
	w.changeQueueMu.Lock()
	defer w.changeQueueMu.Unlock()
	w.changeQueue[path] = time.Now()
}

// processChangeQueue applies files that have been quiet long enough.
func (w *Watcher) processChangeQueue(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			for _, path := range w.drainQuietChanges() {
				w.applyPlan(ctx, path)
			}
		}
	}
}

// drainQuietChanges removes and returns queued paths whose debounce
// window has elapsed.
func (w *Watcher) drainQuietChanges() []string {
	w.changeQueueMu.Lock()
	defer w.changeQueueMu.Unlock()

	now := time.Now()
	var ready []string
	for path, queuedAt := range w.changeQueue {
		if now.Sub(queuedAt) < w.config.DebounceInterval {
			continue
		}
		ready = append(ready, path)
		delete(w.changeQueue, path)
	}
	return ready
}

// applyPlan loads and applies one plan file. Failures are logged, never
// fatal: the watcher keeps running across malformed edits.
func (w *Watcher) applyPlan(ctx context.Context, path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	f, err := plan.Load(path)
	if err != nil {
		w.config.Logger.Printf("Error loading plan %s: %v", path, err)
		return
	}

	report, err := plan.Apply(ctx, w.tracker, f, w.config.Apply)
	if err != nil {
		w.config.Logger.Printf("Error applying plan %s: %v", path, err)
		return
	}

	w.config.Logger.Printf("Applied %s: %d created, %d updated, %d merged, %d skipped",
		filepath.Base(path), report.Created, report.Updated, report.Merged, report.Skipped)
	for _, entryErr := range report.Errors {
		w.config.Logger.Printf("  entry %d (%s): %v", entryErr.Index, entryErr.Title, entryErr.Err)
	}
}
