package watch

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskdot/taskdot/internal/dedup"
	"github.com/taskdot/taskdot/internal/storage"
	"github.com/taskdot/taskdot/internal/tracker"
)

func newTestWatcher(t *testing.T, dir string) (*Watcher, *tracker.Tracker) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	tr := tracker.New(store, dedup.DefaultConfig(), nil)

	cfg := DefaultConfig()
	cfg.DebounceInterval = 10 * time.Millisecond
	cfg.Logger = log.New(io.Discard, "", 0)

	w, err := New(tr, dir, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.watcher.Close() })
	return w, tr
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, "plans", nil); err == nil {
		t.Error("nil tracker must be rejected")
	}

	store := storage.NewMemoryStore()
	defer store.Close()
	tr := tracker.New(store, dedup.DefaultConfig(), nil)
	if _, err := New(tr, "", nil); err == nil {
		t.Error("empty directory must be rejected")
	}
}

func TestIsPlanFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"plans/backlog.json", true},
		{"plans/backlog.jsonl", true},
		{"plans/backlog.yaml", true},
		{"plans/backlog.YML", true},
		{"plans/notes.txt", false},
		{"plans/backlog.json.swp", false},
	}
	for _, tt := range tests {
		if got := IsPlanFile(tt.path); got != tt.want {
			t.Errorf("IsPlanFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestApplyPlan(t *testing.T) {
	dir := t.TempDir()
	w, tr := newTestWatcher(t, dir)

	// Titles share no tokens, so the duplicate pass lets both through.
	path := filepath.Join(dir, "backlog.jsonl")
	content := `{"title": "Upgrade billing webhooks"}
{"title": "Write onboarding docs"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing plan: %v", err)
	}

	ctx := context.Background()
	w.applyPlan(ctx, path)

	tasks, err := tr.ListTasks(ctx, tracker.ListFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("task count = %d, want 2", len(tasks))
	}
}

func TestApplyPlan_MalformedFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	w, tr := newTestWatcher(t, dir)

	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing plan: %v", err)
	}

	ctx := context.Background()
	w.applyPlan(ctx, path) // must not panic or stop anything

	tasks, err := tr.ListTasks(ctx, tracker.ListFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("task count = %d, want 0", len(tasks))
	}
}

func TestApplyExisting(t *testing.T) {
	dir := t.TempDir()
	w, tr := newTestWatcher(t, dir)

	plan := `{"tasks": [{"title": "Pre-existing plan entry"}]}`
	if err := os.WriteFile(filepath.Join(dir, "seed.json"), []byte(plan), 0o644); err != nil {
		t.Fatalf("writing plan: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	ctx := context.Background()
	if err := w.applyExisting(ctx); err != nil {
		t.Fatalf("applyExisting: %v", err)
	}

	tasks, err := tr.ListTasks(ctx, tracker.ListFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("task count = %d, want 1", len(tasks))
	}
}

func TestDrainQuietChanges(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir)

	w.queueChange("fresh.json")
	w.changeQueueMu.Lock()
	w.changeQueue["stale.json"] = time.Now().Add(-time.Second)
	w.changeQueueMu.Unlock()

	ready := w.drainQuietChanges()
	if len(ready) != 1 || ready[0] != "stale.json" {
		t.Errorf("ready = %v, want only the stale entry", ready)
	}

	// The stale entry must be consumed, the fresh one kept.
	w.changeQueueMu.Lock()
	defer w.changeQueueMu.Unlock()
	if _, kept := w.changeQueue["fresh.json"]; !kept {
		t.Error("fresh entry must stay queued")
	}
	if _, gone := w.changeQueue["stale.json"]; gone {
		t.Error("stale entry must be removed after draining")
	}
}
