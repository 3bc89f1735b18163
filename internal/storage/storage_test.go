package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskdot/taskdot/internal/task"
)

// openStores builds one instance of each Storage implementation so the
// contract tests below run against both.
func openStores(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Storage{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func newTask(id, parent, title string) *task.Task {
	now := time.Now()
	return &task.Task{
		ID:        id,
		Title:     title,
		Status:    task.StatusTodo,
		Readiness: task.ReadinessDraft,
		Tags:      []string{},
		ParentID:  parent,
		Metadata:  task.Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStorage_CreateGetRemove(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.CreateTask(ctx, newTask("1", "", "Fix login bug")); err != nil {
				t.Fatalf("CreateTask() failed: %v", err)
			}

			got, err := store.GetTask(ctx, "1")
			if err != nil {
				t.Fatalf("GetTask() failed: %v", err)
			}
			if got.Title != "Fix login bug" {
				t.Errorf("Title = %q, want \"Fix login bug\"", got.Title)
			}

			if _, err := store.GetTask(ctx, "99"); !task.IsKind(err, task.KindNotFound) {
				t.Errorf("GetTask(unknown) error = %v, want NOT_FOUND", err)
			}

			if err := store.RemoveTask(ctx, "1"); err != nil {
				t.Fatalf("RemoveTask() failed: %v", err)
			}
			if err := store.RemoveTask(ctx, "1"); !task.IsKind(err, task.KindNotFound) {
				t.Errorf("second RemoveTask error = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestStorage_InsertionOrderSurvivesRename(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"1", "2", "3"} {
				if err := store.CreateTask(ctx, newTask(id, "", "task "+id)); err != nil {
					t.Fatalf("CreateTask(%s) failed: %v", id, err)
				}
			}

			if err := store.RemoveTask(ctx, "2"); err != nil {
				t.Fatalf("RemoveTask() failed: %v", err)
			}
			if err := store.RenameTask(ctx, "3", "2", ""); err != nil {
				t.Fatalf("RenameTask() failed: %v", err)
			}

			all, err := store.GetAllTasks(ctx)
			if err != nil {
				t.Fatalf("GetAllTasks() failed: %v", err)
			}
			if len(all) != 2 {
				t.Fatalf("len = %d, want 2", len(all))
			}
			// "task 3" was inserted after "task 1" and keeps that slot
			// even though its ID is now "2".
			if all[0].Title != "task 1" || all[1].Title != "task 3" {
				t.Errorf("order = [%s, %s], want [task 1, task 3]", all[0].Title, all[1].Title)
			}
			if all[1].ID != "2" {
				t.Errorf("renamed ID = %q, want \"2\"", all[1].ID)
			}
		})
	}
}

func TestStorage_GetChildTasks(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, pair := range [][2]string{{"1", ""}, {"1.1", "1"}, {"1.2", "1"}, {"2", ""}} {
				if err := store.CreateTask(ctx, newTask(pair[0], pair[1], "task "+pair[0])); err != nil {
					t.Fatalf("CreateTask(%s) failed: %v", pair[0], err)
				}
			}

			children, err := store.GetChildTasks(ctx, "1")
			if err != nil {
				t.Fatalf("GetChildTasks() failed: %v", err)
			}
			if len(children) != 2 || children[0].ID != "1.1" || children[1].ID != "1.2" {
				t.Errorf("children = %v, want [1.1 1.2]", children)
			}

			roots, err := store.GetChildTasks(ctx, "")
			if err != nil {
				t.Fatalf("GetChildTasks(\"\") failed: %v", err)
			}
			if len(roots) != 2 {
				t.Errorf("roots = %d tasks, want 2", len(roots))
			}
		})
	}
}

func TestStorage_UpdateTask(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tk := newTask("1", "", "Original")
			if err := store.CreateTask(ctx, tk); err != nil {
				t.Fatalf("CreateTask() failed: %v", err)
			}

			tk.Title = "Updated"
			tk.Status = task.StatusDone
			tk.Tags = []string{"auth"}
			tk.Metadata = task.Metadata{"note": "kept"}
			if err := store.UpdateTask(ctx, tk); err != nil {
				t.Fatalf("UpdateTask() failed: %v", err)
			}

			got, err := store.GetTask(ctx, "1")
			if err != nil {
				t.Fatalf("GetTask() failed: %v", err)
			}
			if got.Title != "Updated" || got.Status != task.StatusDone {
				t.Errorf("update not applied: %+v", got)
			}
			if len(got.Tags) != 1 || got.Tags[0] != "auth" {
				t.Errorf("Tags = %v, want [auth]", got.Tags)
			}
			if got.Metadata.GetString("note") != "kept" {
				t.Errorf("Metadata = %v, want note=kept", got.Metadata)
			}
		})
	}
}

func TestStorage_StripsSimilarityScore(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tk := newTask("1", "", "Fix login bug")
			tk.Metadata = task.Metadata{
				task.MetaSimilarityScore: 0.9,
				"keep":                   "me",
			}
			if err := store.CreateTask(ctx, tk); err != nil {
				t.Fatalf("CreateTask() failed: %v", err)
			}

			got, err := store.GetTask(ctx, "1")
			if err != nil {
				t.Fatalf("GetTask() failed: %v", err)
			}
			if _, present := got.Metadata[task.MetaSimilarityScore]; present {
				t.Error("similarityScore must not be persisted")
			}
			if got.Metadata.GetString("keep") != "me" {
				t.Errorf("other metadata lost: %v", got.Metadata)
			}
		})
	}
}

func TestStorage_TransactionRollsBack(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.CreateTask(ctx, newTask("1", "", "survivor")); err != nil {
				t.Fatalf("CreateTask() failed: %v", err)
			}

			err := store.RunInTransaction(ctx, func(tx Transaction) error {
				if err := tx.CreateTask(ctx, newTask("2", "", "doomed")); err != nil {
					return err
				}
				if err := tx.RemoveTask(ctx, "1"); err != nil {
					return err
				}
				return task.Errorf(task.KindDependency, "forced failure")
			})
			if !task.IsKind(err, task.KindDependency) {
				t.Fatalf("transaction error = %v, want DEPENDENCY_ERROR", err)
			}

			all, err := store.GetAllTasks(ctx)
			if err != nil {
				t.Fatalf("GetAllTasks() failed: %v", err)
			}
			if len(all) != 1 || all[0].ID != "1" {
				t.Errorf("state after rollback = %v, want only task 1", all)
			}
		})
	}
}

func TestStorage_TransactionCommits(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := store.RunInTransaction(ctx, func(tx Transaction) error {
				return tx.CreateTask(ctx, newTask("1", "", "committed"))
			})
			if err != nil {
				t.Fatalf("transaction failed: %v", err)
			}

			if _, err := store.GetTask(ctx, "1"); err != nil {
				t.Errorf("committed task missing: %v", err)
			}
		})
	}
}

func TestSQLiteStore_SchemaVersion(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	version, err := store.GetConfig(context.Background(), "schema_version")
	if err != nil {
		t.Fatalf("GetConfig() failed: %v", err)
	}
	if version != "1" {
		t.Errorf("schema_version = %q, want \"1\"", version)
	}
}
