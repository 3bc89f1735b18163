package hierarchy

import (
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/taskdot/taskdot/internal/task"
)

func mk(id, parent string) *task.Task {
	return &task.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    task.StatusTodo,
		Readiness: task.ReadinessDraft,
		ParentID:  parent,
	}
}

func mustBuild(t *testing.T, tasks []*task.Task) *Tree {
	t.Helper()
	tr, err := Build(tasks, nil)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return tr
}

func ids(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestBuild_GroupsByParent(t *testing.T) {
	tr := mustBuild(t, []*task.Task{
		mk("1", ""),
		mk("2", ""),
		mk("1.1", "1"),
		mk("1.2", "1"),
		mk("1.2.1", "1.2"),
	})

	if got := ids(tr.Roots()); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("Roots() = %v, want [1 2]", got)
	}
	if got := ids(tr.Children("1")); len(got) != 2 || got[0] != "1.1" || got[1] != "1.2" {
		t.Errorf("Children(1) = %v, want [1.1 1.2]", got)
	}
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	var buf strings.Builder
	logger := log.New(&buf, "", 0)

	tr, err := Build([]*task.Task{
		mk("1", ""),
		mk("9.1", "9"), // parent 9 does not exist
	}, logger)
	if err != nil {
		t.Fatalf("Build() should tolerate dangling parents: %v", err)
	}

	if got := ids(tr.Roots()); len(got) != 2 {
		t.Errorf("Roots() = %v, want the dangling task promoted to root", got)
	}
	if !strings.Contains(buf.String(), "missing parent") {
		t.Errorf("expected a warning about the missing parent, got %q", buf.String())
	}
}

func TestBuild_DetectsCycle(t *testing.T) {
	a := mk("a", "b")
	b := mk("b", "a")

	_, err := Build([]*task.Task{a, b}, nil)
	if err == nil {
		t.Fatal("Build() should fail on a parent cycle")
	}
	if !errors.Is(err, ErrHierarchyCycle) {
		t.Errorf("error = %v, want ErrHierarchyCycle", err)
	}
}

func TestBuild_DuplicateID(t *testing.T) {
	if _, err := Build([]*task.Task{mk("1", ""), mk("1", "")}, nil); err == nil {
		t.Fatal("Build() should reject duplicate IDs")
	}
}

func TestDescendants(t *testing.T) {
	tr := mustBuild(t, []*task.Task{
		mk("1", ""),
		mk("1.1", "1"),
		mk("1.2", "1"),
		mk("1.2.1", "1.2"),
		mk("2", ""),
	})

	got := ids(tr.Descendants("1"))
	want := map[string]bool{"1.1": true, "1.2": true, "1.2.1": true}
	if len(got) != len(want) {
		t.Fatalf("Descendants(1) = %v, want exactly %v", got, want)
	}
	seen := make(map[string]bool)
	for _, id := range got {
		if seen[id] {
			t.Errorf("descendant %s appears more than once", id)
		}
		seen[id] = true
		if !want[id] {
			t.Errorf("unexpected descendant %s", id)
		}
	}

	// Idempotent without intervening mutation.
	again := ids(tr.Descendants("1"))
	if len(again) != len(got) {
		t.Errorf("second Descendants call returned %v, want %v", again, got)
	}

	if got := tr.Descendants("1.1"); len(got) != 0 {
		t.Errorf("Descendants(leaf) = %v, want empty", ids(got))
	}
}

func TestSiblings(t *testing.T) {
	tr := mustBuild(t, []*task.Task{
		mk("1", ""),
		mk("2", ""),
		mk("3", ""),
		mk("1.1", "1"),
		mk("1.2", "1"),
	})

	if got := ids(tr.Siblings("2")); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("Siblings(2) = %v, want [1 3]", got)
	}
	if got := ids(tr.Siblings("1.1")); len(got) != 1 || got[0] != "1.2" {
		t.Errorf("Siblings(1.1) = %v, want [1.2]", got)
	}
	if got := tr.Siblings("nope"); got != nil {
		t.Errorf("Siblings(unknown) = %v, want nil", got)
	}
}

func TestPredicates(t *testing.T) {
	tr := mustBuild(t, []*task.Task{
		mk("1", ""),
		mk("1.1", "1"),
		mk("1.1.1", "1.1"),
		mk("2", ""),
	})

	if !tr.IsDescendantOf("1.1.1", "1") {
		t.Error("1.1.1 should be a descendant of 1")
	}
	if tr.IsDescendantOf("1", "1.1.1") {
		t.Error("ancestry is not symmetric")
	}
	if tr.IsDescendantOf("2", "1") {
		t.Error("2 is not a descendant of 1")
	}
	if !tr.IsSiblingOf("1", "2") {
		t.Error("1 and 2 are root siblings")
	}
	if tr.IsSiblingOf("1", "1.1") {
		t.Error("parent and child are not siblings")
	}
	if tr.IsSiblingOf("1", "1") {
		t.Error("a task is not its own sibling")
	}
}
