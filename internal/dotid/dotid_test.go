package dotid

import (
	"testing"

	"github.com/taskdot/taskdot/internal/hierarchy"
	"github.com/taskdot/taskdot/internal/task"
)

func mk(id string) *task.Task {
	return &task.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    task.StatusTodo,
		Readiness: task.ReadinessDraft,
		ParentID:  Parent(id),
	}
}

func tree(t *testing.T, ids ...string) *hierarchy.Tree {
	t.Helper()
	tasks := make([]*task.Task, len(ids))
	for i, id := range ids {
		tasks[i] = mk(id)
	}
	tr, err := hierarchy.Build(tasks, nil)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return tr
}

func TestParent(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"1", ""},
		{"3.2", "3"},
		{"3.2.1", "3.2"},
	}
	for _, tt := range tests {
		if got := Parent(tt.id); got != tt.want {
			t.Errorf("Parent(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	valid := []string{"1", "12", "3.2.1", "10.1"}
	invalid := []string{"", "0", "1.0", "a", "1..2", "1.", ".1", "01", "1.02", "-1"}

	for _, id := range valid {
		if !Valid(id) {
			t.Errorf("Valid(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if Valid(id) {
			t.Errorf("Valid(%q) = true, want false", id)
		}
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		parentID string
		want     string
	}{
		{
			name:     "first root",
			existing: nil,
			parentID: "",
			want:     "1",
		},
		{
			name:     "next root",
			existing: []string{"1", "2"},
			parentID: "",
			want:     "3",
		},
		{
			name:     "first child",
			existing: []string{"1"},
			parentID: "1",
			want:     "1.1",
		},
		{
			name:     "next child",
			existing: []string{"2", "2.1", "2.2"},
			parentID: "2",
			want:     "2.3",
		},
		{
			name:     "deep child",
			existing: []string{"3", "3.2", "3.2.1"},
			parentID: "3.2",
			want:     "3.2.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree(t, tt.existing...)
			got, err := Allocate(tr, tt.parentID)
			if err != nil {
				t.Fatalf("Allocate() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allocate(%q) = %q, want %q", tt.parentID, got, tt.want)
			}
		})
	}
}

func TestAllocate_UnknownParent(t *testing.T) {
	tr := tree(t, "1")
	if _, err := Allocate(tr, "9"); err == nil {
		t.Fatal("Allocate() should fail for an unknown parent")
	}
}

func TestRenumberPlan_RootRemoval(t *testing.T) {
	tr := tree(t, "1", "2", "3", "3.1", "3.1.1")

	plan, err := RenumberPlan(tr, "2")
	if err != nil {
		t.Fatalf("RenumberPlan() failed: %v", err)
	}

	want := []Rename{
		{OldID: "3", NewID: "2", OldParent: "", NewParent: ""},
		{OldID: "3.1", NewID: "2.1", OldParent: "3", NewParent: "2"},
		{OldID: "3.1.1", NewID: "2.1.1", OldParent: "3.1", NewParent: "2.1"},
	}
	if len(plan) != len(want) {
		t.Fatalf("plan = %+v, want %+v", plan, want)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Errorf("plan[%d] = %+v, want %+v", i, plan[i], want[i])
		}
	}
}

func TestRenumberPlan_SiblingWithDescendants(t *testing.T) {
	// Removing sibling 2 under parent 1: sibling 3 becomes 2, so 1.3.2.1
	// becomes 1.2.2.1 (prefix rewrite, suffix unchanged).
	tr := tree(t, "1", "1.1", "1.2", "1.3", "1.3.1", "1.3.2", "1.3.2.1")

	plan, err := RenumberPlan(tr, "1.2")
	if err != nil {
		t.Fatalf("RenumberPlan() failed: %v", err)
	}

	got := make(map[string]string, len(plan))
	for _, r := range plan {
		got[r.OldID] = r.NewID
	}
	wantPairs := map[string]string{
		"1.3":     "1.2",
		"1.3.1":   "1.2.1",
		"1.3.2":   "1.2.2",
		"1.3.2.1": "1.2.2.1",
	}
	if len(got) != len(wantPairs) {
		t.Fatalf("plan = %v, want %v", got, wantPairs)
	}
	for old, want := range wantPairs {
		if got[old] != want {
			t.Errorf("rename %s = %s, want %s", old, got[old], want)
		}
	}
}

func TestRenumberPlan_LastSibling(t *testing.T) {
	tr := tree(t, "1", "2", "3")
	plan, err := RenumberPlan(tr, "3")
	if err != nil {
		t.Fatalf("RenumberPlan() failed: %v", err)
	}
	if len(plan) != 0 {
		t.Errorf("removing the last sibling should need no renumbering, got %+v", plan)
	}
}

func TestRenumberPlan_NoDescendants(t *testing.T) {
	tr := tree(t, "1", "2", "3")
	plan, err := RenumberPlan(tr, "1")
	if err != nil {
		t.Fatalf("RenumberPlan() failed: %v", err)
	}
	want := []Rename{
		{OldID: "2", NewID: "1"},
		{OldID: "3", NewID: "2"},
	}
	if len(plan) != len(want) {
		t.Fatalf("plan = %+v, want 2 renames", plan)
	}
	for i := range want {
		if plan[i].OldID != want[i].OldID || plan[i].NewID != want[i].NewID {
			t.Errorf("plan[%d] = %+v, want %+v", i, plan[i], want[i])
		}
	}
}

func TestRenumberPlan_OrderAvoidsCollisions(t *testing.T) {
	tr := tree(t, "1", "2", "3", "4")
	plan, err := RenumberPlan(tr, "2")
	if err != nil {
		t.Fatalf("RenumberPlan() failed: %v", err)
	}

	// Applying sequentially after deleting "2": each NewID must not clash
	// with any ID still present at that point.
	existing := map[string]bool{"1": true, "3": true, "4": true}
	for _, r := range plan {
		if existing[r.NewID] {
			t.Fatalf("rename %s -> %s collides with a live ID", r.OldID, r.NewID)
		}
		delete(existing, r.OldID)
		existing[r.NewID] = true
	}
}
