package ui

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/taskdot/taskdot/internal/hierarchy"
	"github.com/taskdot/taskdot/internal/task"
)

func init() {
	// Plain output keeps assertions free of escape codes.
	SetColorMode("never")
}

func TestTaskLine(t *testing.T) {
	tk := &task.Task{
		ID:     "2.1",
		Title:  "Wire up auth",
		Status: task.StatusInProgress,
		Tags:   []string{"auth", "backend"},
	}

	got := TaskLine(tk)
	for _, want := range []string{"◐", "2.1", "Wire up auth", "[auth, backend]"} {
		if !strings.Contains(got, want) {
			t.Errorf("TaskLine = %q, missing %q", got, want)
		}
	}
}

func TestTaskLine_MergedMarker(t *testing.T) {
	tk := &task.Task{
		ID:       "3",
		Title:    "dup",
		Status:   task.StatusDone,
		Metadata: task.Metadata{task.MetaMergedInto: "1"},
	}
	if got := TaskLine(tk); !strings.Contains(got, "merged into 1") {
		t.Errorf("TaskLine = %q, want merged marker", got)
	}
}

func TestTree(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Title: "root one", Status: task.StatusTodo},
		{ID: "1.1", Title: "child", ParentID: "1", Status: task.StatusTodo},
		{ID: "1.2", Title: "last child", ParentID: "1", Status: task.StatusDone},
		{ID: "1.1.1", Title: "grandchild", ParentID: "1.1", Status: task.StatusTodo},
	}
	tree, err := hierarchy.Build(tasks, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := Tree(tree)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("tree has %d lines, want 4:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], "├── ") || !strings.Contains(lines[1], "1.1") {
		t.Errorf("line 2 = %q, want mid connector for 1.1", lines[1])
	}
	if !strings.Contains(lines[2], "│   └── ") || !strings.Contains(lines[2], "grandchild") {
		t.Errorf("line 3 = %q, want nested connector for 1.1.1", lines[2])
	}
	if !strings.Contains(lines[3], "└── ") || !strings.Contains(lines[3], "1.2") {
		t.Errorf("line 4 = %q, want last connector for 1.2", lines[3])
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates([]task.SimilarityResult{
		{ID: "1", Title: "Fix login bug", Similarity: 0.5},
	})
	if !strings.Contains(got, "0.50") || !strings.Contains(got, "Fix login bug") {
		t.Errorf("Candidates = %q", got)
	}
}

func TestStatusGlyph(t *testing.T) {
	if StatusGlyph(task.StatusDone) != "✓" || StatusGlyph(task.StatusTodo) != "○" {
		t.Error("unexpected status glyphs")
	}
}
