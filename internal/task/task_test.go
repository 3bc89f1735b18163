package task

import (
	"strings"
	"testing"
	"time"
)

func TestTask_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid root task",
			task: Task{
				ID:        "1",
				Title:     "Fix login bug",
				Status:    StatusTodo,
				Readiness: ReadinessDraft,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: false,
		},
		{
			name: "valid child task",
			task: Task{
				ID:        "3.2.1",
				Title:     "Write regression test",
				Status:    StatusInProgress,
				Readiness: ReadinessReady,
				ParentID:  "3.2",
			},
			wantErr: false,
		},
		{
			name: "missing id",
			task: Task{
				Title:     "Test",
				Status:    StatusTodo,
				Readiness: ReadinessDraft,
			},
			wantErr: true,
			errMsg:  "id is required",
		},
		{
			name: "missing title",
			task: Task{
				ID:        "1",
				Status:    StatusTodo,
				Readiness: ReadinessDraft,
			},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name: "whitespace title",
			task: Task{
				ID:        "1",
				Title:     "   ",
				Status:    StatusTodo,
				Readiness: ReadinessDraft,
			},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name: "invalid status",
			task: Task{
				ID:        "1",
				Title:     "Test",
				Status:    "open",
				Readiness: ReadinessDraft,
			},
			wantErr: true,
			errMsg:  "invalid status",
		},
		{
			name: "invalid readiness",
			task: Task{
				ID:        "1",
				Title:     "Test",
				Status:    StatusTodo,
				Readiness: "pending",
			},
			wantErr: true,
			errMsg:  "invalid readiness",
		},
		{
			name: "id does not extend parent",
			task: Task{
				ID:        "2.1",
				Title:     "Test",
				Status:    StatusTodo,
				Readiness: ReadinessDraft,
				ParentID:  "3",
			},
			wantErr: true,
			errMsg:  "does not extend parent",
		},
		{
			name: "root id with dots",
			task: Task{
				ID:        "1.2",
				Title:     "Test",
				Status:    StatusTodo,
				Readiness: ReadinessDraft,
			},
			wantErr: true,
			errMsg:  "single segment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestTask_SetDefaults(t *testing.T) {
	tk := Task{ID: "1", Title: "Test"}
	tk.SetDefaults()

	if tk.Status != StatusTodo {
		t.Errorf("Status = %q, want %q", tk.Status, StatusTodo)
	}
	if tk.Readiness != ReadinessDraft {
		t.Errorf("Readiness = %q, want %q", tk.Readiness, ReadinessDraft)
	}
	if tk.Tags == nil {
		t.Error("Tags should be initialized to empty slice")
	}
	if tk.CreatedAt.IsZero() || tk.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name  string
		base  []string
		extra []string
		want  []string
	}{
		{
			name:  "disjoint preserves order",
			base:  []string{"auth", "backend"},
			extra: []string{"urgent", "login"},
			want:  []string{"auth", "backend", "urgent", "login"},
		},
		{
			name:  "overlap keeps base position",
			base:  []string{"auth", "backend"},
			extra: []string{"backend", "urgent"},
			want:  []string{"auth", "backend", "urgent"},
		},
		{
			name:  "both empty",
			base:  nil,
			extra: nil,
			want:  []string{},
		},
		{
			name:  "empty strings dropped",
			base:  []string{"", "auth"},
			extra: []string{""},
			want:  []string{"auth"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.base, tt.extra)
			if len(got) != len(tt.want) {
				t.Fatalf("MergeTags() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("MergeTags()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatTags(t *testing.T) {
	if got := FormatTags(nil); got != "none" {
		t.Errorf("FormatTags(nil) = %q, want \"none\"", got)
	}
	if got := FormatTags(&Task{}); got != "none" {
		t.Errorf("FormatTags(empty) = %q, want \"none\"", got)
	}
	tk := &Task{Tags: []string{"auth", "backend"}}
	if got := FormatTags(tk); got != "auth, backend" {
		t.Errorf("FormatTags() = %q, want \"auth, backend\"", got)
	}
}

func TestMetadata_Clone(t *testing.T) {
	m := Metadata{"a": "b"}
	c := m.Clone()
	c["a"] = "changed"
	if m["a"] != "b" {
		t.Error("Clone() should not share storage with the original")
	}

	var nilMeta Metadata
	if got := nilMeta.Clone(); got == nil {
		t.Error("Clone() of nil metadata should return an empty map")
	}
}
