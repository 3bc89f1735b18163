// Package task defines the task data model shared by every taskdot component.
//
// Tasks carry dot-notation IDs ("3.2.1") where each segment is a sibling
// position and the prefix identifies the ancestor chain. The model keeps
// flat JSON-friendly fields so tasks round-trip cleanly through the SQLite
// store and plan files.
package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the primary lifecycle axis of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Readiness is the secondary lifecycle axis, independent of Status.
type Readiness string

const (
	ReadinessDraft   Readiness = "draft"
	ReadinessReady   Readiness = "ready"
	ReadinessBlocked Readiness = "blocked"
)

// Metadata keys injected by the merge executor. These are the only keys
// taskdot itself writes; everything else in the map belongs to callers.
const (
	MetaMergedFrom      = "mergedFrom"
	MetaMergedInto      = "mergedInto"
	MetaMergedAt        = "mergedAt"
	MetaSimilarityScore = "similarityScore"
)

// Metadata is a JSON-serializable key/value map attached to a task.
// It is parsed once at the storage boundary and carried as a typed map,
// never re-parsed at call sites.
type Metadata map[string]interface{}

// Clone returns a shallow copy, never nil.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SortedKeys returns the metadata keys in lexical order, for stable
// display.
func (m Metadata) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns the value for key if it is a string, else "".
func (m Metadata) GetString(key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Task represents a single work item in the hierarchy.
type Task struct {
	// ID is the dot-notation identifier, e.g. "3.2.1".
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body,omitempty"`

	Status    Status    `json:"status"`
	Readiness Readiness `json:"readiness"`

	// Tags is an ordered set: no duplicates, insertion order preserved.
	Tags []string `json:"tags,omitempty"`

	// ParentID is a non-owning back-reference; empty for root tasks.
	ParentID string `json:"parent_id,omitempty"`

	Metadata Metadata `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ValidReadiness reports whether r is one of the known readiness values.
func ValidReadiness(r Readiness) bool {
	switch r {
	case ReadinessDraft, ReadinessReady, ReadinessBlocked:
		return true
	}
	return false
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if !ValidStatus(t.Status) {
		return fmt.Errorf("invalid status %q (want todo, in-progress, or done)", t.Status)
	}
	if !ValidReadiness(t.Readiness) {
		return fmt.Errorf("invalid readiness %q (want draft, ready, or blocked)", t.Readiness)
	}
	if t.ParentID != "" {
		if !strings.HasPrefix(t.ID, t.ParentID+".") {
			return fmt.Errorf("id %q does not extend parent id %q", t.ID, t.ParentID)
		}
	} else if strings.Contains(t.ID, ".") {
		return fmt.Errorf("root task id %q must be a single segment", t.ID)
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Readiness == "" {
		t.Readiness = ReadinessDraft
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	out := *t
	out.Tags = append([]string(nil), t.Tags...)
	out.Metadata = t.Metadata.Clone()
	return &out
}

// IsMerged reports whether the task has been retired into another task.
func (t *Task) IsMerged() bool {
	return t.Metadata.GetString(MetaMergedInto) != ""
}

// FormatTags renders the tag list for display, "none" when empty.
// Total accessor: safe on nil receivers and nil tag slices.
func FormatTags(t *Task) string {
	if t == nil || len(t.Tags) == 0 {
		return "none"
	}
	return strings.Join(t.Tags, ", ")
}

// MergeTags combines two ordered tag sets: base order first, then tags
// introduced by extra in their original order, deduplicated.
func MergeTags(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, lists := range [][]string{base, extra} {
		for _, tag := range lists {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// SimilarityResult pairs a candidate task with a score in [0,1].
// Results are ephemeral: they exist only for the duration of a
// duplicate-check or search call and are never persisted.
type SimilarityResult struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}
