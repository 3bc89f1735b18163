// Package hierarchy builds and queries the parent/child tree over a task set.
//
// The tree is computed fresh from a flat task list; it holds no state of its
// own beyond the grouping. Tasks whose parent does not resolve are treated
// as roots (logged, not fatal), but a parent chain that loops is an error.
package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/taskdot/taskdot/internal/task"
)

// ErrHierarchyCycle is returned when a task is reachable from itself via
// parent links. Wrapped errors name the offending task.
var ErrHierarchyCycle = errors.New("hierarchy cycle")

// Tree is an immutable view of the parent/child structure of a task set.
type Tree struct {
	byID     map[string]*task.Task
	children map[string][]*task.Task // parent ID -> direct children, "" for roots
	order    []string                // insertion order of task IDs
}

// Build groups tasks by parent ID and verifies the parent chains are
// acyclic. Dangling parent references are tolerated: the task becomes a
// root and a warning goes to logger (pass nil to discard).
func Build(tasks []*task.Task, logger *log.Logger) (*Tree, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	tr := &Tree{
		byID:     make(map[string]*task.Task, len(tasks)),
		children: make(map[string][]*task.Task),
	}

	for _, t := range tasks {
		if _, dup := tr.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		tr.byID[t.ID] = t
		tr.order = append(tr.order, t.ID)
	}

	for _, id := range tr.order {
		t := tr.byID[id]
		parent := t.ParentID
		if parent != "" {
			if _, ok := tr.byID[parent]; !ok {
				logger.Printf("Warning: task %s references missing parent %s, treating as root", t.ID, parent)
				parent = ""
			}
		}
		tr.children[parent] = append(tr.children[parent], t)
	}

	if err := tr.checkCycles(); err != nil {
		return nil, err
	}
	return tr, nil
}

// checkCycles walks every parent chain; a chain longer than the task count
// or one that revisits a task means the parent links loop.
func (tr *Tree) checkCycles() error {
	for _, id := range tr.order {
		seen := map[string]bool{id: true}
		current := tr.byID[id]
		for current.ParentID != "" {
			next, ok := tr.byID[current.ParentID]
			if !ok {
				break // dangling, already handled in Build
			}
			if seen[next.ID] {
				return fmt.Errorf("task %s: %w", next.ID, ErrHierarchyCycle)
			}
			seen[next.ID] = true
			current = next
		}
	}
	return nil
}

// Get returns the task with the given ID, or nil.
func (tr *Tree) Get(id string) *task.Task {
	return tr.byID[id]
}

// Roots returns tasks with no (resolvable) parent, in insertion order.
func (tr *Tree) Roots() []*task.Task {
	return tr.children[""]
}

// Children returns the direct children of the given task ID.
func (tr *Tree) Children(id string) []*task.Task {
	return tr.children[id]
}

// Descendants returns the full transitive closure of children of id.
// Each descendant appears exactly once; traversal is depth-first in
// insertion order.
func (tr *Tree) Descendants(id string) []*task.Task {
	var out []*task.Task
	var walk func(string)
	walk = func(cur string) {
		for _, child := range tr.children[cur] {
			out = append(out, child)
			walk(child.ID)
		}
	}
	walk(id)
	return out
}

// Siblings returns tasks sharing the same parent group as id (roots share
// the "no parent" group), excluding the task itself. Returns nil for an
// unknown ID.
func (tr *Tree) Siblings(id string) []*task.Task {
	t, ok := tr.byID[id]
	if !ok {
		return nil
	}
	group := t.ParentID
	if _, resolvable := tr.byID[group]; group != "" && !resolvable {
		group = "" // dangling parents put the task in the root group
	}
	var out []*task.Task
	for _, sib := range tr.children[group] {
		if sib.ID != id {
			out = append(out, sib)
		}
	}
	return out
}

// IsDescendantOf reports whether candidate sits below ancestor via parent
// links.
func (tr *Tree) IsDescendantOf(candidate, ancestor string) bool {
	current, ok := tr.byID[candidate]
	if !ok {
		return false
	}
	for current.ParentID != "" {
		if current.ParentID == ancestor {
			return true
		}
		next, ok := tr.byID[current.ParentID]
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// IsSiblingOf reports whether a and b share a parent group.
func (tr *Tree) IsSiblingOf(a, b string) bool {
	ta, okA := tr.byID[a]
	tb, okB := tr.byID[b]
	if !okA || !okB || a == b {
		return false
	}
	return ta.ParentID == tb.ParentID
}
