// Package dotid allocates and rewrites dot-notation task identifiers.
//
// An ID like "3.2.1" encodes ancestry: each segment is a 1-based sibling
// position and the prefix ("3.2") is the parent's ID. The allocator has no
// state of its own; every operation is computed fresh from the current
// task set, which keeps sibling numbering contiguous by construction.
package dotid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/taskdot/taskdot/internal/hierarchy"
	"github.com/taskdot/taskdot/internal/task"
)

// Parent returns the ID prefix identifying the parent, or "" for roots.
func Parent(id string) string {
	idx := strings.LastIndex(id, ".")
	if idx < 0 {
		return ""
	}
	return id[:idx]
}

// LastSegment returns the trailing sibling number of id.
func LastSegment(id string) (int, error) {
	seg := id
	if idx := strings.LastIndex(id, "."); idx >= 0 {
		seg = id[idx+1:]
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid id segment %q in %q", seg, id)
	}
	return n, nil
}

// Join builds a child ID from a parent prefix and sibling number.
func Join(parent string, n int) string {
	if parent == "" {
		return strconv.Itoa(n)
	}
	return parent + "." + strconv.Itoa(n)
}

// Valid reports whether id is a well-formed dot-notation identifier:
// one or more positive integer segments separated by dots.
func Valid(id string) bool {
	if id == "" {
		return false
	}
	for _, seg := range strings.Split(id, ".") {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 1 {
			return false
		}
		// Reject leading zeros so IDs have one canonical spelling.
		if seg != strconv.Itoa(n) {
			return false
		}
	}
	return true
}

// Allocate returns the next available ID under parentID, or the next root
// ID when parentID is empty. The first child of any group is numbered 1.
func Allocate(tr *hierarchy.Tree, parentID string) (string, error) {
	var siblings []*task.Task
	if parentID == "" {
		siblings = tr.Roots()
	} else {
		if tr.Get(parentID) == nil {
			return "", fmt.Errorf("parent task %q not found", parentID)
		}
		siblings = tr.Children(parentID)
	}

	maxN := 0
	for _, sib := range siblings {
		n, err := LastSegment(sib.ID)
		if err != nil {
			return "", err
		}
		if n > maxN {
			maxN = n
		}
	}
	return Join(parentID, maxN+1), nil
}

// Rename describes one ID rewrite produced by a removal cascade.
type Rename struct {
	OldID string
	NewID string
	// OldParent/NewParent track the parent back-reference rewrite; equal
	// for renumbered siblings, shifted for their descendants.
	OldParent string
	NewParent string
}

// RenumberPlan computes the full set of ID rewrites required after
// removing removedID: every later sibling's trailing segment drops by one,
// and every descendant of a renumbered sibling has the old ancestor prefix
// replaced with the new one, suffix unchanged.
//
// The plan is ordered so applying renames sequentially never collides with
// a still-existing ID: siblings ascend by their (old) trailing number, and
// each sibling's rename precedes its descendants'.
//
// Removing the last sibling of a group yields an empty plan.
func RenumberPlan(tr *hierarchy.Tree, removedID string) ([]Rename, error) {
	removedN, err := LastSegment(removedID)
	if err != nil {
		return nil, err
	}
	parent := Parent(removedID)

	var later []*task.Task
	var siblings []*task.Task
	if parent == "" {
		siblings = tr.Roots()
	} else {
		siblings = tr.Children(parent)
	}
	for _, sib := range siblings {
		if sib.ID == removedID {
			continue
		}
		n, err := LastSegment(sib.ID)
		if err != nil {
			return nil, err
		}
		if n > removedN {
			later = append(later, sib)
		}
	}

	sort.Slice(later, func(i, j int) bool {
		ni, _ := LastSegment(later[i].ID)
		nj, _ := LastSegment(later[j].ID)
		return ni < nj
	})

	var plan []Rename
	for _, sib := range later {
		n, _ := LastSegment(sib.ID)
		newID := Join(parent, n-1)
		plan = append(plan, Rename{
			OldID:     sib.ID,
			NewID:     newID,
			OldParent: sib.ParentID,
			NewParent: sib.ParentID,
		})

		oldPrefix := sib.ID + "."
		newPrefix := newID + "."
		for _, desc := range tr.Descendants(sib.ID) {
			if !strings.HasPrefix(desc.ID, oldPrefix) {
				return nil, fmt.Errorf("descendant %q does not extend ancestor %q", desc.ID, sib.ID)
			}
			newParent := desc.ParentID
			if desc.ParentID == sib.ID {
				newParent = newID
			} else if strings.HasPrefix(desc.ParentID, oldPrefix) {
				newParent = newPrefix + desc.ParentID[len(oldPrefix):]
			}
			plan = append(plan, Rename{
				OldID:     desc.ID,
				NewID:     newPrefix + desc.ID[len(oldPrefix):],
				OldParent: desc.ParentID,
				NewParent: newParent,
			})
		}
	}
	return plan, nil
}
