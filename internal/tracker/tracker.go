// Package tracker exposes the task tracker core: creation with duplicate
// detection, updates, removal with ID renumbering, similarity queries,
// and hierarchy traversal.
//
// The tracker owns no ambient state. Every operation reads the task set
// through an explicit storage handle, computes against it, and writes the
// result back; multi-record rewrites run inside a single storage
// transaction so they apply all-or-nothing.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/taskdot/taskdot/internal/dedup"
	"github.com/taskdot/taskdot/internal/dotid"
	"github.com/taskdot/taskdot/internal/hierarchy"
	"github.com/taskdot/taskdot/internal/similarity"
	"github.com/taskdot/taskdot/internal/storage"
	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/textnorm"
)

// searchPrimaryWeight weights keyword matches over fuzzy title matches
// when combining search result lists.
const searchPrimaryWeight = 0.7

// Tracker is the façade in front of the resolver, allocator, and store.
type Tracker struct {
	store    storage.Storage
	resolver *dedup.Resolver
	logger   *log.Logger
}

// New builds a tracker. Pass nil logger to discard warnings.
func New(store storage.Storage, cfg dedup.Config, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Tracker{
		store:    store,
		resolver: dedup.NewResolver(cfg),
		logger:   logger,
	}
}

// buildTree loads the full task set and assembles the hierarchy.
func (tr *Tracker) buildTree(ctx context.Context, ts storage.TaskStore) ([]*task.Task, *hierarchy.Tree, error) {
	all, err := ts.GetAllTasks(ctx)
	if err != nil {
		return nil, nil, err
	}
	tree, err := hierarchy.Build(all, tr.logger)
	if err != nil {
		// Only an actual cycle is a cycle error; anything else Build
		// rejects (duplicate IDs) is bad data.
		kind := task.KindValidation
		if errors.Is(err, hierarchy.ErrHierarchyCycle) {
			kind = task.KindHierarchyCycle
		}
		return nil, nil, task.WrapErr(kind, err, "task hierarchy is inconsistent")
	}
	return all, tree, nil
}

// CreateOptions describes a creation request.
type CreateOptions struct {
	Title       string
	Description string
	Body        string
	Status      task.Status
	Readiness   task.Readiness
	Tags        []string
	// ChildOf places the new task under the given parent ID.
	ChildOf string
	// After places the new task in the same sibling group as the given
	// task (its parent becomes the new task's parent). Ignored when
	// ChildOf is set.
	After    string
	Metadata task.Metadata

	// Force creates even when duplicate candidates exist.
	Force bool
	// AutoMerge merges into the best candidate above the confidence
	// threshold instead of creating.
	AutoMerge bool
	// Threshold overrides the configured similarity threshold when > 0.
	Threshold float64
}

// CreateResult reports what the duplicate resolver decided and, for
// create and merge outcomes, the resulting task.
type CreateResult struct {
	// Action is the resolver's verdict.
	Action dedup.Action
	// Task is the created task, or the merge target. Nil when skipped.
	Task *task.Task
	// Candidates is the ranked duplicate list (possibly empty).
	Candidates []task.SimilarityResult
}

// CreateTask runs a creation request through the duplicate resolver and,
// when allowed, the identifier allocator.
func (tr *Tracker) CreateTask(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, task.Errorf(task.KindValidation, "title is required")
	}
	if opts.Status != "" && !task.ValidStatus(opts.Status) {
		return nil, task.Errorf(task.KindValidation, "invalid status %q", opts.Status)
	}
	if opts.Readiness != "" && !task.ValidReadiness(opts.Readiness) {
		return nil, task.Errorf(task.KindValidation, "invalid readiness %q", opts.Readiness)
	}

	all, tree, err := tr.buildTree(ctx, tr.store)
	if err != nil {
		return nil, err
	}

	parentID := opts.ChildOf
	if parentID == "" && opts.After != "" {
		if tree.Get(opts.After) == nil {
			return nil, task.Errorf(task.KindNotFound, "task %s not found", opts.After)
		}
		parentID = dotid.Parent(opts.After)
	}
	if parentID != "" && tree.Get(parentID) == nil {
		return nil, task.Errorf(task.KindNotFound, "parent task %s not found", parentID)
	}

	res := tr.resolver.Evaluate(opts.Title, all, dedup.Options{
		Force:     opts.Force,
		AutoMerge: opts.AutoMerge,
		Threshold: opts.Threshold,
	})

	switch res.Action {
	case dedup.ActionSkip:
		return &CreateResult{Action: res.Action, Candidates: res.Candidates}, nil

	case dedup.ActionMerge:
		target, err := tr.mergeIncoming(ctx, opts, res.Candidates[0].ID)
		if err != nil {
			return nil, err
		}
		return &CreateResult{Action: res.Action, Task: target, Candidates: res.Candidates}, nil
	}

	id, err := dotid.Allocate(tree, parentID)
	if err != nil {
		return nil, task.WrapErr(task.KindValidation, err, "cannot allocate id")
	}

	now := time.Now()
	t := &task.Task{
		ID:          id,
		Title:       opts.Title,
		Description: opts.Description,
		Body:        opts.Body,
		Status:      opts.Status,
		Readiness:   opts.Readiness,
		Tags:        opts.Tags,
		ParentID:    parentID,
		Metadata:    opts.Metadata.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.SetDefaults()

	if err := tr.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return &CreateResult{Action: res.Action, Task: t, Candidates: res.Candidates}, nil
}

// mergeIncoming folds a never-persisted creation request into an existing
// target task: the request's tags and metadata land on the target, and no
// new record is created.
func (tr *Tracker) mergeIncoming(ctx context.Context, opts CreateOptions, targetID string) (*task.Task, error) {
	target, err := tr.store.GetTask(ctx, targetID)
	if err != nil {
		return nil, err
	}

	incoming := &task.Task{
		ID:       "unsaved", // placeholder; never written
		Title:    opts.Title,
		Tags:     opts.Tags,
		Metadata: opts.Metadata.Clone(),
	}
	_, updated := dedup.Merge(incoming, target, dedup.MergeOverrides{}, time.Now())
	// The request was never stored, so only the target write applies and
	// the bookkeeping key naming a non-existent source is dropped.
	delete(updated.Metadata, task.MetaMergedFrom)

	if err := tr.store.UpdateTask(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateOptions carries a partial update; nil fields are left unchanged.
type UpdateOptions struct {
	ID          string
	Title       *string
	Description *string
	Body        *string
	Status      *task.Status
	Readiness   *task.Readiness
	Tags        []string // nil leaves tags unchanged
	Metadata    task.Metadata
}

// UpdateTask applies a partial update. The ID never changes here; only
// the removal cascade rewrites IDs.
func (tr *Tracker) UpdateTask(ctx context.Context, opts UpdateOptions) (*task.Task, error) {
	t, err := tr.store.GetTask(ctx, opts.ID)
	if err != nil {
		return nil, err
	}

	if opts.Title != nil {
		if strings.TrimSpace(*opts.Title) == "" {
			return nil, task.Errorf(task.KindValidation, "title is required")
		}
		t.Title = *opts.Title
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	if opts.Body != nil {
		t.Body = *opts.Body
	}
	if opts.Status != nil {
		if !task.ValidStatus(*opts.Status) {
			return nil, task.Errorf(task.KindValidation, "invalid status %q", *opts.Status)
		}
		t.Status = *opts.Status
	}
	if opts.Readiness != nil {
		if !task.ValidReadiness(*opts.Readiness) {
			return nil, task.Errorf(task.KindValidation, "invalid readiness %q", *opts.Readiness)
		}
		t.Readiness = *opts.Readiness
	}
	if opts.Tags != nil {
		t.Tags = opts.Tags
	}
	for k, v := range opts.Metadata {
		if t.Metadata == nil {
			t.Metadata = task.Metadata{}
		}
		t.Metadata[k] = v
	}
	t.UpdatedAt = time.Now()

	if err := tr.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RemoveTask deletes a task and renumbers the affected siblings and their
// descendants. The deletion and the full renumbering cascade run inside
// one transaction: either every rewrite applies or none does.
//
// A task with children is only removed when withChildren is set, in which
// case the whole subtree goes.
func (tr *Tracker) RemoveTask(ctx context.Context, id string, withChildren bool) error {
	return tr.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		_, tree, err := tr.buildTree(ctx, tx)
		if err != nil {
			return err
		}
		if tree.Get(id) == nil {
			return task.Errorf(task.KindNotFound, "task %s not found", id)
		}

		descendants := tree.Descendants(id)
		if len(descendants) > 0 && !withChildren {
			return task.Errorf(task.KindValidation,
				"task %s has %d descendant(s); pass withChildren to remove the subtree", id, len(descendants))
		}

		// Plan the cascade before mutating anything.
		plan, err := dotid.RenumberPlan(tree, id)
		if err != nil {
			return task.WrapErr(task.KindDependency, err, "cannot plan renumbering after removing %s", id)
		}

		// Delete deepest-first so parents never outlive their children.
		for i := len(descendants) - 1; i >= 0; i-- {
			if err := tx.RemoveTask(ctx, descendants[i].ID); err != nil {
				return err
			}
		}
		if err := tx.RemoveTask(ctx, id); err != nil {
			return err
		}

		for _, rn := range plan {
			if err := tx.RenameTask(ctx, rn.OldID, rn.NewID, rn.NewParent); err != nil {
				return task.WrapErr(task.KindDependency, err,
					"renumbering cascade failed at %s -> %s", rn.OldID, rn.NewID)
			}
		}
		return nil
	})
}

// MergeTasks merges sourceID into targetID. Both writes happen in one
// transaction; the source is retired, never deleted.
func (tr *Tracker) MergeTasks(ctx context.Context, sourceID, targetID string, overrides dedup.MergeOverrides) (*task.Task, error) {
	if sourceID == targetID {
		return nil, task.Errorf(task.KindValidation, "cannot merge a task into itself")
	}

	var merged *task.Task
	err := tr.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		source, err := tx.GetTask(ctx, sourceID)
		if err != nil {
			return err
		}
		target, err := tx.GetTask(ctx, targetID)
		if err != nil {
			return err
		}

		retired, updated := dedup.Merge(source, target, overrides, time.Now())
		if err := tx.UpdateTask(ctx, updated); err != nil {
			return err
		}
		if err := tx.UpdateTask(ctx, retired); err != nil {
			return err
		}
		merged = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// GetTask returns a single task.
func (tr *Tracker) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return tr.store.GetTask(ctx, id)
}

// ListFilter narrows ListTasks output. Zero values match everything.
type ListFilter struct {
	Status    task.Status
	Readiness task.Readiness
	Tag       string
}

// ListTasks returns tasks matching the filter in insertion order.
func (tr *Tracker) ListTasks(ctx context.Context, filter ListFilter) ([]*task.Task, error) {
	all, err := tr.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	var out []*task.Task
	for _, t := range all {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Readiness != "" && t.Readiness != filter.Readiness {
			continue
		}
		if filter.Tag != "" && !hasTag(t, filter.Tag) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func hasTag(t *task.Task, tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// GetDescendants returns the transitive closure of children of id.
func (tr *Tracker) GetDescendants(ctx context.Context, id string) ([]*task.Task, error) {
	_, tree, err := tr.buildTree(ctx, tr.store)
	if err != nil {
		return nil, err
	}
	if tree.Get(id) == nil {
		return nil, task.Errorf(task.KindNotFound, "task %s not found", id)
	}
	return tree.Descendants(id), nil
}

// FindSimilarTasks returns existing tasks whose title or description
// scores at or above threshold against title, sorted descending. The
// scores ride along as transient results, never as task records.
func (tr *Tracker) FindSimilarTasks(ctx context.Context, title string, threshold float64) ([]task.SimilarityResult, error) {
	all, err := tr.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return tr.resolver.Candidates(title, all, threshold), nil
}

// SearchTasks ranks tasks against a free-text query. Two signals are
// combined: synonym-expanded keyword overlap on stemmed title tokens, and
// fuzzy whole-title matching.
func (tr *Tracker) SearchTasks(ctx context.Context, query string) ([]task.SimilarityResult, error) {
	all, err := tr.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}

	terms := textnorm.ExpandWithSynonyms(query)
	termSet := make(map[string]bool, len(terms))
	for _, term := range terms {
		termSet[term] = true
	}

	var primary, fuzzy []task.SimilarityResult
	queryNorm := strings.ToLower(strings.TrimSpace(query))
	for _, t := range all {
		if t.IsMerged() {
			continue
		}
		if score := keywordScore(termSet, t.Title); score > 0 {
			primary = append(primary, task.SimilarityResult{ID: t.ID, Title: t.Title, Similarity: score})
		}
		if score := similarity.FuzzyScore(queryNorm, strings.ToLower(t.Title)); score > 0 {
			fuzzy = append(fuzzy, task.SimilarityResult{ID: t.ID, Title: t.Title, Similarity: score})
		}
	}

	return similarity.CombineSearchResults(primary, fuzzy, searchPrimaryWeight), nil
}

// keywordScore is the fraction of a title's normalized tokens (or their
// stems) present in the expanded query term set.
func keywordScore(termSet map[string]bool, title string) float64 {
	tokens := textnorm.TokenizeAndNormalize(title)
	if len(tokens) == 0 {
		return 0
	}
	matched := 0
	for tok := range tokens {
		if termSet[tok] || termSet[textnorm.StemWord(tok)] {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

// Verify rebuilds the hierarchy and checks the sibling numbering
// invariant: every sibling group is a contiguous 1..n range. Returns a
// description of each violation found.
func (tr *Tracker) Verify(ctx context.Context) ([]string, error) {
	_, tree, err := tr.buildTree(ctx, tr.store)
	if err != nil {
		return nil, err
	}

	var problems []string
	checkGroup := func(parent string, group []*task.Task) {
		seen := make(map[int]string, len(group))
		for _, t := range group {
			n, err := dotid.LastSegment(t.ID)
			if err != nil {
				problems = append(problems, fmt.Sprintf("task %s: malformed id", t.ID))
				continue
			}
			if prev, dup := seen[n]; dup {
				problems = append(problems, fmt.Sprintf("tasks %s and %s share sibling number %d", prev, t.ID, n))
			}
			seen[n] = t.ID
		}
		for n := 1; n <= len(group); n++ {
			if _, ok := seen[n]; !ok {
				label := parent
				if label == "" {
					label = "(root)"
				}
				problems = append(problems, fmt.Sprintf("sibling group under %s has a gap at %d", label, n))
			}
		}
	}

	checkGroup("", tree.Roots())
	var walk func(t *task.Task)
	walk = func(t *task.Task) {
		children := tree.Children(t.ID)
		if len(children) > 0 {
			checkGroup(t.ID, children)
		}
		for _, c := range children {
			walk(c)
		}
	}
	for _, root := range tree.Roots() {
		walk(root)
	}
	return problems, nil
}
