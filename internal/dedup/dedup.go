// Package dedup decides what to do with a task creation request that may
// duplicate an existing task, and executes confirmed merges.
//
// The resolver scores the incoming title against every existing task and
// applies a fixed decision policy: create when nothing matches, create
// with a warning when forced, merge automatically above a confidence
// threshold, and otherwise hand the ranked candidate list back to the
// caller for an explicit choice.
package dedup

import (
	"sort"
	"time"

	"github.com/taskdot/taskdot/internal/similarity"
	"github.com/taskdot/taskdot/internal/task"
)

// Default thresholds. Both are configuration, not constants: callers
// override them per invocation or via the config file.
const (
	DefaultSimilarityThreshold = 0.3
	DefaultAutoMergeThreshold  = 0.8
)

// Config carries the resolver's tunable thresholds.
type Config struct {
	// SimilarityThreshold is the minimum score for a task pair to be
	// treated as a duplicate candidate.
	SimilarityThreshold float64

	// AutoMergeThreshold is the minimum best-candidate score at which
	// autoMerge resolves without confirmation.
	AutoMergeThreshold float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		AutoMergeThreshold:  DefaultAutoMergeThreshold,
	}
}

// Action is the resolver's verdict on a creation request.
type Action string

const (
	// ActionCreate proceeds with creation; Candidates may still be
	// non-empty (forced creates report duplicates as warnings).
	ActionCreate Action = "create"
	// ActionMerge merges the incoming task into Candidates[0].
	ActionMerge Action = "merge"
	// ActionSkip reports the ranked candidates; the caller must
	// re-invoke with an explicit choice.
	ActionSkip Action = "skip"
)

// Options modifies the decision policy for one evaluation.
type Options struct {
	// Force creates regardless of candidates (reported, not blocking).
	Force bool
	// AutoMerge merges with the best candidate when its score clears
	// the auto-merge threshold.
	AutoMerge bool
	// Threshold overrides Config.SimilarityThreshold when > 0.
	Threshold float64
}

// Resolution is the outcome of evaluating one creation request.
type Resolution struct {
	Action Action
	// Candidates is the ranked duplicate list (descending score, ties
	// in insertion order of the existing task set).
	Candidates []task.SimilarityResult
}

// Resolver evaluates creation requests against the existing task set.
type Resolver struct {
	config Config
}

// NewResolver builds a resolver, filling zero thresholds from defaults.
func NewResolver(config Config) *Resolver {
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if config.AutoMergeThreshold <= 0 {
		config.AutoMergeThreshold = DefaultAutoMergeThreshold
	}
	return &Resolver{config: config}
}

// Candidates scores title against every task in existing and returns
// those at or above threshold, sorted descending by score. Sorting is
// stable, so equal scores keep the insertion order of existing. Tasks
// already merged away are not candidates.
//
// Each task is scored against both its title and its description, taking
// the max.
func (r *Resolver) Candidates(title string, existing []*task.Task, threshold float64) []task.SimilarityResult {
	if threshold <= 0 {
		threshold = r.config.SimilarityThreshold
	}

	var out []task.SimilarityResult
	for _, t := range existing {
		if t.IsMerged() {
			continue
		}
		score := similarity.Score(title, t.Title)
		if t.Description != "" {
			if ds := similarity.Score(title, t.Description); ds > score {
				score = ds
			}
		}
		if score >= threshold {
			out = append(out, task.SimilarityResult{ID: t.ID, Title: t.Title, Similarity: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// Evaluate applies the decision policy to one creation request.
func (r *Resolver) Evaluate(title string, existing []*task.Task, opts Options) Resolution {
	candidates := r.Candidates(title, existing, opts.Threshold)

	switch {
	case len(candidates) == 0:
		return Resolution{Action: ActionCreate}
	case opts.Force:
		return Resolution{Action: ActionCreate, Candidates: candidates}
	case opts.AutoMerge:
		if candidates[0].Similarity >= r.config.AutoMergeThreshold {
			return Resolution{Action: ActionMerge, Candidates: candidates}
		}
		// Insufficient confidence to auto-merge; create and report.
		return Resolution{Action: ActionCreate, Candidates: candidates}
	default:
		return Resolution{Action: ActionSkip, Candidates: candidates}
	}
}

// MergeOverrides optionally replaces the target's status or readiness
// during a merge; nil fields leave the target unchanged.
type MergeOverrides struct {
	Status    *task.Status
	Readiness *task.Readiness
}

// Merge combines source into target and retires source.
//
// Returned values are updated clones; the caller persists both writes as
// one logical operation. Rules:
//   - target tags: target order first, then new source tags in order
//   - target metadata: source keys, overridden by target keys, overridden
//     by the mergedFrom/mergedAt bookkeeping; similarityScore stripped
//   - target status/readiness: only changed via overrides
//   - source retired: status done, readiness blocked, mergedInto/mergedAt
func Merge(source, target *task.Task, overrides MergeOverrides, now time.Time) (retiredSource, updatedTarget *task.Task) {
	updatedTarget = target.Clone()
	retiredSource = source.Clone()

	updatedTarget.Tags = task.MergeTags(target.Tags, source.Tags)

	meta := source.Metadata.Clone()
	for k, v := range target.Metadata {
		meta[k] = v
	}
	meta[task.MetaMergedFrom] = source.ID
	meta[task.MetaMergedAt] = now.Format(time.RFC3339)
	delete(meta, task.MetaSimilarityScore)
	updatedTarget.Metadata = meta

	if overrides.Status != nil {
		updatedTarget.Status = *overrides.Status
	}
	if overrides.Readiness != nil {
		updatedTarget.Readiness = *overrides.Readiness
	}
	updatedTarget.UpdatedAt = now

	retiredSource.Status = task.StatusDone
	retiredSource.Readiness = task.ReadinessBlocked
	srcMeta := retiredSource.Metadata.Clone()
	srcMeta[task.MetaMergedInto] = target.ID
	srcMeta[task.MetaMergedAt] = now.Format(time.RFC3339)
	delete(srcMeta, task.MetaSimilarityScore)
	retiredSource.Metadata = srcMeta
	retiredSource.UpdatedAt = now

	return retiredSource, updatedTarget
}
