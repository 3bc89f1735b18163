package plan

import (
	"context"
	"errors"

	"github.com/taskdot/taskdot/internal/dedup"
	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/tracker"
)

// ChoiceKind is a caller's explicit decision for one duplicate report.
type ChoiceKind string

const (
	// ChoiceSkip leaves the existing tasks alone and drops the entry.
	ChoiceSkip ChoiceKind = "skip"
	// ChoiceQuit stops processing remaining entries. Decisions already
	// applied stay committed.
	ChoiceQuit ChoiceKind = "quit"
	// ChoiceCreate creates anyway (duplicate accepted).
	ChoiceCreate ChoiceKind = "create"
	// ChoiceMerge merges the entry into TargetID.
	ChoiceMerge ChoiceKind = "merge"
	// ChoiceUpdate overwrites TargetID's fields with the entry's.
	ChoiceUpdate ChoiceKind = "update"
	// ChoiceMarkDone marks TargetID done.
	ChoiceMarkDone ChoiceKind = "mark-done"
	// ChoiceEditTags unions the entry's tags onto TargetID.
	ChoiceEditTags ChoiceKind = "edit-tags"
)

// Choice pairs a decision with its target candidate where one is needed.
type Choice struct {
	Kind     ChoiceKind
	TargetID string
}

// ResolveFunc is consulted for entries the duplicate resolver reported as
// skipped. A nil ResolveFunc records the skip and moves on.
type ResolveFunc func(entry Entry, candidates []task.SimilarityResult) (Choice, error)

// Options configures a batch application.
type Options struct {
	// Force and AutoMerge apply to every create candidate, in addition
	// to per-entry force flags.
	Force     bool
	AutoMerge bool
	// Threshold overrides the configured similarity threshold when > 0.
	Threshold float64
	// Resolve handles duplicate reports interactively; may be nil.
	Resolve ResolveFunc
	// DryRun validates and orders the plan without writing anything.
	DryRun bool
}

// EntryError records a per-entry failure without stopping the batch.
type EntryError struct {
	Index int
	Title string
	Err   error
}

// Report summarizes a batch application.
type Report struct {
	Created int
	Updated int
	Merged  int
	Skipped int
	Quit    bool
	Errors  []EntryError
}

// Apply runs a parsed plan through the tracker: updates before creates,
// strictly sequential, collecting per-entry errors and continuing.
// Only a quit choice stops the batch early.
func Apply(ctx context.Context, tr *tracker.Tracker, f *File, opts Options) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}
	if opts.DryRun {
		for _, e := range f.Ordered() {
			if e.IsUpdate() {
				report.Updated++
			} else {
				report.Created++
			}
		}
		return report, nil
	}

	for i, e := range f.Ordered() {
		if report.Quit {
			break
		}
		var err error
		if e.IsUpdate() {
			err = applyUpdate(ctx, tr, e)
			if err == nil {
				report.Updated++
			}
		} else {
			err = applyCreate(ctx, tr, e, opts, report)
		}
		if err != nil {
			report.Errors = append(report.Errors, EntryError{Index: i, Title: e.Title, Err: err})
		}
	}
	return report, nil
}

func applyUpdate(ctx context.Context, tr *tracker.Tracker, e Entry) error {
	opts := tracker.UpdateOptions{ID: e.ID, Metadata: e.Metadata}
	if e.Title != "" {
		opts.Title = &e.Title
	}
	if e.Description != "" {
		opts.Description = &e.Description
	}
	if e.Body != "" {
		opts.Body = &e.Body
	}
	if e.Status != "" {
		s := task.Status(e.Status)
		opts.Status = &s
	}
	if e.Readiness != "" {
		r := task.Readiness(e.Readiness)
		opts.Readiness = &r
	}
	if e.Tags != nil {
		opts.Tags = e.Tags
	}
	_, err := tr.UpdateTask(ctx, opts)
	return err
}

func applyCreate(ctx context.Context, tr *tracker.Tracker, e Entry, opts Options, report *Report) error {
	createOpts := tracker.CreateOptions{
		Title:       e.Title,
		Description: e.Description,
		Body:        e.Body,
		Status:      task.Status(e.Status),
		Readiness:   task.Readiness(e.Readiness),
		Tags:        e.Tags,
		ChildOf:     e.Parent(),
		After:       e.After,
		Metadata:    e.Metadata,
		Force:       e.Force || opts.Force,
		AutoMerge:   opts.AutoMerge,
		Threshold:   opts.Threshold,
	}

	res, err := tr.CreateTask(ctx, createOpts)
	if err != nil {
		return err
	}

	switch res.Action {
	case dedup.ActionCreate:
		report.Created++
		return nil
	case dedup.ActionMerge:
		report.Merged++
		return nil
	}

	// Skipped: hand the ranked candidates to the caller.
	if opts.Resolve == nil {
		report.Skipped++
		return nil
	}
	choice, err := opts.Resolve(e, res.Candidates)
	if err != nil {
		return err
	}
	return applyChoice(ctx, tr, e, choice, createOpts, report)
}

func applyChoice(ctx context.Context, tr *tracker.Tracker, e Entry, choice Choice, createOpts tracker.CreateOptions, report *Report) error {
	switch choice.Kind {
	case ChoiceQuit:
		report.Quit = true
		report.Skipped++
		return nil

	case ChoiceSkip, "":
		report.Skipped++
		return nil

	case ChoiceCreate:
		createOpts.Force = true
		res, err := tr.CreateTask(ctx, createOpts)
		if err != nil {
			return err
		}
		if res.Task == nil {
			return errors.New("forced create did not produce a task")
		}
		report.Created++
		return nil

	case ChoiceMerge:
		if choice.TargetID == "" {
			return task.Errorf(task.KindValidation, "merge choice needs a target")
		}
		// The entry was never created, so folding it into the chosen
		// candidate is a tag union plus a metadata carry-over. The
		// target's own metadata keys win on conflict.
		target, err := tr.GetTask(ctx, choice.TargetID)
		if err != nil {
			return err
		}
		carried := task.Metadata{}
		for k, v := range e.Metadata {
			if _, taken := target.Metadata[k]; !taken {
				carried[k] = v
			}
		}
		_, err = tr.UpdateTask(ctx, tracker.UpdateOptions{
			ID:       choice.TargetID,
			Tags:     task.MergeTags(target.Tags, e.Tags),
			Metadata: carried,
		})
		if err != nil {
			return err
		}
		report.Merged++
		return nil

	case ChoiceUpdate:
		if choice.TargetID == "" {
			return task.Errorf(task.KindValidation, "update choice needs a target")
		}
		update := e
		update.ID = choice.TargetID
		if err := applyUpdate(ctx, tr, update); err != nil {
			return err
		}
		report.Updated++
		return nil

	case ChoiceMarkDone:
		if choice.TargetID == "" {
			return task.Errorf(task.KindValidation, "mark-done choice needs a target")
		}
		done := task.StatusDone
		if _, err := tr.UpdateTask(ctx, tracker.UpdateOptions{ID: choice.TargetID, Status: &done}); err != nil {
			return err
		}
		report.Updated++
		return nil

	case ChoiceEditTags:
		if choice.TargetID == "" {
			return task.Errorf(task.KindValidation, "edit-tags choice needs a target")
		}
		target, err := tr.GetTask(ctx, choice.TargetID)
		if err != nil {
			return err
		}
		_, err = tr.UpdateTask(ctx, tracker.UpdateOptions{
			ID:   choice.TargetID,
			Tags: task.MergeTags(target.Tags, e.Tags),
		})
		if err != nil {
			return err
		}
		report.Updated++
		return nil

	default:
		return task.Errorf(task.KindValidation, "unknown choice %q", choice.Kind)
	}
}
