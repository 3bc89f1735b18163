package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskdot/taskdot/internal/plan"
	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/ui"
)

var (
	triageForce     bool
	triageAutoMerge bool
	triageThreshold float64
	triageDryRun    bool
	triageYes       bool
)

var triageCmd = &cobra.Command{
	Use:   "triage <plan-file>",
	Short: "Apply a plan file of task creates and updates",
	Long: `Apply a plan file (JSON, JSONL, or YAML). Entries with an "id" update
existing tasks; entries without one are created, each going through the
duplicate check. Updates apply before creates so referenced parents
exist in time.

When a create hits duplicate candidates and stdin is a terminal, td
asks what to do: skip, create anyway, merge into a candidate, update a
candidate, mark it done, add the entry's tags to it, or quit. Quitting
keeps everything already applied. Without a terminal (or with --yes)
duplicates are skipped and reported.

Processing is fail-soft: one bad entry doesn't stop the rest.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := plan.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		opts := plan.Options{
			Force:     triageForce,
			AutoMerge: triageAutoMerge,
			Threshold: triageThreshold,
			DryRun:    triageDryRun,
		}
		if !triageYes && term.IsTerminal(int(os.Stdin.Fd())) {
			opts.Resolve = promptForChoice
		}

		report, err := plan.Apply(context.Background(), tr, f, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if triageDryRun {
			fmt.Printf("Dry run: %d create(s), %d update(s)\n", report.Created, report.Updated)
			return
		}
		fmt.Println(ui.Pass("%d created, %d updated, %d merged, %d skipped",
			report.Created, report.Updated, report.Merged, report.Skipped))
		if report.Quit {
			fmt.Println(ui.Warn("stopped early; remaining entries were not applied"))
		}
		if len(report.Errors) > 0 {
			for _, e := range report.Errors {
				fmt.Fprintln(os.Stderr, ui.Fail("entry %d (%s): %v", e.Index, e.Title, e.Err))
			}
			os.Exit(1)
		}
	},
}

// promptForChoice asks interactively what to do with a duplicate report.
func promptForChoice(entry plan.Entry, candidates []task.SimilarityResult) (plan.Choice, error) {
	fmt.Printf("\n%s\n", ui.Warn("%q looks like a duplicate of:", entry.Title))
	fmt.Print(ui.Candidates(candidates))

	var action string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("What should happen to %q?", entry.Title)).
				Options(
					huh.NewOption("Skip this entry", string(plan.ChoiceSkip)),
					huh.NewOption("Create it anyway", string(plan.ChoiceCreate)),
					huh.NewOption("Merge into the best match", string(plan.ChoiceMerge)),
					huh.NewOption("Update the best match with this entry", string(plan.ChoiceUpdate)),
					huh.NewOption("Mark the best match done", string(plan.ChoiceMarkDone)),
					huh.NewOption("Add this entry's tags to the best match", string(plan.ChoiceEditTags)),
					huh.NewOption("Quit, keeping what's been applied", string(plan.ChoiceQuit)),
				).
				Value(&action),
		),
	).Run()
	if err != nil {
		return plan.Choice{}, fmt.Errorf("prompt failed: %w", err)
	}

	choice := plan.Choice{Kind: plan.ChoiceKind(action)}
	switch choice.Kind {
	case plan.ChoiceSkip, plan.ChoiceQuit, plan.ChoiceCreate:
	default:
		choice.TargetID = candidates[0].ID
	}
	return choice, nil
}

func init() {
	triageCmd.Flags().BoolVar(&triageForce, "force", false, "create every entry even if duplicates are found")
	triageCmd.Flags().BoolVar(&triageAutoMerge, "auto-merge", false, "merge strong duplicate matches instead of creating")
	triageCmd.Flags().Float64Var(&triageThreshold, "threshold", 0, "similarity threshold override (0 uses config)")
	triageCmd.Flags().BoolVar(&triageDryRun, "dry-run", false, "validate and count without writing")
	triageCmd.Flags().BoolVarP(&triageYes, "yes", "y", false, "never prompt; skip duplicates")
	rootCmd.AddCommand(triageCmd)
}
