package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/dedup"
	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/tracker"
	"github.com/taskdot/taskdot/internal/ui"
)

var (
	createDescription string
	createBody        string
	createStatus      string
	createReadiness   string
	createTags        []string
	createChildOf     string
	createAfter       string
	createForce       bool
	createAutoMerge   bool
	createThreshold   float64
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task, checking for duplicates first",
	Long: `Create a task. The next free sibling number is assigned automatically:
root tasks get "1", "2", ...; --child-of 3.2 gets "3.2.1", "3.2.2", ...

The title is checked against existing tasks before anything is written.
If similar tasks are found the creation is skipped and the candidates
are listed. Use --force to create anyway, or --auto-merge to fold the
request into the best candidate when the match is strong enough.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		res, err := tr.CreateTask(context.Background(), tracker.CreateOptions{
			Title:       args[0],
			Description: createDescription,
			Body:        createBody,
			Status:      task.Status(createStatus),
			Readiness:   task.Readiness(createReadiness),
			Tags:        createTags,
			ChildOf:     createChildOf,
			After:       createAfter,
			Force:       createForce,
			AutoMerge:   createAutoMerge,
			Threshold:   createThreshold,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		switch res.Action {
		case dedup.ActionSkip:
			fmt.Println(ui.Warn("similar tasks exist, nothing created:"))
			fmt.Print(ui.Candidates(res.Candidates))
			fmt.Println("Use --force to create anyway, or td merge to combine tasks.")
			os.Exit(1)

		case dedup.ActionMerge:
			fmt.Println(ui.Pass("merged into existing task %s", res.Task.ID))
			fmt.Print(ui.Candidates(res.Candidates))

		default:
			fmt.Println(ui.Pass("created %s: %s", res.Task.ID, res.Task.Title))
			if len(res.Candidates) > 0 {
				fmt.Println(ui.Warn("created despite similar tasks:"))
				fmt.Print(ui.Candidates(res.Candidates))
			}
		}
	},
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "short description")
	createCmd.Flags().StringVar(&createBody, "body", "", "long-form body text")
	createCmd.Flags().StringVar(&createStatus, "status", "", "initial status: todo, in-progress, done")
	createCmd.Flags().StringVar(&createReadiness, "readiness", "", "initial readiness: draft, ready, blocked")
	createCmd.Flags().StringSliceVarP(&createTags, "tag", "t", nil, "tag (repeatable)")
	createCmd.Flags().StringVar(&createChildOf, "child-of", "", "parent task ID")
	createCmd.Flags().StringVar(&createAfter, "after", "", "place in the same sibling group as this task")
	createCmd.Flags().BoolVar(&createForce, "force", false, "create even if duplicates are found")
	createCmd.Flags().BoolVar(&createAutoMerge, "auto-merge", false, "merge into the best duplicate candidate instead of creating")
	createCmd.Flags().Float64Var(&createThreshold, "threshold", 0, "similarity threshold override (0 uses config)")
	rootCmd.AddCommand(createCmd)
}
