package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/tracker"
	"github.com/taskdot/taskdot/internal/ui"
)

var (
	updateTitle       string
	updateDescription string
	updateBody        string
	updateStatus      string
	updateReadiness   string
	updateTags        []string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an existing task",
	Long: `Update a task in place. Only the flags you pass change; everything
else is left alone. The ID itself never changes here; IDs are only
rewritten by the renumbering cascade when a sibling is removed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		opts := tracker.UpdateOptions{ID: args[0]}
		if cmd.Flags().Changed("title") {
			opts.Title = &updateTitle
		}
		if cmd.Flags().Changed("description") {
			opts.Description = &updateDescription
		}
		if cmd.Flags().Changed("body") {
			opts.Body = &updateBody
		}
		if cmd.Flags().Changed("status") {
			s := task.Status(updateStatus)
			opts.Status = &s
		}
		if cmd.Flags().Changed("readiness") {
			r := task.Readiness(updateReadiness)
			opts.Readiness = &r
		}
		if cmd.Flags().Changed("tag") {
			opts.Tags = updateTags
		}

		t, err := tr.UpdateTask(context.Background(), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.Pass("updated %s", t.ID))
		fmt.Println(ui.TaskLine(t))
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		done := task.StatusDone
		t, err := tr.UpdateTask(context.Background(), tracker.UpdateOptions{ID: args[0], Status: &done})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.Pass("done %s: %s", t.ID, t.Title))
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "new description")
	updateCmd.Flags().StringVar(&updateBody, "body", "", "new body text")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status: todo, in-progress, done")
	updateCmd.Flags().StringVar(&updateReadiness, "readiness", "", "new readiness: draft, ready, blocked")
	updateCmd.Flags().StringSliceVarP(&updateTags, "tag", "t", nil, "replace tags (repeatable)")
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(doneCmd)
}
