package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/dedup"
	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/ui"
)

var (
	mergeStatus    string
	mergeReadiness string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source-id> <target-id>",
	Short: "Merge one task into another",
	Long: `Merge the source task into the target. The target absorbs the
source's tags and any metadata keys it doesn't already have. The source
is retired (marked done and blocked, with a pointer to the target) but
never deleted, so its ID stays resolvable.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		var overrides dedup.MergeOverrides
		if cmd.Flags().Changed("status") {
			s := task.Status(mergeStatus)
			if !task.ValidStatus(s) {
				fmt.Fprintf(os.Stderr, "Error: invalid status %q\n", mergeStatus)
				os.Exit(1)
			}
			overrides.Status = &s
		}
		if cmd.Flags().Changed("readiness") {
			r := task.Readiness(mergeReadiness)
			if !task.ValidReadiness(r) {
				fmt.Fprintf(os.Stderr, "Error: invalid readiness %q\n", mergeReadiness)
				os.Exit(1)
			}
			overrides.Readiness = &r
		}

		merged, err := tr.MergeTasks(context.Background(), args[0], args[1], overrides)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.Pass("merged %s into %s", args[0], merged.ID))
		fmt.Println(ui.TaskLine(merged))
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeStatus, "status", "", "set the target's status after merging")
	mergeCmd.Flags().StringVar(&mergeReadiness, "readiness", "", "set the target's readiness after merging")
	rootCmd.AddCommand(mergeCmd)
}
