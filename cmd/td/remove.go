package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/ui"
)

var removeWithChildren bool

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a task and renumber its later siblings",
	Long: `Remove a task. Siblings numbered after it are renumbered to keep the
1..n range contiguous, and every descendant of a renumbered sibling has
its ID prefix rewritten to match. The removal and the full cascade run
in one transaction: either everything applies or nothing does.

A task with children is only removed with --with-children, which takes
the whole subtree with it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		if err := tr.RemoveTask(context.Background(), args[0], removeWithChildren); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.Pass("removed %s", args[0]))
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the sibling numbering invariant",
	Long: `Verify that every sibling group is numbered 1..n with no gaps or
duplicates. Reports each violation found; a clean tree prints nothing
but a confirmation.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		problems, err := tr.Verify(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(problems) == 0 {
			fmt.Println(ui.Pass("numbering is contiguous"))
			return
		}
		for _, p := range problems {
			fmt.Println(ui.Fail("%s", p))
		}
		os.Exit(1)
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeWithChildren, "with-children", false, "remove the task's entire subtree")
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(verifyCmd)
}
