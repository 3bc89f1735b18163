package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/ui"
)

var similarThreshold float64

var similarCmd = &cobra.Command{
	Use:   "similar <title>",
	Short: "Find tasks similar to a title",
	Long: `Score every existing task against the given title and list the ones
at or above the similarity threshold, best match first. Nothing is
created or changed; this is the same check "td create" runs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		threshold := similarThreshold
		if threshold == 0 {
			threshold = cfg.Dedup.SimilarityThreshold
		}

		results, err := tr.FindSimilarTasks(context.Background(), args[0], threshold)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Printf("No tasks above %.2f similarity.\n", threshold)
			return
		}
		fmt.Print(ui.Candidates(results))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tasks by free text",
	Long: `Rank tasks against a free-text query. Two signals are combined:
keyword overlap (with stemming and synonym expansion, so "bug" also
finds "defect") and fuzzy whole-title matching for typo tolerance.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		results, err := tr.SearchTasks(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
			return
		}
		fmt.Print(ui.Candidates(results))
	},
}

func init() {
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0, "similarity threshold override (0 uses config)")
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(searchCmd)
}
