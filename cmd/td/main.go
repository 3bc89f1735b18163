// Command td is the taskdot CLI: a hierarchical task tracker with
// dot-notation IDs and text-similarity duplicate detection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/config"
	"github.com/taskdot/taskdot/internal/dedup"
	"github.com/taskdot/taskdot/internal/storage"
	"github.com/taskdot/taskdot/internal/tracker"
	"github.com/taskdot/taskdot/internal/ui"
)

var (
	cfg *config.Config

	flagDBPath string
	flagColor  string
)

var rootCmd = &cobra.Command{
	Use:   "td",
	Short: "Hierarchical task tracker with duplicate detection",
	Long: `td tracks tasks in a hierarchy of dot-notation IDs ("3.2.1") where
each segment is a position among siblings. Sibling numbers stay
contiguous: removing a task renumbers the ones after it, descendants
included, in a single transaction.

New tasks run through a text-similarity duplicate check before they are
created. Likely duplicates are reported, and can be merged instead.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		if flagDBPath != "" {
			cfg.Database.Path = flagDBPath
		}
		if flagColor != "" {
			cfg.UI.Color = flagColor
		}
		ui.SetColorMode(cfg.UI.Color)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "path to the task database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "", "color output: auto, always, never")
}

// openTracker opens the configured database and wraps it in a tracker.
// The caller must call the returned close function.
func openTracker() (*tracker.Tracker, func(), error) {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}

	tr := tracker.New(store, dedup.Config{
		SimilarityThreshold: cfg.Dedup.SimilarityThreshold,
		AutoMergeThreshold:  cfg.Dedup.AutoMergeThreshold,
	}, nil)
	return tr, func() { store.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
