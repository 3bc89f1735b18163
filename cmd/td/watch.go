package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taskdot/taskdot/internal/plan"
	"github.com/taskdot/taskdot/internal/ui"
	"github.com/taskdot/taskdot/internal/watch"
)

var (
	watchAutoMerge bool
	watchForce     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <plan-dir>",
	Short: "Watch a directory of plan files and apply changes (foreground)",
	Long: `Watch a directory for plan files (*.json, *.jsonl, *.yaml) and apply
each one as it appears or changes. Rapid edits are debounced so a file
is only applied once it has settled.

Watch mode is non-interactive: duplicate candidates are skipped and
logged. Use --auto-merge to fold strong matches into their duplicates,
or --force to always create.

Existing plan files are applied once on startup. Runs in the foreground
until interrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		wcfg := watch.DefaultConfig()
		wcfg.DebounceInterval = time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		wcfg.Apply = plan.Options{
			Force:     watchForce,
			AutoMerge: watchAutoMerge,
		}
		wcfg.Logger = watchLogger()

		w, err := watch.New(tr, args[0], wcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(ui.Pass("watching %s (Ctrl+C to stop)", args[0]))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := w.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Watcher stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

// watchLogger writes to stderr and, when configured, a size-rotated log
// file.
func watchLogger() *log.Logger {
	if cfg.Log.File == "" {
		return log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	return log.New(io.MultiWriter(os.Stderr, rotated), "[watch] ", log.LstdFlags)
}

func init() {
	watchCmd.Flags().BoolVar(&watchAutoMerge, "auto-merge", false, "merge strong duplicate matches instead of creating")
	watchCmd.Flags().BoolVar(&watchForce, "force", false, "create every entry even if duplicates are found")
	rootCmd.AddCommand(watchCmd)
}
