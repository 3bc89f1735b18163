package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/config"
	"github.com/taskdot/taskdot/internal/ui"
)

var configInitProject bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a commented default configuration. The global file lives at
~/.taskdot/config.yaml; with --project a .taskdot/config.yaml is
written in the current directory instead, overriding the global one.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := config.GlobalConfigPath()
		write := config.WriteDefault
		if configInitProject {
			path = config.ProjectConfigPath()
			write = config.WriteProjectDefault
		}
		if path == "" {
			fmt.Fprintf(os.Stderr, "Error: cannot determine config path\n")
			os.Exit(1)
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
			os.Exit(1)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
			os.Exit(1)
		}
		if err := write(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.Pass("wrote %s", path))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("database.path: %s\n", cfg.Database.Path)
		fmt.Printf("dedup.similarity_threshold: %.2f\n", cfg.Dedup.SimilarityThreshold)
		fmt.Printf("dedup.auto_merge_threshold: %.2f\n", cfg.Dedup.AutoMergeThreshold)
		fmt.Printf("log.file: %s\n", cfg.Log.File)
		fmt.Printf("watch.debounce_ms: %d\n", cfg.Watch.DebounceMS)
		fmt.Printf("ui.color: %s\n", cfg.UI.Color)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitProject, "project", false, "write a project-level config instead of the global one")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
