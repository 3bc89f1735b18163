package config

import (
	"os"
	"path/filepath"

	"github.com/taskdot/taskdot/internal/dedup"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Database: DatabaseConfig{
			Path: defaultDBPath(),
		},
		Dedup: DedupConfig{
			SimilarityThreshold: dedup.DefaultSimilarityThreshold,
			AutoMergeThreshold:  dedup.DefaultAutoMergeThreshold,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		UI: UIConfig{
			Color: "auto",
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tasks.db"
	}
	return filepath.Join(home, ".taskdot", "tasks.db")
}

// WriteDefault writes a commented default global configuration to path.
func WriteDefault(path string) error {
	content := `# td global configuration
version: "1"

# Task database
database:
  path: ""  # defaults to ~/.taskdot/tasks.db

# Duplicate detection
dedup:
  # Minimum similarity for a task to be reported as a duplicate candidate
  similarity_threshold: 0.3
  # Minimum best-candidate score for --auto-merge to merge instead of create
  auto_merge_threshold: 0.8

# Operation log for long-running commands (watch)
log:
  file: ""  # empty logs to stderr only
  max_size_mb: 10
  max_backups: 3
  max_age_days: 28

# Plan-file watching
watch:
  debounce_ms: 500

# Terminal output
ui:
  color: auto  # auto, always, never
`
	return os.WriteFile(path, []byte(content), 0644)
}

// WriteProjectDefault writes a default project configuration to path.
func WriteProjectDefault(path string) error {
	content := `# td project configuration
version: "1"

# Override global settings as needed
# database:
#   path: .taskdot/tasks.db
# dedup:
#   similarity_threshold: 0.3
#   auto_merge_threshold: 0.8
`
	return os.WriteFile(path, []byte(content), 0644)
}
