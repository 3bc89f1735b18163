package config

// Config is the full td configuration, merged from the global and
// project files plus TD_* environment overrides.
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Duplicate detection configuration
	Dedup DedupConfig `yaml:"dedup" mapstructure:"dedup"`

	// Log configuration
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Watch mode configuration
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`

	// UI configuration
	UI UIConfig `yaml:"ui" mapstructure:"ui"`
}

// DatabaseConfig locates the task database.
type DatabaseConfig struct {
	// Path to the SQLite file. ":memory:" keeps everything in-process.
	Path string `yaml:"path" mapstructure:"path"`
}

// DedupConfig tunes the duplicate resolver.
type DedupConfig struct {
	// SimilarityThreshold is the minimum score for a task to be reported
	// as a duplicate candidate.
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	// AutoMergeThreshold is the minimum best-candidate score for
	// auto-merge to fire instead of creating.
	AutoMergeThreshold float64 `yaml:"auto_merge_threshold" mapstructure:"auto_merge_threshold"`
}

// LogConfig configures the rotating operation log used by long-running
// commands.
type LogConfig struct {
	// File is the log path; empty logs to stderr only.
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// WatchConfig configures plan-file watching.
type WatchConfig struct {
	// DebounceMS coalesces bursts of file events into one apply.
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	// Color forces colored output on or off; "auto" follows the terminal.
	Color string `yaml:"color" mapstructure:"color"`
}
