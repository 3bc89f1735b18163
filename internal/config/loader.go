// Package config loads td configuration: defaults, then the global file,
// then the project file, then TD_* environment variables, each layer
// overriding the one before.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides: TD_DATABASE_PATH,
// TD_DEDUP_SIMILARITY_THRESHOLD, and so on.
const envPrefix = "TD"

// Load loads and merges configuration from global and project sources.
// Missing files are not errors; the defaults carry.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := GlobalConfigPath(); path != "" {
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	if path := ProjectConfigPath(); path != "" {
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDBPath()
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

// applyEnv overlays TD_* environment variables on the merged file
// config. Nested keys use underscores: TD_DEDUP_AUTO_MERGE_THRESHOLD.
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if s := v.GetString("database.path"); s != "" {
		cfg.Database.Path = s
	}
	if v.IsSet("dedup.similarity_threshold") {
		cfg.Dedup.SimilarityThreshold = v.GetFloat64("dedup.similarity_threshold")
	}
	if v.IsSet("dedup.auto_merge_threshold") {
		cfg.Dedup.AutoMergeThreshold = v.GetFloat64("dedup.auto_merge_threshold")
	}
	if s := v.GetString("log.file"); s != "" {
		cfg.Log.File = s
	}
	if s := v.GetString("ui.color"); s != "" {
		cfg.UI.Color = s
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".taskdot", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".taskdot", "config.yaml")
}
