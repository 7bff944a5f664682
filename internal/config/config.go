// Package config loads runtime settings from an optional YAML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/continuity/internal/store"
)

// Environment overrides, applied after any config file.
const (
	EnvStateDir  = "CONTINUITY_STATE_DIR"
	EnvBackups   = "CONTINUITY_BACKUPS"
	EnvLogLevel  = "CONTINUITY_LOG_LEVEL"
	EnvThreshold = "CONTINUITY_SIMILARITY_THRESHOLD"
)

// Config holds all runtime settings for the server and CLI.
type Config struct {
	StateDir            string  `yaml:"state_dir"`
	BackupCount         int     `yaml:"backup_count"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	LogLevel            string  `yaml:"log_level"`
}

// Default returns the built-in configuration: state under ~/.continuity.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		StateDir:            filepath.Join(home, ".continuity", "states"),
		BackupCount:         store.DefaultBackupCount,
		SimilarityThreshold: 0.70,
		LogLevel:            "info",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvStateDir); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvBackups); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvBackups, err)
		}
		c.BackupCount = n
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvThreshold, err)
		}
		c.SimilarityThreshold = f
	}
	return nil
}

func (c *Config) validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir must not be empty")
	}
	if c.BackupCount < 0 {
		return fmt.Errorf("backup_count must not be negative")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	return nil
}

// JournalPath returns where the save-event journal lives, inside the state
// directory so everything stays under one root.
func (c Config) JournalPath() string {
	return filepath.Join(c.StateDir, "journal.db")
}
