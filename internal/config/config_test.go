package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.StateDir)
	assert.Equal(t, 5, cfg.BackupCount)
	assert.Equal(t, 0.70, cfg.SimilarityThreshold)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "state_dir: /tmp/states\nbackup_count: 2\nsimilarity_threshold: 0.85\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/states", cfg.StateDir)
	assert.Equal(t, 2, cfg.BackupCount)
	assert.Equal(t, 0.85, cfg.SimilarityThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state_dir: /from/file\nlog_level: warn\n"), 0o644))

	t.Setenv(EnvStateDir, "/from/env")
	t.Setenv(EnvBackups, "7")
	t.Setenv(EnvThreshold, "0.9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.StateDir)
	assert.Equal(t, 7, cfg.BackupCount)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestEnvParseErrors(t *testing.T) {
	t.Setenv(EnvBackups, "not-a-number")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidateThresholdBounds(t *testing.T) {
	for _, v := range []string{"0", "-0.5", "1.5"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvThreshold, v)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestJournalPath(t *testing.T) {
	cfg := Config{StateDir: "/data/states"}
	assert.Equal(t, filepath.Join("/data/states", "journal.db"), cfg.JournalPath())
}
