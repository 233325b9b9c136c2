package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 5, cfg.Retries)
	assert.True(t, cfg.MergeCandidates)
	assert.False(t, cfg.MergeFirstCandidate)
	assert.Equal(t, DefaultEUPSPkgroot, cfg.EUPSPkgroot)
	assert.Equal(t, DefaultReposYAML, cfg.ReposYAML)
	assert.Equal(t, DefaultJiraURL, cfg.JiraURL)
	assert.Equal(t, "source", cfg.OutputDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CHANGELOG_WORKERS", "12")
	t.Setenv("CHANGELOG_MERGE_FIRST_CANDIDATE", "true")
	t.Setenv("CHANGELOG_OUTPUT_DIR", "/tmp/out")
	viper.SetEnvPrefix("CHANGELOG")
	viper.AutomaticEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Workers)
	assert.True(t, cfg.MergeFirstCandidate)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
}

func TestLoadRejectsBadWorkers(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("workers", 0)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}
