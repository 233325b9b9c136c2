package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesDefaults(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.toml")} {
		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	}
}

func TestLoadRulesOverridesLists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
discard_tags = ["26.0.0.rc9"]
product_skiplist = ["boost"]

[[corrections]]
url = "https://github.com/lsst/afw/pull/1"
oid = "abc123"
committed_date = 2024-05-01T10:00:00Z
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"26.0.0.rc9"}, rules.DiscardTags)
	assert.Equal(t, []string{"25.0.1.rc2"}, rules.FirstTags)
	assert.True(t, rules.SkipsProduct("boost"))
	assert.False(t, rules.SkipsProduct("galsim"))

	corrections := rules.CorrectionMap()
	require.Len(t, corrections, 1)
	c := corrections["https://github.com/lsst/afw/pull/1"]
	assert.Equal(t, "abc123", c.CommitID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), c.CommittedAt)
}

func TestLoadRulesRejectsBadTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte("discard_tags = ["), 0o644))

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules file")
}

func TestSaveRulesRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "rules.toml")
	require.NoError(t, SaveRules(path, DefaultRules()))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules().TagRules(), rules.TagRules())
	assert.Equal(t, DefaultRules().CorrectionMap(), rules.CorrectionMap())
}
