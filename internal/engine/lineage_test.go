package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

type windowSpec struct {
	tag    string
	branch string
	start  string
}

func windowSpecs(l *Lineage) []windowSpec {
	out := make([]windowSpec, 0, len(l.Windows))
	for _, w := range l.Windows {
		ws := windowSpec{tag: w.Tag.Name(), branch: w.Branch}
		if w.Start != nil {
			ws.start = w.Start.Name
		}
		out = append(out, ws)
	}
	return out
}

func TestBuildLineageWeekly(t *testing.T) {
	t.Parallel()

	e := weeklyEngine()
	l := e.BuildLineage(repoData("afw", []snapshot.TagRef{
		tagRef("w.2023.02", 8),
		tagRef("w.2023.01", 1),
		tagRef("v23.0.0", 3),
		tagRef("not-a-tag", 4),
	}))

	require.False(t, l.Skipped)
	require.Equal(t, []windowSpec{
		{tag: "w.2023.01", branch: "main"},
		{tag: "w.2023.02", branch: "main", start: "w.2023.01"},
	}, windowSpecs(l))
	require.NotNil(t, l.MainHead)
	assert.Equal(t, "w.2023.02", l.MainHead.Name)
}

func TestBuildLineageLegacyRegular(t *testing.T) {
	t.Parallel()

	e := regularEngine(true)
	l := e.BuildLineage(repoData("afw", []snapshot.TagRef{
		tagRef("v21.0.0.rc1", 1),
		tagRef("v21.0.0", 2),
		tagRef("v22.0.0", 3),
	}))

	require.Equal(t, []windowSpec{
		{tag: "v21.0.0.rc1", branch: "main"},
		{tag: "v21.0.0", branch: "main", start: "v21.0.0.rc1"},
		{tag: "v22.0.0", branch: "main", start: "v21.0.0"},
	}, windowSpecs(l))
}

func TestBuildLineageModernRegular(t *testing.T) {
	t.Parallel()

	e := regularEngine(true)
	l := e.BuildLineage(repoData("afw", []snapshot.TagRef{
		tagRef("v22.0.1", 1),
		tagRef("23.0.0.rc1", 2),
		tagRef("23.0.0", 4),
		tagRef("23.0.1", 6),
		tagRef("23.1.0.rc1", 8),
		tagRef("24.0.0.rc1", 10),
		tagRef("24.0.0", 12),
		tagRef("24.0.1", 14),
		tagRef("25.0.0.rc1", 16),
	}))

	require.Equal(t, []windowSpec{
		{tag: "v22.0.1", branch: "main"},
		// 23 starts from the immediately preceding release
		{tag: "23.0.0.rc1", branch: "main", start: "v22.0.1"},
		{tag: "23.0.0", branch: "main", start: "23.0.0.rc1"},
		{tag: "23.0.0", branch: "23.0.x", start: "23.0.0.rc1"},
		{tag: "23.0.1", branch: "23.0.x", start: "23.0.0"},
		// still 23: previous release's last tag, even though it lives on 23.0.x
		{tag: "23.1.0.rc1", branch: "main", start: "23.0.1"},
		// later majors start from the previous series' release-branch head
		{tag: "24.0.0.rc1", branch: "main", start: "23.1.0.rc1"},
		{tag: "24.0.0", branch: "main", start: "24.0.0.rc1"},
		{tag: "24.0.0", branch: "24.0.x", start: "24.0.0.rc1"},
		{tag: "24.0.1", branch: "24.0.x", start: "24.0.0"},
		{tag: "25.0.0.rc1", branch: "main", start: "24.0.1"},
	}, windowSpecs(l))

	assert.Equal(t, "25.0.0.rc1", l.MainHead.Name)
}

func TestBuildLineageSeriesOpensAtPredecessorBranchHead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		refs  []snapshot.TagRef
		tag   string
		start string
	}{
		{
			name: "after patch releases",
			refs: []snapshot.TagRef{
				tagRef("23.0.0.rc1", 2),
				tagRef("23.0.0", 4),
				tagRef("23.0.1", 6),
				tagRef("23.0.2", 8),
				tagRef("24.0.0.rc1", 10),
			},
			tag:   "24.0.0.rc1",
			start: "23.0.2",
		},
		{
			name: "after a minor series",
			refs: []snapshot.TagRef{
				tagRef("25.0.0", 2),
				tagRef("25.0.1", 3),
				tagRef("25.1.0", 5),
				tagRef("25.1.1", 6),
				tagRef("26.0.0", 8),
			},
			tag:   "26.0.0",
			start: "25.1.1",
		},
		{
			name: "minor series opens after its sibling's patches",
			refs: []snapshot.TagRef{
				tagRef("25.0.0", 2),
				tagRef("25.0.1", 3),
				tagRef("25.0.2", 4),
				tagRef("25.1.0", 5),
			},
			tag:   "25.1.0",
			start: "25.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := regularEngine(true).BuildLineage(repoData("afw", tt.refs))
			var got []windowSpec
			for _, ws := range windowSpecs(l) {
				if ws.tag == tt.tag && ws.branch == "main" {
					got = append(got, ws)
				}
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.start, got[0].start)
		})
	}
}

func TestBuildLineagePatchTagsNeverExtendMain(t *testing.T) {
	t.Parallel()

	e := regularEngine(true)
	l := e.BuildLineage(repoData("afw", []snapshot.TagRef{
		tagRef("26.0.0", 1),
		tagRef("26.0.1", 2),
		tagRef("26.0.2", 3),
	}))

	for _, w := range l.Windows {
		if w.Tag.Patch() > 0 {
			assert.Equal(t, "26.0.x", w.Branch, w.Tag.Name())
		}
	}
	assert.Equal(t, "26.0.0", l.MainHead.Name)
}

func TestBuildLineageReleases(t *testing.T) {
	t.Parallel()

	e := regularEngine(true)
	l := e.BuildLineage(repoData("afw", []snapshot.TagRef{
		tagRef("v22.0.1", 1),
		tagRef("23.0.0.rc1", 2),
		tagRef("23.0.0.rc2", 3),
		tagRef("23.0.0", 4),
		tagRef("23.0.1", 6),
	}))

	require.Len(t, l.Releases, 3)
	rel := l.Releases[1]
	assert.Equal(t, "23.0.0", rel.BaseName)
	assert.Equal(t, "23.0.0", rel.LastTag.Name())
	assert.Len(t, rel.Tags, 3)
	assert.Equal(t, day(4), rel.Date)
	assert.Equal(t, map[string]BranchRange{
		"main":   {Start: "v22.0.1", End: "23.0.0"},
		"23.0.x": {Start: "23.0.0.rc1", End: "23.0.0"},
	}, rel.Branches)
	assert.Equal(t, map[string]BranchRange{
		"23.0.x": {Start: "23.0.0", End: "23.0.1"},
	}, l.Releases[2].Branches)
}

func TestBuildLineageIsIdempotent(t *testing.T) {
	t.Parallel()

	refs := []snapshot.TagRef{
		tagRef("24.0.1", 14),
		tagRef("23.0.0.rc1", 2),
		tagRef("24.0.0", 12),
		tagRef("23.0.0", 4),
		tagRef("24.0.0.rc1", 10),
	}
	e := regularEngine(true)
	first := e.BuildLineage(repoData("afw", refs))
	second := e.BuildLineage(repoData("afw", refs))

	require.Equal(t, len(first.Releases), len(second.Releases))
	for i := range first.Releases {
		assert.Equal(t, first.Releases[i].Branches, second.Releases[i].Branches)
	}
	assert.Equal(t, windowSpecs(first), windowSpecs(second))
}

func TestBuildLineageSkipsThinHistory(t *testing.T) {
	t.Parallel()

	e := regularEngine(true)
	l := e.BuildLineage(repoData("new_pkg", []snapshot.TagRef{tagRef("27.0.0", 1)}))
	assert.True(t, l.Skipped)

	l = e.BuildLineage(repoData("empty", nil))
	assert.True(t, l.Skipped)
	assert.Nil(t, l.MainHead)
}

func TestBuildLineageDropsUnusableTags(t *testing.T) {
	t.Parallel()

	e := New(tag.Rules{Discard: []string{"25.0.1.rc1"}}, Options{Cadence: tag.CadenceRegular}, nil)
	noCommit := tagRef("25.0.0", 3)
	noCommit.CommitID = ""
	l := e.BuildLineage(repoData("afw", []snapshot.TagRef{
		tagRef("25.0.0.rc1", 1),
		noCommit,
		tagRef("25.0.1.rc1", 4),
		tagRef("25.0.1.rc2", 5),
		tagRef("v25.0.1.rc2", 5),
	}))

	names := make([]string, 0, len(l.Tags))
	for _, tg := range l.Tags {
		names = append(names, tg.Name())
	}
	assert.Equal(t, []string{"25.0.0.rc1", "25.0.1.rc2"}, names)
}
