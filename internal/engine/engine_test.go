package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

func TestBuildWeeklyScenario(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(repoData("afw",
		[]snapshot.TagRef{tagRef("w.2023.01", 1), tagRef("w.2023.02", 5)},
		pull("afw", "main", "DM-100 fix bug", 3, 1),
	))

	tl := weeklyEngine().Build(snap)
	require.Equal(t, []string{"w_2023_01", "w_2023_02"}, releaseNames(tl))

	w2 := tl.Find("w_2023_02")
	require.NotNil(t, w2)
	require.Len(t, w2.Tickets, 1)
	assert.Equal(t, 100, w2.Tickets[0].Ticket)
	assert.Equal(t, day(3), w2.Tickets[0].MergedAt)
	assert.Equal(t, day(5), w2.Date)

	assert.Empty(t, tl.Find("w_2023_01").Tickets)
}

func TestBuildMergesCandidates(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(repoData("afw",
		[]snapshot.TagRef{tagRef("23.0.0.rc1", 1), tagRef("23.0.0", 5)},
		pull("afw", "main", "DM-200 between candidates", 3, 1),
	))

	t.Run("candidates fold into the final release", func(t *testing.T) {
		t.Parallel()
		tl := regularEngine(true).Build(snap)
		require.Equal(t, []string{"v23_0_0"}, releaseNames(tl))
		rel := tl.Releases[0]
		assert.Equal(t, []int{200}, ticketNumbers(rel))
		assert.Equal(t, []string{"v23_0_0_rc1", "v23_0_0"}, rel.Tags)
		assert.Equal(t, day(5), rel.Date)
	})

	t.Run("candidates stay separate", func(t *testing.T) {
		t.Parallel()
		tl := regularEngine(false).Build(snap)
		require.Equal(t, []string{"v23_0_0", "v23_0_0_rc1"}, releaseNames(tl))
		assert.Equal(t, []int{200}, ticketNumbers(tl.Find("v23_0_0")))
		assert.Empty(t, tl.Find("v23_0_0_rc1").Tickets)
	})
}

func TestBuildFirstCandidateKeptSeparate(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(repoData("afw", []snapshot.TagRef{
		tagRef("v22.0.0", 0),
		tagRef("25.0.0.rc1", 2),
		tagRef("25.0.0", 4),
		tagRef("25.0.1.rc1", 6),
		tagRef("25.0.1.rc2", 8),
		tagRef("25.0.1", 10),
	}))

	e := New(
		tag.Rules{Discard: []string{"25.0.1.rc1"}, FirstTags: []string{"25.0.1.rc2"}},
		Options{Cadence: tag.CadenceRegular, MergeCandidates: true, MergeFirstCandidate: true},
		nil,
	)
	tl := e.Build(snap)
	assert.Equal(t, []string{"v25_0_1", "v25_0_1_rc2", "v25_0_0", "v25_0_0_rc1", "v22_0_0"}, releaseNames(tl))
}

func TestBuildMainMergesBeforeSeriesHeadStayOut(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(repoData("afw",
		[]snapshot.TagRef{
			tagRef("23.0.0.rc1", 2),
			tagRef("23.0.0", 4),
			tagRef("23.0.1", 6),
			tagRef("23.0.2", 8),
			tagRef("24.0.0.rc1", 10),
		},
		pull("afw", "main", "DM-555 landed while 23.0.x was patched", 5, 1),
		pull("afw", "main", "DM-556 landed after the last 23 patch", 9, 2),
	))

	tl := regularEngine(true).Build(snap)
	rel := tl.Find("v24_0_0")
	require.NotNil(t, rel)
	assert.Equal(t, []int{556}, ticketNumbers(rel))
	for _, r := range tl.Releases {
		assert.NotContains(t, ticketNumbers(r), 555, r.Name)
	}
}

func TestBuildHistoricalCutoff(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(repoData("afw", []snapshot.TagRef{
		tagRef("v14.0.0", 0),
		tagRef("v15.0.0", 2),
		tagRef("v16.0.0", 4),
		tagRef("v17.0.0", 6),
	}))

	for _, merge := range []bool{true, false} {
		tl := regularEngine(merge).Build(snap)
		for _, r := range tl.Releases {
			assert.NotContains(t, []string{"v14_0_0", "v15_0_0"}, r.Name)
		}
		assert.Equal(t, []string{"v17_0_0", "v16_0_0"}, releaseNames(tl))
	}
}

func TestBuildUntaggedBucketOrdering(t *testing.T) {
	t.Parallel()

	t.Run("regular bucket comes first", func(t *testing.T) {
		t.Parallel()
		snap := newSnapshot(repoData("afw",
			[]snapshot.TagRef{tagRef("v22.0.0", 1), tagRef("v22.0.1", 3)},
			pull("afw", "main", "DM-1 unreleased", 7, 1),
		))
		tl := regularEngine(true).Build(snap)
		require.Equal(t, []string{UntaggedName, "v22_0_1", "v22_0_0"}, releaseNames(tl))
		assert.True(t, tl.Releases[0].Untagged)
		assert.Equal(t, day(7), tl.Releases[0].Date)
	})

	t.Run("weekly bucket comes last", func(t *testing.T) {
		t.Parallel()
		snap := newSnapshot(repoData("afw",
			[]snapshot.TagRef{tagRef("w.2023.01", 1), tagRef("w.2023.02", 3)},
			pull("afw", "main", "DM-1 unreleased", 7, 1),
		))
		tl := weeklyEngine().Build(snap)
		require.Equal(t, []string{"w_2023_01", "w_2023_02", MainBucketName}, releaseNames(tl))
	})

	t.Run("empty bucket is omitted", func(t *testing.T) {
		t.Parallel()
		snap := newSnapshot(repoData("afw",
			[]snapshot.TagRef{tagRef("w.2023.01", 1), tagRef("w.2023.02", 3)},
		))
		tl := weeklyEngine().Build(snap)
		assert.Nil(t, tl.Find(MainBucketName))
	})
}

func TestBuildUnionsPackagesAcrossRepos(t *testing.T) {
	t.Parallel()

	afw := repoData("afw",
		[]snapshot.TagRef{tagRef("w.2023.01", 1), tagRef("w.2023.02", 5)},
		pull("afw", "main", "DM-300 shared ticket", 2, 1),
	)
	butler := repoData("daf_butler",
		[]snapshot.TagRef{tagRef("w.2023.01", 1), tagRef("w.2023.02", 6)},
		pull("daf_butler", "main", "DM-300 shared ticket, part 2", 4, 2),
	)
	lonely := repoData("new_pkg",
		[]snapshot.TagRef{tagRef("w.2023.02", 5)},
		pull("new_pkg", "main", "DM-999 old history", 0, 3),
	)
	snap := newSnapshot(afw, butler, lonely)
	snap.Diffs["w_2023_02"] = snapshot.PackageDiff{Added: []string{"new_pkg"}, Removed: []string{"old_pkg"}}

	tl := weeklyEngine().Build(snap)
	rel := tl.Find("w_2023_02")
	require.NotNil(t, rel)
	require.Len(t, rel.Tickets, 1)

	row := rel.Tickets[0]
	assert.Equal(t, 300, row.Ticket)
	assert.Equal(t, "DM-300 shared ticket, part 2", row.Title)
	assert.Equal(t, day(4), row.MergedAt)
	assert.Equal(t, []Contributor{
		{Package: "afw", URL: "https://github.com/lsst/afw/pull/1"},
		{Package: "daf_butler", URL: "https://github.com/lsst/daf_butler/pull/2"},
	}, row.Contributors)

	assert.Equal(t, []string{"new_pkg"}, rel.Added)
	assert.Equal(t, []string{"old_pkg"}, rel.Removed)
	// reported when the last package was tagged
	assert.Equal(t, day(6), rel.Date)
}

func TestBuildFoldsPackageDiffs(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(repoData("afw", []snapshot.TagRef{
		tagRef("24.0.0.rc1", 1),
		tagRef("24.0.0.rc2", 3),
		tagRef("24.0.0", 5),
	}))
	snap.Diffs["v24_0_0_rc1"] = snapshot.PackageDiff{Added: []string{"b", "a"}}
	snap.Diffs["v24_0_0"] = snapshot.PackageDiff{Added: []string{"c"}, Removed: []string{"a"}}

	tl := regularEngine(true).Build(snap)
	rel := tl.Find("v24_0_0")
	require.NotNil(t, rel)
	assert.Equal(t, []string{"a", "b", "c"}, rel.Added)
	assert.Equal(t, []string{"a"}, rel.Removed)
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(
		repoData("afw",
			[]snapshot.TagRef{tagRef("23.0.0.rc1", 1), tagRef("23.0.0", 5), tagRef("23.0.1", 9)},
			pull("afw", "main", "DM-1", 3, 1),
			pull("afw", "23.0.x", "DM-2", 7, 2),
		),
		repoData("pipe_base",
			[]snapshot.TagRef{tagRef("23.0.0.rc1", 1), tagRef("23.0.0", 5)},
			pull("pipe_base", "main", "DM-1 follow-up", 4, 3),
		),
	)
	e := regularEngine(true)
	assert.Equal(t, e.Build(snap), e.Build(snap))
}
