package github

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clerrors "changelog.dev/changelog/internal/errors"
	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/testhelpers"
)

// flakySource fails the first failures[repo] default branch lookups
type flakySource struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int

	active    atomic.Int32
	maxActive atomic.Int32
}

func newFlakySource(failures map[string]int) *flakySource {
	return &flakySource{failures: failures, calls: make(map[string]int)}
}

func (s *flakySource) DefaultBranch(_ context.Context, _, repo string) (string, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		m := s.maxActive.Load()
		if n <= m || s.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[repo]++
	if s.calls[repo] <= s.failures[repo] {
		return "", errors.New("502 bad gateway")
	}
	return "main", nil
}

func (s *flakySource) Tags(_ context.Context, _, repo string, keep func(string) bool) ([]snapshot.TagRef, error) {
	var out []snapshot.TagRef
	for _, name := range []string{"w.2024.01", "junk"} {
		if keep == nil || keep(name) {
			out = append(out, snapshot.TagRef{Name: name, CommitID: repo + "-" + name})
		}
	}
	return out, nil
}

func (s *flakySource) MergedPulls(context.Context, string, string) ([]snapshot.PullRequest, error) {
	return []snapshot.PullRequest{{Title: "DM-1"}}, nil
}

func (s *flakySource) callCount(repo string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[repo]
}

func targets(names ...string) []Target {
	out := make([]Target, 0, len(names))
	for _, n := range names {
		out = append(out, Target{Name: n, Owner: "lsst", Repo: n})
	}
	return out
}

func TestFetcherRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	src := newFlakySource(map[string]int{"afw": 4})
	f := NewFetcher(src, FetcherOptions{Workers: 2, Retries: 5})

	snap, err := f.Fetch(context.Background(), targets("afw", "daf_butler"))
	require.NoError(t, err)
	assert.Equal(t, []string{"afw", "daf_butler"}, snap.Names())
	assert.Equal(t, 5, src.callCount("afw"))
	assert.Equal(t, 1, src.callCount("daf_butler"))

	afw := snap.Repos["afw"]
	assert.Equal(t, "main", afw.DefaultBranch)
	assert.Equal(t, "lsst", afw.Owner)
	assert.Len(t, afw.Pulls, 1)
}

func TestFetcherDropsExhaustedRepos(t *testing.T) {
	t.Parallel()

	src := newFlakySource(map[string]int{"afw": 5})
	f := NewFetcher(src, FetcherOptions{Workers: 3, Retries: 5})

	snap, err := f.Fetch(context.Background(), targets("afw", "daf_butler", "pipe_base"))
	require.NoError(t, err)
	assert.Equal(t, []string{"daf_butler", "pipe_base"}, snap.Names())
	assert.Equal(t, 5, src.callCount("afw"))
}

func TestFetcherAllFailed(t *testing.T) {
	t.Parallel()

	src := newFlakySource(map[string]int{"afw": 10, "daf_butler": 10})
	f := NewFetcher(src, FetcherOptions{Workers: 2, Retries: 2})

	_, err := f.Fetch(context.Background(), targets("daf_butler", "afw"))
	require.ErrorIs(t, err, clerrors.ErrAllFetchesFailed)

	var all *clerrors.AllFetchesFailedError
	require.ErrorAs(t, err, &all)
	assert.Equal(t, []string{"afw", "daf_butler"}, all.Repos)
	assert.Equal(t, 2, src.callCount("afw"))
}

func TestFetcherEmptyTargets(t *testing.T) {
	t.Parallel()

	snap, err := NewFetcher(newFlakySource(nil), FetcherOptions{}).Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestFetcherBoundsConcurrency(t *testing.T) {
	t.Parallel()

	src := newFlakySource(nil)
	f := NewFetcher(src, FetcherOptions{Workers: 2})

	_, err := f.Fetch(context.Background(), targets("a", "b", "c", "d", "e", "f"))
	require.NoError(t, err)
	assert.LessOrEqual(t, src.maxActive.Load(), int32(2))
}

func TestFetcherFiltersTags(t *testing.T) {
	t.Parallel()

	f := NewFetcher(newFlakySource(nil), FetcherOptions{
		KeepTag: func(name string) bool { return name != "junk" },
	})
	snap, err := f.Fetch(context.Background(), targets("afw"))
	require.NoError(t, err)
	require.Len(t, snap.Repos["afw"].Tags, 1)
	assert.Equal(t, "w.2024.01", snap.Repos["afw"].Tags[0].Name)
}

func TestFetcherCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(newFlakySource(nil), FetcherOptions{}).Fetch(ctx, targets("afw"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetcherWithGitHubClient(t *testing.T) {
	t.Parallel()

	config := mockConfig()
	config.Repos["lsst/afw"].FailRequests = 2
	c := NewClientFrom(testhelpers.NewMockGitHubClient(t, config))

	f := NewFetcher(c, FetcherOptions{Retries: 3, Backoff: time.Millisecond})
	snap, err := f.Fetch(context.Background(), []Target{{Name: "afw", Owner: "lsst", Repo: "afw"}})
	require.NoError(t, err)

	afw := snap.Repos["afw"]
	require.NotNil(t, afw)
	assert.Len(t, afw.Tags, 3)
	assert.Len(t, afw.Pulls, 2)
	assert.Equal(t, 3, config.Requests("/repos/lsst/afw"))
}

// historySource serves a fixed history, lists its commits and counts tag lookups
type historySource struct {
	branch   string
	tagCalls atomic.Int32
}

func (s *historySource) DefaultBranch(context.Context, string, string) (string, error) {
	return s.branch, nil
}

func (s *historySource) Tags(context.Context, string, string, func(string) bool) ([]snapshot.TagRef, error) {
	s.tagCalls.Add(1)
	return []snapshot.TagRef{{Name: "w.2024.01", CommitID: "c1"}}, nil
}

func (s *historySource) MergedPulls(context.Context, string, string) ([]snapshot.PullRequest, error) {
	return nil, nil
}

func (s *historySource) Commits(context.Context, string, string) ([]string, error) {
	return []string{"c0", "c1"}, nil
}

func TestFetcherRecordsCommits(t *testing.T) {
	t.Parallel()

	snap, err := NewFetcher(&historySource{branch: "main"}, FetcherOptions{}).Fetch(context.Background(), targets("afw"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c0", "c1"}, snap.Repos["afw"].Commits)

	snap, err = NewFetcher(newFlakySource(nil), FetcherOptions{}).Fetch(context.Background(), targets("afw"))
	require.NoError(t, err)
	assert.Nil(t, snap.Repos["afw"].Commits)
}

func TestFetcherEmptyDefaultBranchSkipsHistory(t *testing.T) {
	t.Parallel()

	src := &historySource{}
	_, err := NewFetcher(src, FetcherOptions{Retries: 3}).Fetch(context.Background(), targets("afw"))
	require.ErrorIs(t, err, clerrors.ErrAllFetchesFailed)
	assert.Contains(t, err.Error(), "afw")
	assert.Equal(t, int32(0), src.tagCalls.Load())
}
