package github

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"changelog.dev/changelog/internal/errors"
	"changelog.dev/changelog/internal/snapshot"
)

// Defaults for the fetch pool
const (
	DefaultWorkers = 5
	DefaultRetries = 5
)

// Source is a provider of per-repository history
type Source interface {
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
	Tags(ctx context.Context, owner, repo string, keep func(string) bool) ([]snapshot.TagRef, error)
	MergedPulls(ctx context.Context, owner, repo string) ([]snapshot.PullRequest, error)
}

// CommitLister is implemented by sources that can enumerate the commits of a
// repository's tracked branches
type CommitLister interface {
	Commits(ctx context.Context, owner, repo string) ([]string, error)
}

// Logger is the logging surface fetch workers write to
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Target is one repository to fetch, named by its product
type Target struct {
	Name  string
	Owner string
	Repo  string
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Workers int
	Retries int
	// Backoff is the pause before the second attempt, doubled after each failure
	Backoff time.Duration
	// KeepTag filters tag names before their commits are resolved
	KeepTag func(string) bool
	Log     Logger
}

// Fetcher fetches many repositories concurrently with a bounded pool
type Fetcher struct {
	source Source
	opts   FetcherOptions
}

// NewFetcher creates a fetcher reading from source
func NewFetcher(source Source, opts FetcherOptions) *Fetcher {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.Retries < 1 {
		opts.Retries = DefaultRetries
	}
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	return &Fetcher{source: source, opts: opts}
}

type fetchResult struct {
	repo *snapshot.RepoData
	err  error
}

// Fetch fetches every target and returns the combined snapshot. Repositories
// that exhaust their retries are logged and left out. If no repository could
// be fetched an AllFetchesFailedError is returned.
func (f *Fetcher) Fetch(ctx context.Context, targets []Target) (*snapshot.Snapshot, error) {
	results := make([]fetchResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for i, t := range targets {
		g.Go(func() error {
			repo, err := f.fetchWithRetry(gctx, t)
			results[i] = fetchResult{repo: repo, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := snapshot.New()
	var failed []string
	for i, r := range results {
		if r.err != nil {
			f.opts.Log.Warn("Dropping %s: %v", targets[i].Name, r.err)
			failed = append(failed, targets[i].Name)
			continue
		}
		snap.Add(r.repo)
	}

	if len(targets) > 0 && snap.Len() == 0 {
		sort.Strings(failed)
		return nil, errors.NewAllFetchesFailedError(failed)
	}
	return snap, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, t Target) (*snapshot.RepoData, error) {
	f.opts.Log.Info("Fetching %s", t.Name)

	delay := f.opts.Backoff
	var lastErr error
	for attempt := 1; attempt <= f.opts.Retries; attempt++ {
		repo, err := f.fetchOne(ctx, t)
		if err == nil {
			return repo, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.opts.Log.Debug("Attempt %d/%d for %s failed: %v", attempt, f.opts.Retries, t.Name, err)

		if attempt < f.opts.Retries && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, errors.NewFetchError(t.Name, f.opts.Retries, lastErr)
}

func (f *Fetcher) fetchOne(ctx context.Context, t Target) (*snapshot.RepoData, error) {
	branch, err := f.source.DefaultBranch(ctx, t.Owner, t.Repo)
	if err != nil {
		return nil, err
	}
	if branch == "" {
		return nil, fmt.Errorf("%s/%s has no default branch", t.Owner, t.Repo)
	}
	tags, err := f.source.Tags(ctx, t.Owner, t.Repo, f.opts.KeepTag)
	if err != nil {
		return nil, err
	}
	pulls, err := f.source.MergedPulls(ctx, t.Owner, t.Repo)
	if err != nil {
		return nil, err
	}
	data := &snapshot.RepoData{
		Name:          t.Name,
		Owner:         t.Owner,
		Repo:          t.Repo,
		DefaultBranch: branch,
		Tags:          tags,
		Pulls:         pulls,
	}
	if lister, ok := f.source.(CommitLister); ok {
		if data.Commits, err = lister.Commits(ctx, t.Owner, t.Repo); err != nil {
			return nil, err
		}
	}
	return data, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}
