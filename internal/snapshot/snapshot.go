// Package snapshot holds the pre-fetched repository data the engine consumes.
//
// A Snapshot is assembled once by a fetch source (GitHub or a local clone)
// and is treated as immutable afterwards.
package snapshot

import (
	"sort"
	"time"
)

// TagRef is one tag as recorded on the version-control host
type TagRef struct {
	Name        string
	CommitID    string
	CommittedAt time.Time
	// TaggedAt is the annotated-tag creation date, nil for lightweight tags
	TaggedAt *time.Time
}

// Date returns the date a release is reported at: the tagger date when the
// tag is annotated, the commit date otherwise.
func (t TagRef) Date() time.Time {
	if t.TaggedAt != nil && !t.TaggedAt.IsZero() {
		return *t.TaggedAt
	}
	return t.CommittedAt
}

// PullRequest is one merged pull request
type PullRequest struct {
	// BaseBranch is the branch the pull request was merged into, as reported
	BaseBranch string
	// HeadRef is the merged branch name, e.g. tickets/DM-12345
	HeadRef          string
	Title            string
	URL              string
	MergedAt         time.Time
	MergeCommitID    string
	MergeCommittedAt time.Time
}

// RepoData is everything fetched for one repository
type RepoData struct {
	// Name is the package (product) name the repository provides
	Name          string
	Owner         string
	Repo          string
	DefaultBranch string
	Tags          []TagRef
	Pulls         []PullRequest
	// Commits lists the commit ids reachable from the tracked branches. It is
	// nil when the source cannot enumerate history.
	Commits []string
}

// KnownCommits returns the set of commit ids a merge may resolve to: every
// tagged commit plus Commits. It returns nil when Commits is nil.
func (r *RepoData) KnownCommits() map[string]struct{} {
	if r.Commits == nil {
		return nil
	}
	known := make(map[string]struct{}, len(r.Commits)+len(r.Tags))
	for _, id := range r.Commits {
		known[id] = struct{}{}
	}
	for _, t := range r.Tags {
		if t.CommitID != "" {
			known[t.CommitID] = struct{}{}
		}
	}
	return known
}

// PackageDiff lists the packages a release tag added and removed relative to
// the tag before it
type PackageDiff struct {
	Added   []string
	Removed []string
}

// Snapshot maps package name to its fetched repository data
type Snapshot struct {
	Repos map[string]*RepoData
	// Diffs is keyed by tag display name, e.g. w_2023_05 or v23_0_0_rc1
	Diffs map[string]PackageDiff
}

// New creates an empty snapshot
func New() *Snapshot {
	return &Snapshot{
		Repos: make(map[string]*RepoData),
		Diffs: make(map[string]PackageDiff),
	}
}

// Add stores repository data under its package name
func (s *Snapshot) Add(data *RepoData) {
	s.Repos[data.Name] = data
}

// Names returns the package names in sorted order
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Repos))
	for name := range s.Repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of repositories in the snapshot
func (s *Snapshot) Len() int {
	return len(s.Repos)
}
