package engine

import (
	"time"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

const (
	// MainBranch is the normalized name of every repository's default branch
	MainBranch = "main"
	// UntaggedName is the bucket for regular changelogs
	UntaggedName = "~untagged"
	// MainBucketName is the bucket for weekly and daily changelogs
	MainBucketName = "~main"
)

// Correction overrides the recorded merge commit of one pull request
type Correction struct {
	CommitID    string
	CommittedAt time.Time
}

// Options controls a reconciliation pass
type Options struct {
	Cadence tag.Cadence
	// MergeCandidates folds every rc tag into its final release row
	MergeCandidates bool
	// MergeFirstCandidate keeps the first tag of a series in its own row
	// even when MergeCandidates is set
	MergeFirstCandidate bool
	// Corrections is keyed by pull request URL
	Corrections map[string]Correction
}

// Logger is the logging surface the engine writes to
type Logger interface {
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}

// BranchRange bounds a release's contribution to one branch by tag name
type BranchRange struct {
	Start string
	End   string
}

// Window is a (Start, End] range of one branch attributed to End's tag.
// Start is nil when no earlier tag bounds the window.
type Window struct {
	Tag    tag.Tag
	Branch string
	Start  *snapshot.TagRef
	End    snapshot.TagRef
}

// RepoRelease groups one repository's tags sharing a base name
type RepoRelease struct {
	BaseName string
	Tags     []tag.Tag
	LastTag  tag.Tag
	Date     time.Time
	Branches map[string]BranchRange
}

// Contributor is one package's pull request towards a ticket
type Contributor struct {
	Package string
	URL     string
}

// TicketRow is the accumulated merges of one ticket on one branch
type TicketRow struct {
	// Ticket is zero when no ticket number could be resolved
	Ticket       int
	Title        string
	Branch       string
	MergedAt     time.Time
	Contributors []Contributor
}

// HasTicket reports whether the row resolved to a ticket number
func (r *TicketRow) HasTicket() bool {
	return r.Ticket != 0
}

// Release is one row of the reconciled timeline
type Release struct {
	// Name is the canonical display id, e.g. v23_0_0 or w_2023_05
	Name string
	// Key is the grouping key the row was folded under
	Key      string
	Tags     []string
	Date     time.Time
	Added    []string
	Removed  []string
	Tickets  []*TicketRow
	Untagged bool
}

// Timeline is the ordered output of a reconciliation pass
type Timeline struct {
	Cadence  tag.Cadence
	Releases []*Release
}

// Find returns the release with the given display name
func (t *Timeline) Find(name string) *Release {
	for _, r := range t.Releases {
		if r.Name == name {
			return r
		}
	}
	return nil
}
