package engine

import (
	"fmt"
	"time"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

var epoch = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return epoch.AddDate(0, 0, n)
}

func tagRef(name string, d int) snapshot.TagRef {
	return snapshot.TagRef{
		Name:        name,
		CommitID:    "sha-" + name,
		CommittedAt: day(d),
	}
}

func pull(pkg, branch, title string, d int, n int) snapshot.PullRequest {
	return snapshot.PullRequest{
		BaseBranch:       branch,
		HeadRef:          fmt.Sprintf("u/someone/change-%d", n),
		Title:            title,
		URL:              fmt.Sprintf("https://github.com/lsst/%s/pull/%d", pkg, n),
		MergedAt:         day(d),
		MergeCommitID:    fmt.Sprintf("merge-%d", n),
		MergeCommittedAt: day(d),
	}
}

func repoData(name string, tags []snapshot.TagRef, pulls ...snapshot.PullRequest) *snapshot.RepoData {
	return &snapshot.RepoData{
		Name:          name,
		Owner:         "lsst",
		Repo:          name,
		DefaultBranch: "main",
		Tags:          tags,
		Pulls:         pulls,
	}
}

func newSnapshot(repos ...*snapshot.RepoData) *snapshot.Snapshot {
	s := snapshot.New()
	for _, r := range repos {
		s.Add(r)
	}
	return s
}

func regularEngine(mergeCandidates bool) *Engine {
	return New(tag.Rules{}, Options{Cadence: tag.CadenceRegular, MergeCandidates: mergeCandidates}, nil)
}

func weeklyEngine() *Engine {
	return New(tag.Rules{}, Options{Cadence: tag.CadenceWeekly}, nil)
}

func ticketNumbers(r *Release) []int {
	out := make([]int, 0, len(r.Tickets))
	for _, row := range r.Tickets {
		out = append(out, row.Ticket)
	}
	return out
}

func releaseNames(t *Timeline) []string {
	out := make([]string, 0, len(t.Releases))
	for _, r := range t.Releases {
		out = append(out, r.Name)
	}
	return out
}
