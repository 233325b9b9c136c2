package testhelpers

import (
	"fmt"
	"time"

	"github.com/google/go-github/v62/github"
)

// SamplePRData provides merged pull request data for testing
type SamplePRData struct {
	Owner    string
	Repo     string
	Number   int
	Title    string
	Head     string
	Base     string
	MergedAt *time.Time
	MergeSHA string
}

// NewSamplePullRequest creates a closed github.PullRequest from sample data.
// It is merged when MergedAt is set.
func NewSamplePullRequest(data SamplePRData) *github.PullRequest {
	pr := &github.PullRequest{
		Number:  github.Int(data.Number),
		Title:   github.String(data.Title),
		Head:    &github.PullRequestBranch{Ref: github.String(data.Head)},
		Base:    &github.PullRequestBranch{Ref: github.String(data.Base)},
		HTMLURL: github.String(fmt.Sprintf("https://github.com/%s/%s/pull/%d", data.Owner, data.Repo, data.Number)),
		State:   github.String("closed"),
	}
	if data.MergedAt != nil {
		pr.MergedAt = &github.Timestamp{Time: *data.MergedAt}
		pr.MergeCommitSHA = github.String(data.MergeSHA)
	}
	return pr
}

// MergedPRData returns data for a pull request merged into main
func MergedPRData(number int, title string, mergedAt time.Time) SamplePRData {
	return SamplePRData{
		Owner:    "lsst",
		Repo:     "afw",
		Number:   number,
		Title:    title,
		Head:     fmt.Sprintf("tickets/DM-%d", number),
		Base:     "main",
		MergedAt: &mergedAt,
		MergeSHA: fmt.Sprintf("merge%04d", number),
	}
}

// ClosedPRData returns data for a pull request closed without merging
func ClosedPRData(number int, title string) SamplePRData {
	data := MergedPRData(number, title, time.Time{})
	data.MergedAt = nil
	data.MergeSHA = ""
	return data
}
