package engine

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"changelog.dev/changelog/internal/snapshot"
)

var releaseBranchRe = regexp.MustCompile(`^\d+\.\d+\.x$`)

// merge is a pull request normalized for window math
type merge struct {
	ticket   int
	title    string
	branch   string
	url      string
	pkg      string
	commitAt time.Time
}

// Attributor maps merged pull requests onto lineage windows
type Attributor struct {
	corrections map[string]Correction
	log         Logger

	tables   map[string]*TicketTable
	untagged *TicketTable
}

// NewAttributor creates an attributor applying the given corrections
func NewAttributor(corrections map[string]Correction, log Logger) *Attributor {
	if log == nil {
		log = nopLogger{}
	}
	return &Attributor{
		corrections: corrections,
		log:         log,
		tables:      make(map[string]*TicketTable),
		untagged:    NewTicketTable(),
	}
}

// Table returns the ticket table accumulated for a tag display name
func (a *Attributor) Table(relName string) *TicketTable {
	return a.tables[relName]
}

// Untagged returns merges no tag bounds yet
func (a *Attributor) Untagged() *TicketTable {
	return a.untagged
}

// Attribute assigns the repository's merges to the windows of its lineage
func (a *Attributor) Attribute(repo *snapshot.RepoData, l *Lineage) {
	if l.Skipped {
		a.log.Debug("Skipping %s: not enough tag history", repo.Name)
		return
	}
	byBranch := a.normalize(repo)

	for _, w := range l.Windows {
		table := a.table(w.Tag.RelName())
		if w.Start == nil {
			continue
		}
		lo, hi := w.Start.CommittedAt, w.End.CommittedAt
		if lo.Equal(hi) {
			continue
		}
		for _, m := range byBranch[w.Branch] {
			// (lo, hi]
			if m.commitAt.After(lo) && !m.commitAt.After(hi) {
				table.Add(m.ticket, m.branch, m.title, m.commitAt, Contributor{Package: m.pkg, URL: m.url})
			}
		}
	}

	if l.MainHead == nil {
		return
	}
	for _, m := range byBranch[MainBranch] {
		if m.commitAt.After(l.MainHead.CommittedAt) {
			a.untagged.Add(m.ticket, m.branch, m.title, m.commitAt, Contributor{Package: m.pkg, URL: m.url})
		}
	}
}

func (a *Attributor) table(relName string) *TicketTable {
	t, ok := a.tables[relName]
	if !ok {
		t = NewTicketTable()
		a.tables[relName] = t
	}
	return t
}

// normalize applies corrections, drops unusable records and groups the
// remaining merges by branch in commit order.
func (a *Attributor) normalize(repo *snapshot.RepoData) map[string][]merge {
	out := make(map[string][]merge)
	known := repo.KnownCommits()
	for _, pr := range repo.Pulls {
		commitID, commitAt := pr.MergeCommitID, pr.MergeCommittedAt
		if c, ok := a.corrections[pr.URL]; ok {
			commitID, commitAt = c.CommitID, c.CommittedAt
		}
		if commitAt.IsZero() {
			commitAt = pr.MergedAt
		}
		if commitID == "" || commitAt.IsZero() {
			continue
		}
		if known != nil {
			if _, ok := known[commitID]; !ok {
				a.log.Debug("Dropping %s: commit %s is not in %s history", pr.URL, commitID, repo.Name)
				continue
			}
		}
		branch, ok := NormalizeBranch(pr.BaseBranch, repo.DefaultBranch)
		if !ok {
			continue
		}
		out[branch] = append(out[branch], merge{
			ticket:   TicketNumber(pr.HeadRef, pr.Title),
			title:    pr.Title,
			branch:   branch,
			url:      pr.URL,
			pkg:      repo.Name,
			commitAt: commitAt,
		})
	}
	for _, ms := range out {
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].commitAt.Before(ms[j].commitAt) })
	}
	return out
}

// NormalizeBranch maps a pull request base branch onto main or a
// MAJOR.MINOR.x release branch. It reports false for any other branch.
func NormalizeBranch(base, defaultBranch string) (string, bool) {
	if base == "master" || base == MainBranch || (defaultBranch != "" && base == defaultBranch) {
		return MainBranch, true
	}
	base = strings.TrimPrefix(base, "v")
	if releaseBranchRe.MatchString(base) {
		return base, true
	}
	return "", false
}
