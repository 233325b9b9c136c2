package engine

import (
	"sort"
	"time"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

// historicalCutoff is the first major release shown in a regular changelog
const historicalCutoff = 16

// observedTag is a tag seen in at least one repository's lineage
type observedTag struct {
	tag  tag.Tag
	date time.Time
}

// Merger folds per-tag ticket tables into timeline rows
type Merger struct {
	opts Options
}

// NewMerger creates a merger for the given options
func NewMerger(opts Options) *Merger {
	return &Merger{opts: opts}
}

// groupKey returns the grouping key and display name a tag folds into
func (m *Merger) groupKey(t tag.Tag) (string, string) {
	if m.opts.Cadence != tag.CadenceRegular {
		return t.BaseName(), t.RelName()
	}
	if !m.opts.MergeCandidates || (m.opts.MergeFirstCandidate && t.IsFirstReleaseTag()) {
		return t.RelName(), t.RelName()
	}
	return t.BaseName(), tag.Parse(t.BaseName()).RelName()
}

// Merge builds the ordered timeline rows. Tags must be sorted ascending.
func (m *Merger) Merge(tags []observedTag, a *Attributor, diffs map[string]snapshot.PackageDiff) []*Release {
	type acc struct {
		rel     *Release
		table   *TicketTable
		added   map[string]bool
		removed map[string]bool
	}
	var order []*acc
	byKey := make(map[string]*acc)

	for _, ot := range tags {
		t := ot.tag
		if m.opts.Cadence == tag.CadenceRegular && t.Major() < historicalCutoff {
			continue
		}
		key, name := m.groupKey(t)
		r, ok := byKey[key]
		if !ok {
			r = &acc{
				rel:     &Release{Name: name, Key: key},
				table:   NewTicketTable(),
				added:   make(map[string]bool),
				removed: make(map[string]bool),
			}
			byKey[key] = r
			order = append(order, r)
		}
		r.rel.Tags = append(r.rel.Tags, t.RelName())
		r.rel.Date = ot.date
		r.table.Merge(a.Table(t.RelName()))
		if d, ok := diffs[t.RelName()]; ok {
			for _, p := range d.Added {
				r.added[p] = true
			}
			for _, p := range d.Removed {
				r.removed[p] = true
			}
		}
	}

	out := make([]*Release, 0, len(order)+1)
	for _, r := range order {
		r.rel.Tickets = r.table.Rows()
		r.rel.Added = sortedKeys(r.added)
		r.rel.Removed = sortedKeys(r.removed)
		out = append(out, r.rel)
	}

	bucket := m.bucket(a.Untagged())
	if m.opts.Cadence == tag.CadenceRegular {
		// newest first, with the bucket ahead of every tagged release
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		if bucket != nil {
			out = append([]*Release{bucket}, out...)
		}
		return out
	}
	if bucket != nil {
		out = append(out, bucket)
	}
	return out
}

func (m *Merger) bucket(t *TicketTable) *Release {
	if t == nil || t.Len() == 0 {
		return nil
	}
	name := MainBucketName
	if m.opts.Cadence == tag.CadenceRegular {
		name = UntaggedName
	}
	rows := t.Rows()
	var latest time.Time
	for _, r := range rows {
		if r.MergedAt.After(latest) {
			latest = r.MergedAt
		}
	}
	return &Release{
		Name:     name,
		Key:      name,
		Date:     latest,
		Tickets:  rows,
		Untagged: true,
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
