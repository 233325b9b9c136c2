package engine

import (
	"sort"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

// modernMajor is the first major release cut from a dedicated release branch
const modernMajor = 23

type predecessorRule int

const (
	// predecessorSeriesHead starts a series' main window at the head of the
	// predecessor series' release branch, i.e. its last patch tag.
	predecessorSeriesHead predecessorRule = iota
	// predecessorPreviousTag starts the main window at the last tag of the
	// immediately preceding release, wherever that tag lives.
	predecessorPreviousTag
)

// mainPredecessorRules overrides predecessorSeriesHead for specific majors.
var mainPredecessorRules = map[int]predecessorRule{
	// 23 follows the legacy all-on-main releases; this is a one-time transition
	// and is not derived from the rule for later majors.
	23: predecessorPreviousTag,
}

// Lineage is the release history of one repository for one cadence
type Lineage struct {
	Repo     string
	Tags     []tag.Tag
	Refs     []snapshot.TagRef
	Releases []*RepoRelease
	Windows  []Window
	// MainHead is the latest tag bounding the main branch, nil without tags
	MainHead *snapshot.TagRef
	// Skipped is set when the repository has too little tag history to
	// attribute merges without false positives
	Skipped bool
}

// BuildLineage groups a repository's tags into releases and derives the
// branch window each tag contributes.
func (e *Engine) BuildLineage(repo *snapshot.RepoData) *Lineage {
	l := &Lineage{Repo: repo.Name}
	l.collect(e.parser, e.opts.Cadence, repo.Tags)
	if len(l.Tags) <= 1 {
		l.Skipped = true
	}
	l.buildWindows()
	l.buildReleases()
	return l
}

func (l *Lineage) collect(p *tag.Parser, cadence tag.Cadence, refs []snapshot.TagRef) {
	type entry struct {
		tag tag.Tag
		ref snapshot.TagRef
	}
	entries := make([]entry, 0, len(refs))
	for _, ref := range refs {
		t := p.Parse(ref.Name)
		if !t.Valid() || !t.Matches(cadence) {
			continue
		}
		// a tag without a resolvable commit cannot bound a window
		if ref.CommitID == "" || ref.CommittedAt.IsZero() {
			continue
		}
		entries = append(entries, entry{t, ref})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].tag.Compare(entries[j].tag); c != 0 {
			return c < 0
		}
		return entries[i].tag.Name() < entries[j].tag.Name()
	})
	for i, en := range entries {
		// v23.0.0 and 23.0.0 are the same release; keep the first spelling
		if i > 0 && en.tag.Compare(entries[i-1].tag) == 0 {
			continue
		}
		l.Tags = append(l.Tags, en.tag)
		l.Refs = append(l.Refs, en.ref)
	}
}

func (l *Lineage) buildWindows() {
	var mainHead *snapshot.TagRef
	for i, t := range l.Tags {
		end := l.Refs[i]
		var prev *snapshot.TagRef
		if i > 0 {
			prev = &l.Refs[i-1]
		}

		if t.Kind() != tag.Regular || t.Major() < modernMajor {
			l.addWindow(t, MainBranch, prev, end)
			mainHead = &l.Refs[i]
			continue
		}

		opening := i == 0 || !l.Tags[i-1].SameSeries(t)
		if t.Patch() == 0 {
			start := mainHead
			if opening {
				start = l.mainPredecessor(i)
			}
			l.addWindow(t, MainBranch, start, end)
			mainHead = &l.Refs[i]
			if opening {
				// the release branch starts here; later tags extend it
				continue
			}
		}
		l.addWindow(t, t.TagBranch(), prev, end)
	}
	l.MainHead = mainHead
}

func (l *Lineage) addWindow(t tag.Tag, branch string, start *snapshot.TagRef, end snapshot.TagRef) {
	l.Windows = append(l.Windows, Window{Tag: t, Branch: branch, Start: start, End: end})
}

// mainPredecessor returns the lower bound of the main window of the series
// opened by the tag at index i.
func (l *Lineage) mainPredecessor(i int) *snapshot.TagRef {
	if i == 0 {
		return nil
	}
	if mainPredecessorRules[l.Tags[i].Major()] == predecessorPreviousTag {
		return l.previousReleaseTag(i)
	}
	return l.seriesHead(i)
}

// seriesHead returns the last tag of the series preceding the one the tag at
// index i belongs to. Patch tags on that series' release branch count.
func (l *Lineage) seriesHead(i int) *snapshot.TagRef {
	for j := i - 1; j >= 0; j-- {
		if !l.Tags[j].SameSeries(l.Tags[i]) {
			return &l.Refs[j]
		}
	}
	return nil
}

// previousReleaseTag returns the last tag of the release before the one the
// tag at index i belongs to.
func (l *Lineage) previousReleaseTag(i int) *snapshot.TagRef {
	base := l.Tags[i].BaseName()
	for j := i - 1; j >= 0; j-- {
		if l.Tags[j].BaseName() != base {
			return &l.Refs[j]
		}
	}
	return nil
}

func (l *Lineage) buildReleases() {
	byName := make(map[string]*RepoRelease)
	for i, t := range l.Tags {
		name := t.BaseName()
		rel, ok := byName[name]
		if !ok {
			rel = &RepoRelease{
				BaseName: name,
				Branches: make(map[string]BranchRange),
			}
			byName[name] = rel
			l.Releases = append(l.Releases, rel)
		}
		rel.Tags = append(rel.Tags, t)
		rel.LastTag = t
		rel.Date = l.Refs[i].Date()
	}

	for _, w := range l.Windows {
		rel := byName[w.Tag.BaseName()]
		br, ok := rel.Branches[w.Branch]
		if !ok && w.Start != nil {
			br.Start = w.Start.Name
		}
		br.End = w.End.Name
		rel.Branches[w.Branch] = br
	}
}
