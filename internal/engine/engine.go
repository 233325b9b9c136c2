package engine

import (
	"sort"

	"changelog.dev/changelog/internal/snapshot"
	"changelog.dev/changelog/internal/tag"
)

// Engine reconciles snapshots into timelines
type Engine struct {
	parser *tag.Parser
	opts   Options
	log    Logger
}

// New creates an engine. The tag rules are fixed for the engine's lifetime.
func New(rules tag.Rules, opts Options, log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	if opts.Cadence == 0 {
		opts.Cadence = tag.CadenceRegular
	}
	return &Engine{
		parser: tag.NewParser(rules),
		opts:   opts,
		log:    log,
	}
}

// Options returns the options the engine was created with
func (e *Engine) Options() Options {
	return e.opts
}

// Build runs one reconciliation pass over the snapshot
func (e *Engine) Build(snap *snapshot.Snapshot) *Timeline {
	attributor := NewAttributor(e.opts.Corrections, e.log)
	observed := make(map[string]*observedTag)

	for _, name := range snap.Names() {
		repo := snap.Repos[name]
		e.log.Debug("Processing %s", name)
		l := e.BuildLineage(repo)
		if l.Skipped {
			e.log.Debug("Skipping %s: %d usable tags", name, len(l.Tags))
			continue
		}
		for i, t := range l.Tags {
			date := l.Refs[i].Date()
			ot, ok := observed[t.RelName()]
			if !ok {
				observed[t.RelName()] = &observedTag{tag: t, date: date}
				continue
			}
			// a release is reported when its last package was tagged
			if date.After(ot.date) {
				ot.date = date
			}
		}
		attributor.Attribute(repo, l)
	}

	tags := make([]observedTag, 0, len(observed))
	for _, ot := range observed {
		tags = append(tags, *ot)
	}
	sort.Slice(tags, func(i, j int) bool {
		if c := tags[i].tag.Compare(tags[j].tag); c != 0 {
			return c < 0
		}
		return tags[i].tag.RelName() < tags[j].tag.RelName()
	})

	return &Timeline{
		Cadence:  e.opts.Cadence,
		Releases: NewMerger(e.opts).Merge(tags, attributor, snap.Diffs),
	}
}
