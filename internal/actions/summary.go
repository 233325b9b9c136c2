package actions

import (
	"changelog.dev/changelog/internal/output"
	"changelog.dev/changelog/internal/runtime"
	"changelog.dev/changelog/internal/tag"
)

// SummaryOptions contains options for the summary command
type SummaryOptions struct {
	Cadence tag.Cadence
	Limit   int
}

// SummaryAction builds a timeline and prints one line per release
func SummaryAction(ctx *runtime.Context, opts SummaryOptions) error {
	build, err := BuildTimeline(ctx, BuildOptions{Cadence: opts.Cadence})
	if err != nil {
		return err
	}
	s := output.NewSummary(build.Timeline)
	s.Limit = opts.Limit
	ctx.Splog.Page(s.Render())
	return nil
}
