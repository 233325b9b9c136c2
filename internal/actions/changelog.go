package actions

import (
	"fmt"

	"changelog.dev/changelog/internal/jira"
	"changelog.dev/changelog/internal/output"
	"changelog.dev/changelog/internal/render"
	"changelog.dev/changelog/internal/runtime"
	"changelog.dev/changelog/internal/tag"
)

// ChangelogOptions contains options for the cadence commands
type ChangelogOptions struct {
	Cadence tag.Cadence
	// SkipTracker leaves pull request titles as ticket descriptions
	SkipTracker bool
	// ShowSummary prints the terminal summary after writing
	ShowSummary bool
}

// ChangelogAction builds a timeline and writes it as RST pages
func ChangelogAction(ctx *runtime.Context, opts ChangelogOptions) error {
	build, err := BuildTimeline(ctx, BuildOptions{Cadence: opts.Cadence})
	if err != nil {
		return err
	}

	var tickets map[string]string
	if !opts.SkipTracker {
		ctx.Splog.Info("Fetching JIRA ticket data")
		tickets, err = jira.NewClient(ctx.Config.JiraURL, ctx.HTTPClient).Tickets(ctx)
		if err != nil {
			// titles are an acceptable fallback
			ctx.Splog.Warn("Ticket summaries unavailable: %v", err)
		}
	}

	ctx.Splog.Info("Writing RST files")
	w := render.NewWriter(render.Options{
		Dir:      ctx.Config.OutputDir,
		Products: build.Products,
		RepoURLs: build.RepoURLs,
		Tickets:  tickets,
		Log:      ctx.Splog,
	})
	if err := w.Write(build.Timeline); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}

	if opts.ShowSummary {
		ctx.Splog.Page(output.NewSummary(build.Timeline).Render())
	}
	return nil
}
