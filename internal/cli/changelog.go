package cli

import (
	"github.com/spf13/cobra"

	"changelog.dev/changelog/internal/actions"
	"changelog.dev/changelog/internal/cli/helpers"
	"changelog.dev/changelog/internal/runtime"
	"changelog.dev/changelog/internal/tag"
)

type cadenceSpec struct {
	cadence tag.Cadence
	use     string
	aliases []string
	short   string
}

var (
	cadenceWeekly = cadenceSpec{
		cadence: tag.CadenceWeekly,
		use:     "weekly",
		aliases: []string{"w"},
		short:   "Write the changelog of weekly tags",
	}
	cadenceRegular = cadenceSpec{
		cadence: tag.CadenceRegular,
		use:     "regular",
		aliases: []string{"releases", "r"},
		short:   "Write the changelog of regular releases",
	}
	cadenceDaily = cadenceSpec{
		cadence: tag.CadenceDaily,
		use:     "daily",
		short:   "Write the changelog of daily tags",
	}
)

// newCadenceCmd creates a command writing the changelog of one cadence
func newCadenceCmd(spec cadenceSpec) *cobra.Command {
	var (
		noJira  bool
		summary bool
	)

	cmd := &cobra.Command{
		Use:     spec.use,
		Aliases: spec.aliases,
		Short:   spec.short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				applyCandidateFlags(cmd, ctx)
				return actions.ChangelogAction(ctx, actions.ChangelogOptions{
					Cadence:     spec.cadence,
					SkipTracker: noJira,
					ShowSummary: summary,
				})
			})
		},
	}

	cmd.Flags().BoolVar(&noJira, "no-jira", false, "use pull request titles instead of tracker summaries")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a one-line-per-release summary when done")
	if spec.cadence == tag.CadenceRegular {
		addCandidateFlags(cmd)
	}

	return cmd
}

func addCandidateFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("merge-candidates", true, "fold release candidates into their final release")
	cmd.Flags().Bool("merge-first-candidate", false, "keep the first tag of a series in its own release")
}

// applyCandidateFlags lets explicit flags win over config and environment
func applyCandidateFlags(cmd *cobra.Command, ctx *runtime.Context) {
	if f := cmd.Flags().Lookup("merge-candidates"); f != nil && f.Changed {
		ctx.Config.MergeCandidates, _ = cmd.Flags().GetBool("merge-candidates")
	}
	if f := cmd.Flags().Lookup("merge-first-candidate"); f != nil && f.Changed {
		ctx.Config.MergeFirstCandidate, _ = cmd.Flags().GetBool("merge-first-candidate")
	}
}
