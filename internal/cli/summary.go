package cli

import (
	"github.com/spf13/cobra"

	"changelog.dev/changelog/internal/actions"
	"changelog.dev/changelog/internal/cli/helpers"
	"changelog.dev/changelog/internal/runtime"
	"changelog.dev/changelog/internal/tag"
)

// newSummaryCmd creates the summary command
func newSummaryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:       "summary <weekly|regular|daily>",
		Short:     "Print one line per release without writing any files",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"weekly", "regular", "daily"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cadence, err := tag.ParseCadence(args[0])
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				applyCandidateFlags(cmd, ctx)
				return actions.SummaryAction(ctx, actions.SummaryOptions{Cadence: cadence, Limit: limit})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many releases")
	addCandidateFlags(cmd)
	return cmd
}
