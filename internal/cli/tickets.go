package cli

import (
	"github.com/spf13/cobra"

	"changelog.dev/changelog/internal/actions"
	"changelog.dev/changelog/internal/cli/helpers"
	"changelog.dev/changelog/internal/runtime"
)

// newTicketsCmd creates the tickets command
func newTicketsCmd() *cobra.Command {
	var projects []string

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Print tracker tickets and their summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.TicketsAction(ctx, actions.TicketsOptions{Projects: projects})
			})
		},
	}

	cmd.Flags().StringSliceVarP(&projects, "project", "p", nil, "tracker projects to list (default SP,DM)")
	return cmd
}
