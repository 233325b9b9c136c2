package cli

import (
	"github.com/spf13/cobra"

	"changelog.dev/changelog/internal/actions"
	"changelog.dev/changelog/internal/cli/helpers"
	"changelog.dev/changelog/internal/runtime"
)

const defaultRulesPath = "changelog-rules.toml"

// newRulesCmd creates the rules command
func newRulesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rules [path]",
		Short: "Write the built-in tag and product rules to a TOML file for editing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultRulesPath
			if len(args) == 1 {
				path = args[0]
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.RulesAction(ctx, actions.RulesOptions{Path: path, Force: force})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
