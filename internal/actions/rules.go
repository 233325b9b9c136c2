package actions

import (
	"fmt"
	"os"

	"changelog.dev/changelog/internal/config"
	"changelog.dev/changelog/internal/runtime"
)

// RulesOptions contains options for the rules command
type RulesOptions struct {
	Path  string
	Force bool
}

// RulesAction writes the built-in rule lists to a TOML file
func RulesAction(ctx *runtime.Context, opts RulesOptions) error {
	if !opts.Force {
		if _, err := os.Stat(opts.Path); err == nil {
			return fmt.Errorf("%s already exists; use --force to overwrite", opts.Path)
		}
	}
	if err := config.SaveRules(opts.Path, config.DefaultRules()); err != nil {
		return err
	}
	ctx.Splog.Info("Wrote rules to %s", opts.Path)
	return nil
}
