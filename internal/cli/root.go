package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"changelog.dev/changelog/internal/config"
	"changelog.dev/changelog/internal/output"
	"changelog.dev/changelog/internal/runtime"
)

// Overrides replaces dependencies of the runtime context, for tests
type Overrides func(rc *runtime.Context)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	return newRootCmd(version, commit, date, nil)
}

func newRootCmd(version, commit, date string, override Overrides) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "changelog",
		Short: "Build release changelogs from tags, pull requests and package lists",
		Long: `changelog reconstructs the release timeline of a multi-repository stack.

It reads EUPS tag lists, every product's tags and merged pull requests,
attributes each ticket to the release and branch it shipped in, and writes
the result as reStructuredText pages.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cmd); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rules, err := config.LoadRules(cfg.RulesFile)
			if err != nil {
				return err
			}
			splog, err := output.NewSplogWithConfig(cfg.LogFile, cfg.Verbose)
			if err != nil {
				return err
			}
			output.DisableColorUnlessTTY()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rc := runtime.NewContext(ctx, cfg, rules, splog)
			if override != nil {
				override(rc)
			}
			cmd.SetContext(runtime.WithContext(ctx, rc))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return nil
			}
			return rc.Splog.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .changelog.yaml)")
	flags.Int("workers", 5, "number of repositories fetched concurrently")
	flags.Int("retries", 5, "attempts per repository before it is dropped")
	flags.String("rules", "", "TOML file with discard, first-tag, skip and correction lists")
	flags.String("repos-yaml", config.DefaultReposYAML, "URL of the product to repository map")
	flags.String("eups-pkgroot", config.DefaultEUPSPkgroot, "EUPS package root serving tag lists")
	flags.String("jira-url", config.DefaultJiraURL, "issue tracker REST API root")
	flags.StringP("output-dir", "o", "source", "documentation source directory")
	flags.String("log-file", "", "also write a debug log to this file")
	flags.String("github-host", "", "GitHub Enterprise hostname")
	flags.String("local-dir", "", "read history from clones under this directory instead of GitHub")
	flags.BoolP("verbose", "v", false, "verbose output")

	for key, flag := range map[string]string{
		"workers":      "workers",
		"retries":      "retries",
		"rules_file":   "rules",
		"repos_yaml":   "repos-yaml",
		"eups_pkgroot": "eups-pkgroot",
		"jira_url":     "jira-url",
		"output_dir":   "output-dir",
		"log_file":     "log-file",
		"github_host":  "github-host",
		"local_dir":    "local-dir",
		"verbose":      "verbose",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newCadenceCmd(cadenceWeekly),
		newCadenceCmd(cadenceRegular),
		newCadenceCmd(cadenceDaily),
		newSummaryCmd(),
		newTicketsCmd(),
		newRulesCmd(),
	)

	return rootCmd
}

func initConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".changelog")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("CHANGELOG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
