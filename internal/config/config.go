package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default endpoints for the LSST stack
const (
	DefaultEUPSPkgroot = "https://eups.lsst.codes/stack/src/"
	DefaultReposYAML   = "https://raw.githubusercontent.com/lsst/repos/main/etc/repos.yaml"
	DefaultJiraURL     = "https://rubinobs.atlassian.net/rest/api/2/"
)

// Config holds all runtime configuration for a changelog run.
// Values are populated from .changelog.yaml, CHANGELOG_* env vars, and CLI flags.
type Config struct {
	Workers             int    `mapstructure:"workers"`
	Retries             int    `mapstructure:"retries"`
	MergeCandidates     bool   `mapstructure:"merge_candidates"`
	MergeFirstCandidate bool   `mapstructure:"merge_first_candidate"`
	RulesFile           string `mapstructure:"rules_file"`
	ReposYAML           string `mapstructure:"repos_yaml"`
	EUPSPkgroot         string `mapstructure:"eups_pkgroot"`
	JiraURL             string `mapstructure:"jira_url"`
	OutputDir           string `mapstructure:"output_dir"`
	LogFile             string `mapstructure:"log_file"`
	GitHubHost          string `mapstructure:"github_host"`
	// LocalDir reads history from clones under this directory instead of GitHub
	LocalDir string `mapstructure:"local_dir"`
	Verbose  bool   `mapstructure:"verbose"`
}

// SetDefaults registers the built-in defaults with viper
func SetDefaults() {
	viper.SetDefault("workers", 5)
	viper.SetDefault("retries", 5)
	viper.SetDefault("merge_candidates", true)
	viper.SetDefault("merge_first_candidate", false)
	viper.SetDefault("rules_file", "")
	viper.SetDefault("repos_yaml", DefaultReposYAML)
	viper.SetDefault("eups_pkgroot", DefaultEUPSPkgroot)
	viper.SetDefault("jira_url", DefaultJiraURL)
	viper.SetDefault("output_dir", "source")
	viper.SetDefault("log_file", "")
	viper.SetDefault("github_host", "")
	viper.SetDefault("local_dir", "")
	viper.SetDefault("verbose", false)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	return nil
}
