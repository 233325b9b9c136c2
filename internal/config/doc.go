// Package config provides runtime configuration for changelog runs,
// read from .changelog.yaml, CHANGELOG_* environment variables and flags,
// plus the TOML rules file holding the static tag and correction lists.
package config
