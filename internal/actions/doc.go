// Package actions provides high-level business logic for CLI commands.
//
// Each action corresponds to a changelog command (weekly, regular, summary,
// tickets, rules) and orchestrates the eups, github, engine and render
// packages.
//
// Key patterns:
//   - Actions accept runtime.Context which provides Config, Rules, Splog and an HTTP client
//   - Fetching happens once up front; reconciliation runs on the finished snapshot
//   - Actions never print directly; all output goes through Splog
package actions
