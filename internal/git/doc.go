// Package git reads release history from local clones with go-git.
//
// LocalSource serves the same data as the GitHub client, so a changelog can
// be built offline from a directory of clones:
//   - tags from refs/tags, honouring annotated tagger dates
//   - default branch from HEAD
//   - merged pull requests from GitHub merge commits on the default branch
//     and the release branches
package git
