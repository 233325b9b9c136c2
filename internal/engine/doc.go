// Package engine reconciles fetched repository snapshots into a release timeline.
//
// It is the core of changelog, responsible for:
//   - Building per-repository release lineage and branch windows from tags
//   - Attributing merged pull requests to the tag whose window contains them
//   - Folding release-candidate tags into final releases
//   - Collecting merges that no tag bounds yet into an untagged bucket
//
// The engine performs no I/O. It runs as a single sequential pass over an
// immutable snapshot and always produces the same timeline for the same input.
package engine
