// Package tag parses and classifies raw version-control tag names.
//
// A tag name is classified into exactly one Kind:
//   - weekly tags such as w.2023.05 or w_2023_05
//   - daily tags such as w.2023.05.12 or d_2023_05_12
//   - regular tags such as v23.0.1, 23.0.1.rc2 or v12_1
//   - the main/master sentinel
//
// Names that fail the grammar, fall outside the allowed major range, or appear
// on the discard list are invalid. Every valid tag carries an ordering key so
// tags of one kind sort chronologically (weekly, daily) or semantically
// (regular), with the main sentinel after everything.
package tag
