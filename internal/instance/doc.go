// Package instance loads and validates steelmaking-continuous casting (SCC)
// scheduling instances.
//
// An instance is four correlated files sharing a name prefix:
//
//	<name>_mc_env.json   stage_seq plus stage id -> machine ids
//	<name>_cast.json     cast_seq plus cast id -> ordered charge ids
//	<name>_duedate.json  charge id -> integer due date
//	<name>_pt.csv        ch_id,mc_id,pt rows (one per charge and machine)
//
// Loading is a one-shot synchronous read. Malformed files fail with
// *ParseError; cross-file inconsistencies fail with
// *ReferentialIntegrityError carrying every Violation found (or only the
// first in ModeFailFast).
//
// The invariants checked across files:
//   - every cast charge has a due date and a processing time at every
//     required stage
//   - charge ids are unique within a cast
//   - casts partition the charge set
//   - every processing-time row names a known charge and machine and is >= 0
//
// A loaded *Instance is immutable: accessors return copies.
package instance
