// Package harness runs instance validation cases described in YAML.
//
// A case inlines the four instance files and states the expected outcome,
// so loader behaviour can be pinned down without maintaining directories of
// fixture files.
//
// # Case Format
//
//	name: missing-due-date
//	description: "A cast charge without a due date is rejected"
//	routing: all          # all | derived (default all)
//	mode: collect         # collect | fail-fast (default collect)
//	files:
//	  mc_env: |
//	    {"stage_seq": ["EAF", "CC"], "EAF": ["E1"], "CC": ["C1"]}
//	  cast: |
//	    {"cast_seq": ["CA1"], "CA1": ["CH1", "CH2"]}
//	  duedate: |
//	    {"CH1": 100}
//	  pt: |
//	    ch_id,mc_id,pt
//	    CH1,E1,60
//	expect:
//	  valid: false
//	  violations: [E307]
//
// A file left out of the files block is not written, which exercises the
// missing-file path. Expectations:
//   - valid: whether the load succeeds
//   - parse_error: expected ParseError code
//   - violations: expected violation codes, in report order
//   - charges: expected charge order of a valid instance
//
// # Golden Files
//
// RunWithGolden stores a canonical JSON snapshot of the outcome under
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
