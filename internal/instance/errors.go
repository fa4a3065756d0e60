package instance

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Parse error codes (E200-E299).
const (
	ErrCodeFileUnreadable = "E201" // file missing or unreadable
	ErrCodeMalformed      = "E202" // not valid JSON / CSV
	ErrCodeSchema         = "E203" // JSON shape does not match the schema
	ErrCodeNoStageSeq     = "E204" // stage_seq missing or empty
	ErrCodeNoCastSeq      = "E205" // cast_seq missing or empty
	ErrCodeBadHeader      = "E206" // processing-time header lacks a column
	ErrCodeBadTime        = "E207" // processing time is not an integer
	ErrCodeDuplicateRow   = "E208" // repeated (charge, machine) row
	ErrCodeEncoding       = "E209" // text encoding unknown or undecodable
)

// Referential integrity codes (E300-E399).
const (
	ErrCodeStageNoMachines  = "E301" // stage in stage_seq has no machines
	ErrCodeMachineTwice     = "E302" // machine listed more than once
	ErrCodeUnlistedStage    = "E303" // stage key not in stage_seq
	ErrCodeCastKey          = "E304" // cast_seq and cast keys disagree
	ErrCodeDuplicateInCast  = "E305" // charge repeated within a cast
	ErrCodeChargeInTwoCasts = "E306" // charge in more than one cast
	ErrCodeNoDueDate        = "E307" // cast charge without due date
	ErrCodeUnknownDueCharge = "E308" // due date for a charge in no cast
	ErrCodeUnknownMachine   = "E309" // pt row names an unknown machine
	ErrCodeUnknownPTCharge  = "E310" // pt row names a charge in no cast
	ErrCodeMissingTime      = "E311" // no pt for a required stage
	ErrCodeNegativeTime     = "E312" // pt < 0
	ErrCodeEmptyCast        = "E313" // cast without charges
	ErrCodeEmptyRoute       = "E314" // charge visits no stage
	ErrCodeDuplicateStage   = "E315" // stage repeated in stage_seq
	ErrCodeDuplicateCast    = "E316" // cast repeated in cast_seq
)

// ParseError reports a file that could not be read or decoded.
type ParseError struct {
	Kind FileKind
	File string // path as given to the loader
	Code string
	Line int // 1-based, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	return fmt.Sprintf("%s: %s file %s: %v", e.Code, e.Kind, loc, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Violation is one broken cross-file invariant.
type Violation struct {
	Code    string   `json:"code"`
	File    FileKind `json:"file"`
	Cast    string   `json:"cast,omitempty"`
	Charge  string   `json:"charge,omitempty"`
	Stage   string   `json:"stage,omitempty"`
	Machine string   `json:"machine,omitempty"`
	Message string   `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// ReferentialIntegrityError carries the violations of one instance.
type ReferentialIntegrityError struct {
	Instance   string
	Violations []Violation
}

func (e *ReferentialIntegrityError) Error() string {
	var b strings.Builder
	if e.Instance != "" {
		fmt.Fprintf(&b, "instance %s: ", e.Instance)
	}
	switch len(e.Violations) {
	case 0:
		b.WriteString("referential integrity violated")
	case 1:
		b.WriteString(e.Violations[0].Error())
	default:
		fmt.Fprintf(&b, "%d referential integrity violations, first: %s", len(e.Violations), e.Violations[0].Error())
	}
	return b.String()
}

// Codes returns the violation codes in report order.
func (e *ReferentialIntegrityError) Codes() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Code
	}
	return out
}

func sortViolations(vs []Violation) {
	slices.SortStableFunc(vs, func(a, b Violation) int {
		return cmp.Or(
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Cast, b.Cast),
			cmp.Compare(a.Charge, b.Charge),
			cmp.Compare(a.Stage, b.Stage),
			cmp.Compare(a.Machine, b.Machine),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
