package harness

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// caseInstanceName is the file prefix cases are written under.
const caseInstanceName = "case"

// Result is the observed outcome of a case.
type Result struct {
	Valid       bool
	ParseError  string
	Violations  []instance.Violation
	Charges     []string
	Fingerprint string
}

// Codes returns the violation codes in report order.
func (r *Result) Codes() []string {
	codes := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		codes[i] = v.Code
	}
	return codes
}

// Run writes the case files into a fresh temporary directory and loads them.
// Load failures are part of the Result; the returned error is reserved for
// problems running the case itself.
func Run(c *Case) (*Result, error) {
	dir, err := os.MkdirTemp("", "scc-case-*")
	if err != nil {
		return nil, fmt.Errorf("create case dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files := instance.DefaultNaming.FileSet(dir, caseInstanceName)
	for _, f := range []struct {
		path    string
		content string
	}{
		{files.MachineEnv, c.Files.MachineEnv},
		{files.Cast, c.Files.Cast},
		{files.DueDate, c.Files.DueDate},
		{files.ProcessingTime, c.Files.ProcessingTime},
	} {
		if f.content == "" {
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return nil, fmt.Errorf("write case file: %w", err)
		}
	}

	inst, loadErr := instance.LoadFiles(c.Name, files, c.options()...)
	if loadErr == nil {
		fp, err := inst.Fingerprint()
		if err != nil {
			return nil, err
		}
		return &Result{Valid: true, Charges: inst.Charges(), Fingerprint: fp}, nil
	}

	var perr *instance.ParseError
	var rerr *instance.ReferentialIntegrityError
	switch {
	case errors.As(loadErr, &perr):
		return &Result{ParseError: perr.Code}, nil
	case errors.As(loadErr, &rerr):
		return &Result{Violations: rerr.Violations}, nil
	default:
		return nil, fmt.Errorf("case %s: unexpected load error: %w", c.Name, loadErr)
	}
}

// Check compares a result with the case expectations and returns one
// message per mismatch.
func Check(c *Case, r *Result) []string {
	var diffs []string
	if r.Valid != c.Expect.Valid {
		diffs = append(diffs, fmt.Sprintf("valid: got %t, want %t", r.Valid, c.Expect.Valid))
	}
	if r.ParseError != c.Expect.ParseError {
		diffs = append(diffs, fmt.Sprintf("parse_error: got %q, want %q", r.ParseError, c.Expect.ParseError))
	}
	if got := r.Codes(); !slices.Equal(got, c.Expect.Violations) {
		diffs = append(diffs, fmt.Sprintf("violations: got %v, want %v", got, c.Expect.Violations))
	}
	if len(c.Expect.Charges) > 0 && !slices.Equal(r.Charges, c.Expect.Charges) {
		diffs = append(diffs, fmt.Sprintf("charges: got %v, want %v", r.Charges, c.Expect.Charges))
	}
	return diffs
}
