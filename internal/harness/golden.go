package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/canon"
)

// snapshot is the canonical form of a result stored in golden files.
// Parse error messages embed temporary paths, so only their code is kept.
func snapshot(name string, r *Result) map[string]any {
	violations := make([]any, len(r.Violations))
	for i, v := range r.Violations {
		violations[i] = map[string]any{"code": v.Code, "message": v.Message}
	}
	out := map[string]any{
		"name":       name,
		"valid":      r.Valid,
		"violations": violations,
	}
	if r.ParseError != "" {
		out["parse_error"] = r.ParseError
	}
	return out
}

// RunWithGolden runs a case and compares its canonical outcome against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, c *Case) (*Result, error) {
	t.Helper()

	result, err := Run(c)
	if err != nil {
		return nil, err
	}

	data, err := canon.Marshal(snapshot(c.Name, result))
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, c.Name, data)

	return result, nil
}
