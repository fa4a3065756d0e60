package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // case filter (glob pattern)
}

// CaseResult holds the result of a single case.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases-dir>",
		Short: "Run YAML validation cases",
		Long: `Run every *.yaml validation case in a directory. Each case inlines
the four instance files and states the expected outcome.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid case files, etc.)

Examples:
  scc test internal/harness/testdata/cases
  scc test internal/harness/testdata/cases --filter "missing-*"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern on the case name")

	return cmd
}

func runTests(opts *TestOptions, casesDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cases, err := harness.LoadCases(casesDir)
	if err != nil {
		_ = formatter.Error(ErrCodeCasesFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load cases", err)
	}

	result := TestResult{Cases: []CaseResult{}}
	for _, c := range cases {
		if opts.Filter != "" {
			matched, err := filepath.Match(opts.Filter, c.Name)
			if err != nil {
				_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("invalid filter pattern: %v", err), nil)
				return WrapExitError(ExitCommandError, "invalid filter pattern", err)
			}
			if !matched {
				continue
			}
		}

		cr := runCase(c)
		result.Cases = append(result.Cases, cr)
		result.Total++
		if cr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	var exitErr error
	if result.Failed > 0 {
		exitErr = NewExitError(ExitFailure, fmt.Sprintf("%d of %d case(s) failed", result.Failed, result.Total))
	}

	if formatter.Format == "json" {
		if exitErr != nil {
			if err := formatter.Failure(result, ErrCodeInvalidCases, exitErr.Error()); err != nil {
				return err
			}
			return exitErr
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No cases found.")
		return nil
	}
	for _, cr := range result.Cases {
		if cr.Pass {
			fmt.Fprintf(w, "✓ %s\n", cr.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", cr.Name)
		for _, e := range cr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	return exitErr
}

func runCase(c *harness.Case) CaseResult {
	r, err := harness.Run(c)
	if err != nil {
		return CaseResult{Name: c.Name, Errors: []string{fmt.Sprintf("execution failed: %v", err)}}
	}
	diffs := harness.Check(c, r)
	return CaseResult{Name: c.Name, Pass: len(diffs) == 0, Errors: diffs}
}
