package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	FailFast bool
	Encoding string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Instance    string               `json:"instance"`
	Valid       bool                 `json:"valid"`
	Routing     string               `json:"routing"`
	Fingerprint string               `json:"fingerprint,omitempty"`
	Stages      int                  `json:"stages,omitempty"`
	Machines    int                  `json:"machines,omitempty"`
	Casts       int                  `json:"casts,omitempty"`
	Charges     int                  `json:"charges,omitempty"`
	Violations  []instance.Violation `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <dir> <name>",
		Short: "Load an instance and check cross-file integrity",
		Long: `Load the four files of instance <name> from <dir> and check that they
agree: every cast charge has a due date and a processing time at each
required stage, casts partition the charges, and every row refers to a
known machine.

Exit codes:
  0 - Instance valid
  1 - Instance invalid (malformed file or integrity violations)
  2 - Command error (missing files, etc.)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "report only the first violation")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", instance.DefaultEncoding, "text encoding of the instance files")

	return cmd
}

func runValidate(opts *ValidateOptions, dir, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger(cmd.ErrOrStderr())

	mode := instance.ModeCollectAll
	if opts.FailFast {
		mode = instance.ModeFailFast
	}
	loadOpts := append(opts.loadOptions(log), instance.WithMode(mode), instance.WithEncoding(opts.Encoding))

	formatter.VerboseLog("Loading %s from %s", name, dir)
	inst, err := instance.Load(dir, name, loadOpts...)
	if err != nil {
		var rerr *instance.ReferentialIntegrityError
		if errors.As(err, &rerr) && len(rerr.Violations) > 0 {
			return outputViolations(formatter, ValidationResult{
				Instance:   name,
				Routing:    opts.routing().String(),
				Violations: rerr.Violations,
			})
		}
		return loadFailed(formatter, name, err)
	}

	fp, err := inst.Fingerprint()
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprint", err)
	}
	result := ValidationResult{
		Instance:    name,
		Valid:       true,
		Routing:     inst.Routing.String(),
		Fingerprint: fp,
		Stages:      len(inst.Stages()),
		Machines:    inst.MachineCount(),
		Casts:       len(inst.CastIDs()),
		Charges:     len(inst.Charges()),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s valid (%d stages, %d machines, %d casts, %d charges)\n",
		name, result.Stages, result.Machines, result.Casts, result.Charges)
	return nil
}

func outputViolations(formatter *OutputFormatter, result ValidationResult) error {
	n := len(result.Violations)
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("%s: %d violation(s)", result.Instance, n))

	if formatter.Format == "json" {
		first := result.Violations[0]
		if err := formatter.Failure(result, first.Code, first.Message); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "✗ %s invalid (%d violation(s))\n\n", result.Instance, n)
	for _, v := range result.Violations {
		fmt.Fprintf(formatter.Writer, "  %s [%s] %s\n", v.Code, v.File, v.Message)
	}
	return exitErr
}
