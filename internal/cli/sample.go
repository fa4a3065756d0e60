package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/metadata"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/sampler"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Metadata string
	Seed     uint64
	OutDir   string
	As       string
}

// SampleResult describes a written sub-instance.
type SampleResult struct {
	Source      string           `json:"source"`
	Instance    string           `json:"instance"`
	Seed        uint64           `json:"seed"`
	Casts       []string         `json:"casts"`
	Charges     int              `json:"charges"`
	Fingerprint string           `json:"fingerprint"`
	Files       instance.FileSet `json:"files"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <dir> <name>",
		Short: "Cut a smaller instance out of an existing one",
		Long: `Pick a random contiguous run of casts from instance <name> whose size
satisfies the limits of a metadata file (cast_lth_min/max and either
cast_count_min/max or charge_count_min/max) and write it as a new
instance. The same seed always picks the same casts.

Examples:
  scc sample testdata/instances scc_01 --metadata testdata/instances/input_metadata.json --seed 7 --out /tmp/sub --as sub_01`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Metadata, "metadata", "", "metadata file with the size limits (required)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&opts.As, "as", "", "name of the new instance (default <name>_sample)")
	_ = cmd.MarkFlagRequired("metadata")

	return cmd
}

func runSample(opts *SampleOptions, dir, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger(cmd.ErrOrStderr())

	m, err := metadata.Load(opts.Metadata)
	if err != nil {
		_ = formatter.Error(ErrCodeMetadata, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load metadata", err)
	}
	limits, err := m.Limits()
	if err != nil {
		_ = formatter.Error(ErrCodeMetadata, err.Error(), nil)
		return WrapExitError(ExitCommandError, "size limits", err)
	}

	src, err := instance.Load(dir, name, append(m.Options(), opts.loadOptions(log)...)...)
	if err != nil {
		return loadFailed(formatter, name, err)
	}

	as := opts.As
	if as == "" {
		as = name + "_sample"
	}
	sub, err := sampler.Sample(src, as, limits, opts.Seed)
	if err != nil {
		code, exit := ErrCodeGeneric, ExitCommandError
		if errors.Is(err, sampler.ErrNoWindow) {
			code, exit = ErrCodeSampleFailed, ExitFailure
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(exit, "sample", err)
	}

	files, err := instance.Write(opts.OutDir, as, sub, m.Options()...)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "write sample", err)
	}
	fp, err := sub.Fingerprint()
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprint", err)
	}
	log.Info().Str("source", name).Str("instance", as).Uint64("seed", opts.Seed).Msg("sample written")

	result := SampleResult{
		Source:      name,
		Instance:    as,
		Seed:        opts.Seed,
		Casts:       sub.CastIDs(),
		Charges:     len(sub.Charges()),
		Fingerprint: fp,
		Files:       files,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ wrote %s (%d casts, %d charges) to %s\n", as, len(result.Casts), result.Charges, opts.OutDir)
	return nil
}
