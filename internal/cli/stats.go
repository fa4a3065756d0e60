package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/stats"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <dir> <name>",
		Short: "Print size and processing-time statistics of an instance",
		Long: `Print the size of an instance and the distribution of its cast lengths,
due dates and per-stage processing times. Standard deviations are sample
standard deviations.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, dir, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	inst, err := instance.Load(dir, name, opts.loadOptions(opts.logger(cmd.ErrOrStderr()))...)
	if err != nil {
		return loadFailed(formatter, name, err)
	}

	s := stats.Summarize(inst)
	if formatter.Format == "json" {
		return formatter.Success(s)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Instance %s\n", s.Name)
	fmt.Fprintf(w, "  stages=%d machines=%d casts=%d charges=%d\n", s.Stages, s.Machines, s.Casts, s.Charges)
	fmt.Fprintf(w, "  cast length: %s\n", formatDist(s.CastLength))
	fmt.Fprintf(w, "  due date: %s\n", formatDist(s.DueDate))
	for _, st := range s.PerStage {
		fmt.Fprintf(w, "  stage %s: machines=%d charges=%d pt %s\n", st.Stage, st.Machines, st.Charges, formatDist(st.Times))
	}
	return nil
}

func formatDist(d stats.Dist) string {
	return fmt.Sprintf("n=%d min=%g max=%g mean=%.3f sd=%.3f", d.Count, d.Min, d.Max, d.Mean, d.StdDev)
}
