package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string
	Routing  string // "all" | "derived"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scc",
		Short: "SCC scheduling instance toolkit",
		Long: `Load, validate and inspect steelmaking-continuous casting (SCC)
scheduling instances.

An instance is four files sharing a name: <name>_mc_env.json,
<name>_cast.json, <name>_duedate.json and <name>_pt.csv.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, ok := instance.ParseRouting(opts.Routing); !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid routing %q: must be all or derived", opts.Routing))
			}
			if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
				return WrapExitError(ExitCommandError, "log level", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error), default $"+logging.EnvLevel+" or warn")
	cmd.PersistentFlags().StringVar(&opts.Routing, "routing", "all", "required stages per charge (all|derived)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewSampleCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// logger returns a logger writing to w. Verbose raises the default level
// to debug.
func (o *RootOptions) logger(w io.Writer) zerolog.Logger {
	level := o.LogLevel
	if level == "" && o.Verbose {
		level = "debug"
	}
	log, err := logging.New(w, "cli", logging.Config{Level: level, Console: o.Format != "json"})
	if err != nil {
		return zerolog.Nop()
	}
	return log
}

// routing returns the selected routing; an empty flag means all.
func (o *RootOptions) routing() instance.Routing {
	r, _ := instance.ParseRouting(o.Routing)
	return r
}

// loadOptions returns the loader options selected by the global flags.
func (o *RootOptions) loadOptions(log zerolog.Logger) []instance.Option {
	return []instance.Option{instance.WithRouting(o.routing()), instance.WithLogger(log)}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
