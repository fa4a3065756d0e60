package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/store"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	RunID string
}

// CatalogInstance is one catalogued instance with its violations.
type CatalogInstance struct {
	store.InstanceRecord
	Violations []instance.Violation `json:"violations,omitempty"`
}

// CatalogResult is the content of one catalogued run.
type CatalogResult struct {
	Run       store.Run         `json:"run"`
	Instances []CatalogInstance `json:"instances"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog <db>",
		Short: "List the instances recorded in a catalog run",
		Long: `List the instances recorded by "scc batch --db" in one run, with
the violations of the invalid ones. Shows the latest run unless --run
names another.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default: latest run)")

	return cmd
}

func runCatalog(opts *CatalogOptions, dbPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Open would create a fresh database.
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, "catalog not found", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open catalog", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	var run store.Run
	if opts.RunID != "" {
		run, err = st.GetRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if err != nil {
		code := ErrCodeCatalog
		if errors.Is(err, store.ErrNotFound) {
			code = ErrCodeNoRuns
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "find run", err)
	}

	records, err := st.ListInstances(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list instances", err)
	}

	result := CatalogResult{Run: run, Instances: make([]CatalogInstance, 0, len(records))}
	for _, rec := range records {
		ci := CatalogInstance{InstanceRecord: rec}
		if !rec.Valid {
			ci.Violations, err = st.ListViolations(ctx, run.ID, rec.Name)
			if err != nil {
				_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
				return WrapExitError(ExitCommandError, "list violations", err)
			}
		}
		result.Instances = append(result.Instances, ci)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %d %s\n", run.Seq, run.ID)
	fmt.Fprintf(w, "  source=%s routing=%s started=%s\n", run.Source, run.Routing, run.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	for _, ci := range result.Instances {
		if ci.Valid {
			fmt.Fprintf(w, "✓ %s %s\n", ci.Name, shortFingerprint(ci.Fingerprint))
			continue
		}
		fmt.Fprintf(w, "✗ %s %s\n", ci.Name, ci.ErrorCode)
		for _, v := range ci.Violations {
			fmt.Fprintf(w, "  %s %s\n", v.Code, v.Message)
		}
	}
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
