package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/metadata"
	"github.com/MSOLab/scc-process-scheduling-instances/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	DBPath    string
	CheckOnly bool
}

// BatchEntry is the outcome of one instance in a batch.
type BatchEntry struct {
	Name        string `json:"name"`
	Valid       bool   `json:"valid"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Charges     int    `json:"charges,omitempty"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
}

// BatchResult holds the outcome of a batch.
type BatchResult struct {
	Metadata  string       `json:"metadata"`
	RunID     string       `json:"run_id,omitempty"`
	Instances []BatchEntry `json:"instances"`
	Valid     int          `json:"valid"`
	Invalid   int          `json:"invalid"`
	Total     int          `json:"total"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <metadata>",
		Short: "Validate every instance listed in a metadata file",
		Long: `Validate every instance of input_index_list in a metadata file
(input_metadata.json or .yaml). SCC_* environment variables override
metadata keys, e.g. SCC_INPUT_DIRECTORY.

With --db the outcomes are recorded as a run in a SQLite catalog.
With --check-only the files are only decoded, without cross-file checks.

Exit codes:
  0 - All instances valid
  1 - One or more instances invalid
  2 - Command error (bad metadata, catalog error, etc.)

Examples:
  scc batch testdata/instances/input_metadata.json
  scc batch input_metadata.json --db catalog.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record the run in this catalog database")
	cmd.Flags().BoolVar(&opts.CheckOnly, "check-only", false, "only check that every input file can be read")

	return cmd
}

func runBatch(opts *BatchOptions, metadataPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger(cmd.ErrOrStderr())

	m, err := metadata.Load(metadataPath)
	if err != nil {
		_ = formatter.Error(ErrCodeMetadata, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load metadata", err)
	}
	formatter.VerboseLog("Instances from %s: %v", m.Dir(), m.InputIndexList)

	if opts.CheckOnly {
		if err := m.CheckInputReading(log); err != nil {
			_ = formatter.Error(ErrCodeUnreadableInput, err.Error(), nil)
			return WrapExitError(ExitFailure, "check input", err)
		}
		return outputCheckOnly(formatter, len(m.InputIndexList))
	}

	var (
		st  *store.Store
		run store.Run
	)
	if opts.DBPath != "" {
		st, err = store.Open(opts.DBPath)
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open catalog", err)
		}
		defer st.Close()

		run, err = st.BeginRun(cmd.Context(), metadataPath, opts.routing().String())
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "begin run", err)
		}
		log.Info().Str("run", run.ID).Int64("seq", run.Seq).Msg("run started")
	}

	result := BatchResult{Metadata: metadataPath, RunID: run.ID, Instances: []BatchEntry{}}
	err = m.Each(func(e metadata.Entry) error {
		entry := BatchEntry{Name: e.Name, Valid: e.Err == nil}
		if e.Err != nil {
			entry.Code, entry.Message, _ = describeLoadError(e.Err)
			log.Warn().Str("instance", e.Name).Str("code", entry.Code).Msg("instance invalid")
		} else {
			entry.Charges = len(e.Instance.Charges())
		}

		if st != nil {
			rec, err := st.RecordOutcome(cmd.Context(), run.ID, e.Name, e.Instance, e.Err)
			if err != nil {
				return err
			}
			entry.Fingerprint = rec.Fingerprint
			if rec.Valid {
				if err := logDuplicates(cmd, st, log, rec); err != nil {
					return err
				}
			}
		} else if e.Instance != nil {
			fp, err := e.Instance.Fingerprint()
			if err != nil {
				return err
			}
			entry.Fingerprint = fp
		}

		result.Instances = append(result.Instances, entry)
		result.Total++
		if entry.Valid {
			result.Valid++
		} else {
			result.Invalid++
		}
		return nil
	}, opts.loadOptions(log)...)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "batch", err)
	}

	return outputBatch(formatter, result)
}

// logDuplicates warns when a fingerprint was already catalogued under a
// different instance name.
func logDuplicates(cmd *cobra.Command, st *store.Store, log zerolog.Logger, rec store.InstanceRecord) error {
	same, err := st.FindByFingerprint(cmd.Context(), rec.Fingerprint)
	if err != nil {
		return err
	}
	for _, other := range same {
		if other.Name != rec.Name {
			log.Warn().
				Str("instance", rec.Name).
				Str("duplicate_of", other.Name).
				Str("run", other.RunID).
				Msg("identical instance content")
		}
	}
	return nil
}

func outputCheckOnly(formatter *OutputFormatter, n int) error {
	message := fmt.Sprintf("Reading all %d input files is OK", n)
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"instances": n, "message": message})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s\n", message)
	return nil
}

func outputBatch(formatter *OutputFormatter, result BatchResult) error {
	var exitErr error
	if result.Invalid > 0 {
		exitErr = NewExitError(ExitFailure, fmt.Sprintf("%d of %d instance(s) invalid", result.Invalid, result.Total))
	}

	if formatter.Format == "json" {
		if exitErr != nil {
			if err := formatter.Failure(result, ErrCodeBatchFailed, exitErr.Error()); err != nil {
				return err
			}
			return exitErr
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, e := range result.Instances {
		if e.Valid {
			fmt.Fprintf(w, "✓ %s (%d charges)\n", e.Name, e.Charges)
		} else {
			fmt.Fprintf(w, "✗ %s\n  %s\n", e.Name, e.Message)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d valid, %d invalid, %d total\n", result.Valid, result.Invalid, result.Total)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	return exitErr
}
