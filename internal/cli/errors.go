package cli

import (
	"errors"
	"fmt"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// Command error codes. Instance errors keep their own E2xx/E3xx codes.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeNotFound        = "E002" // Path not found
	ErrCodeMetadata        = "E003" // Metadata file invalid
	ErrCodeCatalog         = "E004" // Catalog open or query failed
	ErrCodeNoRuns          = "E005" // Catalog has no matching run
	ErrCodeWriteFailed     = "E006" // File write error
	ErrCodeSampleFailed    = "E007" // No sub-instance satisfies the limits
	ErrCodeCasesFailed     = "E008" // Case files could not be loaded
	ErrCodeInvalidCases    = "E009" // One or more cases failed
	ErrCodeBatchFailed     = "E010" // One or more batch instances invalid
	ErrCodeUnreadableInput = "E011" // Input file check failed
)

// describeLoadError maps an instance load error to a response code, a
// message and the exit code it warrants. A missing file is a command
// error; anything wrong with file contents makes the instance invalid.
func describeLoadError(err error) (code, message string, exit int) {
	var perr *instance.ParseError
	var rerr *instance.ReferentialIntegrityError
	switch {
	case errors.As(err, &perr):
		if perr.Code == instance.ErrCodeFileUnreadable {
			return perr.Code, perr.Error(), ExitCommandError
		}
		return perr.Code, perr.Error(), ExitFailure
	case errors.As(err, &rerr) && len(rerr.Violations) > 0:
		return rerr.Violations[0].Code, rerr.Error(), ExitFailure
	default:
		return ErrCodeGeneric, err.Error(), ExitCommandError
	}
}

// loadFailed reports a load error through f and returns the matching
// ExitError.
func loadFailed(f *OutputFormatter, name string, err error) error {
	code, message, exit := describeLoadError(err)
	_ = f.Error(code, message, nil)
	return WrapExitError(exit, fmt.Sprintf("load %s", name), err)
}
