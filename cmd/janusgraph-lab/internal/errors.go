package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Exit codes
const (
	ExitSuccess           = 0
	ExitError             = 1
	ExitVerifyFailed      = 2
	ExitTimeout           = 3
	ExitCancelled         = 4
	ExitConfigError       = 10
	ExitStoreUnavailable  = 12
	ExitQueryRejected     = 13
	ExitDatasetError      = 14
	ExitDanglingReference = 15
	ExitInvalidArgument   = 16
)

// CLIError is an error carrying its own exit code.
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a CLIError without a cause.
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapError creates a CLIError wrapping err.
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Cause: err}
}

// HandleError prints err to the command's error output and returns the exit
// code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verbose(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	cmd.PrintErrln("Error:", err)
	if types.IsRetryable(err) {
		cmd.PrintErrln("The graph store may be starting up; retry once it is reachable.")
	}
	return ExitCodeFor(err)
}

// ExitCodeFor maps a coded error onto an exit code.
func ExitCodeFor(err error) int {
	switch types.CodeOf(err) {
	case "":
		return ExitError
	case types.STORE_UNAVAILABLE:
		return ExitStoreUnavailable
	case types.QUERY_REJECTED, types.RESULT_DECODE_FAILED:
		return ExitQueryRejected
	case types.DANGLING_REFERENCE:
		return ExitDanglingReference
	case types.CONFIG_LOAD_FAILED, types.CONFIG_VALIDATION_FAILED, graph.ErrCodeGraphInvalidConfig:
		return ExitConfigError
	case types.DATASET_LOAD_FAILED, types.DATASET_INVALID:
		return ExitDatasetError
	case types.INVALID_IDENTIFIER, types.INVALID_ARGUMENT:
		return ExitInvalidArgument
	default:
		return ExitError
	}
}

func verbose(cmd *cobra.Command) bool {
	f := cmd.Flag("verbose")
	return f != nil && f.Changed
}
