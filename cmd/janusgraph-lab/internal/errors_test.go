package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), ExitError},
		{"store unavailable", types.NewError(types.STORE_UNAVAILABLE, "down"), ExitStoreUnavailable},
		{"query rejected", types.NewError(types.QUERY_REJECTED, "syntax"), ExitQueryRejected},
		{"decode failed", types.NewError(types.RESULT_DECODE_FAILED, "shape"), ExitQueryRejected},
		{"dangling", types.NewError(types.DANGLING_REFERENCE, "gone"), ExitDanglingReference},
		{"config load", types.NewError(types.CONFIG_LOAD_FAILED, "read"), ExitConfigError},
		{"graph config", types.NewError(graph.ErrCodeGraphInvalidConfig, "uri"), ExitConfigError},
		{"dataset", types.NewError(types.DATASET_INVALID, "ref"), ExitDatasetError},
		{"identifier", types.NewError(types.INVALID_IDENTIFIER, "label"), ExitInvalidArgument},
		{"wrapped", fmt.Errorf("entity %q: %w", "ana", types.NewError(types.DANGLING_REFERENCE, "x")), ExitDanglingReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStderr string
	}{
		{"nil", nil, ExitSuccess, ""},
		{"cancelled", fmt.Errorf("seed: %w", context.Canceled), ExitCancelled, "Operation cancelled"},
		{"timeout", context.DeadlineExceeded, ExitTimeout, "Operation timed out"},
		{"cli error", NewCLIError(ExitVerifyFailed, "2 of 8 checks failed"), ExitVerifyFailed, "Error: 2 of 8 checks failed"},
		{"retryable", types.NewRetryableError(types.STORE_UNAVAILABLE, "refused"), ExitStoreUnavailable, "retry once it is reachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			var stderr bytes.Buffer
			cmd.SetErr(&stderr)

			assert.Equal(t, tt.wantCode, HandleError(cmd, tt.err))
			if tt.wantStderr == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestCLIError(t *testing.T) {
	cause := types.NewError(types.QUERY_REJECTED, "bad")
	err := WrapError(ExitQueryRejected, "seed failed", cause)

	assert.Equal(t, "seed failed: [QUERY_REJECTED] bad", err.Error())
	assert.ErrorIs(t, err, types.ErrQueryRejected)
	assert.Equal(t, "plain", NewCLIError(ExitError, "plain").Error())
}
