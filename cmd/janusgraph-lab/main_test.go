package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobarbosa/janusgraph-lab/cmd/janusgraph-lab/internal"
	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/traversal"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

type runResult struct {
	stdout string
	stderr string
	code   int
}

// runCLI executes args against conn with an isolated HOME.
func runCLI(t *testing.T, conn *graph.MockConn, args ...string) runResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	dial := func(ctx context.Context, cfg graph.ClientConfig) (graph.Conn, error) {
		if conn == nil {
			return nil, types.NewRetryableError(types.STORE_UNAVAILABLE, "connection refused")
		}
		return conn, nil
	}

	c := newCLI(dial)
	var stdout, stderr bytes.Buffer
	c.root.SetOut(&stdout)
	c.root.SetErr(&stderr)
	c.root.SetArgs(args)

	err := c.Execute(context.Background())
	return runResult{
		stdout: stdout.String(),
		stderr: stderr.String(),
		code:   internal.HandleError(c.root, err),
	}
}

func seedResponder() graph.Responder {
	var next atomic.Int64
	return func(q graph.Query) (graph.ResultSet, error) {
		switch q.Name {
		case traversal.OpUpsertEntity, traversal.OpCreateRelationship:
			return graph.ResultSet{next.Add(1)}, nil
		default:
			return graph.ResultSet{}, nil
		}
	}
}

func TestSeedCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantClear  int
		wantOutput string
	}{
		{
			name:       "clears by default",
			args:       []string{"seed"},
			wantClear:  1,
			wantOutput: `Seeded "demo": 15 entities, 15 edges (graph cleared`,
		},
		{
			name:       "no-clear keeps data",
			args:       []string{"seed", "--no-clear"},
			wantClear:  0,
			wantOutput: "kept existing data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := graph.NewMockConn(graph.BackendGremlin)
			conn.SetResponder(seedResponder())

			res := runCLI(t, conn, tt.args...)

			require.Equal(t, internal.ExitSuccess, res.code, res.stderr)
			assert.Contains(t, res.stdout, tt.wantOutput)
			assert.Len(t, conn.QueriesByName(traversal.OpClearAll), tt.wantClear)
			assert.Len(t, conn.QueriesByName(traversal.OpUpsertEntity), 15)
			assert.Len(t, conn.QueriesByName(traversal.OpCreateRelationship), 15)
			assert.Equal(t, 1, conn.CloseCount())
		})
	}
}

func TestSeedCommand_JSONOutput(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)
	conn.SetResponder(seedResponder())

	res := runCLI(t, conn, "seed", "--output", "json")
	require.Equal(t, internal.ExitSuccess, res.code, res.stderr)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &summary))
	assert.Equal(t, "demo", summary["plan"])
	assert.EqualValues(t, 15, summary["entities"])
	assert.EqualValues(t, 15, summary["edges"])
	assert.NotEmpty(t, summary["run_id"])
}

func TestSeedCommand_Failures(t *testing.T) {
	t.Run("store unavailable", func(t *testing.T) {
		res := runCLI(t, nil, "seed")
		assert.Equal(t, internal.ExitStoreUnavailable, res.code)
		assert.Contains(t, res.stderr, "connection refused")
	})

	t.Run("dangling reference", func(t *testing.T) {
		conn := graph.NewMockConn(graph.BackendGremlin)
		conn.SetResponder(func(q graph.Query) (graph.ResultSet, error) {
			if q.Name == traversal.OpUpsertEntity {
				return graph.ResultSet{int64(1)}, nil
			}
			return graph.ResultSet{}, nil
		})

		res := runCLI(t, conn, "seed")
		assert.Equal(t, internal.ExitDanglingReference, res.code)
		assert.Equal(t, 1, conn.CloseCount(), "connection released on failure")
	})

	t.Run("query rejected", func(t *testing.T) {
		conn := graph.NewMockConn(graph.BackendGremlin)
		conn.AddError(types.NewError(types.QUERY_REJECTED, "syntax error"))

		res := runCLI(t, conn, "seed")
		assert.Equal(t, internal.ExitQueryRejected, res.code)
	})

	t.Run("bad dataset file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: x\nbogus: true\n"), 0o600))

		res := runCLI(t, graph.NewMockConn(graph.BackendGremlin), "seed", "--dataset", path)
		assert.Equal(t, internal.ExitDatasetError, res.code)
	})
}

func TestSeedCommand_DatasetFile(t *testing.T) {
	plan := `name: tiny
entities:
  - {ref: a, label: pessoa, key: nome, value: Ana}
  - {ref: b, label: pessoa, key: nome, value: Bea}
relationships:
  - {from: a, label: e_amigo_de, to: b}
`
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0o600))

	conn := graph.NewMockConn(graph.BackendGremlin)
	conn.SetResponder(seedResponder())

	res := runCLI(t, conn, "seed", "--dataset", path)
	require.Equal(t, internal.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, `Seeded "tiny": 2 entities, 1 edges`)
}

func TestVerifyCommand_Mismatch(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)
	conn.SetResponder(func(q graph.Query) (graph.ResultSet, error) {
		return graph.ResultSet{}, nil
	})

	res := runCLI(t, conn, "verify")

	assert.Equal(t, internal.ExitVerifyFailed, res.code)
	assert.Contains(t, res.stdout, "=== 1) ")
	assert.Contains(t, res.stdout, "[MISMATCH]")
	assert.Contains(t, res.stderr, "checks failed")
	assert.Equal(t, 1, conn.CloseCount())
}

func TestVerifyCommand_MaxHops(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)
	conn.SetResponder(func(q graph.Query) (graph.ResultSet, error) {
		return graph.ResultSet{}, nil
	})

	runCLI(t, conn, "verify", "--max-hops", "2")

	paths := conn.QueriesByName(traversal.OpFindPaths)
	require.NotEmpty(t, paths)
	for _, q := range paths {
		assert.Equal(t, 2, q.Params["maxHops"])
	}
}

func TestVerifyCommand_InvalidMaxHops(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)

	res := runCLI(t, conn, "verify", "--max-hops", "0")

	assert.Equal(t, internal.ExitInvalidArgument, res.code)
	assert.Empty(t, conn.Queries())
}

func TestStatusCommand(t *testing.T) {
	tests := []struct {
		name     string
		conn     func() *graph.MockConn
		wantCode int
		wantText string
	}{
		{
			name:     "healthy",
			conn:     func() *graph.MockConn { return graph.NewMockConn(graph.BackendGremlin) },
			wantCode: internal.ExitSuccess,
			wantText: "✓ gremlin",
		},
		{
			name: "unhealthy",
			conn: func() *graph.MockConn {
				c := graph.NewMockConn(graph.BackendGremlin)
				c.SetHealthStatus(types.Unhealthy("probe failed"))
				return c
			},
			wantCode: internal.ExitStoreUnavailable,
			wantText: "probe failed",
		},
		{
			name:     "unreachable",
			conn:     func() *graph.MockConn { return nil },
			wantCode: internal.ExitStoreUnavailable,
			wantText: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.conn(), "status")
			assert.Equal(t, tt.wantCode, res.code)
			assert.Contains(t, res.stdout, tt.wantText)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, nil, "version", "-o", "json")
	require.Equal(t, internal.ExitSuccess, res.code, res.stderr)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, "janusgraph-lab", info["name"])
}

func TestGlobalFlags_InvalidOutput(t *testing.T) {
	res := runCLI(t, nil, "status", "--output", "xml")
	assert.Equal(t, internal.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "invalid --output")
}

func TestConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: orientdb\n"), 0o600))

	res := runCLI(t, graph.NewMockConn(graph.BackendGremlin), "status", "--config", path)
	assert.Equal(t, internal.ExitConfigError, res.code)
}
