package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/harness"
)

func TestFormatters(t *testing.T) {
	var buf bytes.Buffer

	text := NewFormatter(FormatText, &buf)
	require.NoError(t, text.PrintSuccess("seeded"))
	require.NoError(t, text.PrintError("failed"))
	assert.Equal(t, "✓ seeded\n✗ failed\n", buf.String())

	buf.Reset()
	js := NewFormatter(FormatJSON, &buf)
	require.NoError(t, js.PrintResult(map[string]int{"edges": 15}, func(w io.Writer) error {
		t.Fatal("json formatter must not render text")
		return nil
	}))
	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 15, got["edges"])
}

func TestWriteReport(t *testing.T) {
	count := int64(15)
	report := &harness.Report{
		Battery:  "demo",
		Duration: 42 * time.Millisecond,
		Results: []harness.CheckResult{
			{Name: "vertex_count", Title: "Contagem de vértices", Kind: harness.KindCountVertices, Status: harness.StatusOK, Count: &count},
			{Name: "socios", Kind: harness.KindFindIncoming, Status: harness.StatusMismatch, Values: []any{"Ana"}, Detail: "want [Ana Bea]"},
			{Name: "paths", Title: "Caminhos", Kind: harness.KindFindPaths, Status: harness.StatusOK, Paths: []graph.Path{{
				Steps: []graph.PathStep{
					{ID: graph.NewID(int64(1)), Label: "pessoa", Display: "Carla"},
					{ID: graph.NewID(int64(2)), Label: "pessoa", Display: "Bruno"},
				},
			}}},
			{Name: "broken", Title: "Quebrado", Kind: harness.KindListByLabel, Status: harness.StatusError, Detail: "store unavailable"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "=== 1) Contagem de vértices ===\nTotal: 15\n")
	assert.Contains(t, out, "=== 2) socios ===\n - Ana\n[MISMATCH] want [Ana Bea]\n")
	assert.Contains(t, out, " - Carla -> Bruno (1 hops)\n")
	assert.Contains(t, out, "=== 4) Quebrado ===\n[ERROR] store unavailable\n")
	assert.Contains(t, out, "4 checks: 2 ok, 1 mismatched, 1 errored (42ms)")
}

func TestWriteReport_Empty(t *testing.T) {
	report := &harness.Report{Results: []harness.CheckResult{
		{Name: "none", Kind: harness.KindFindPaths, Status: harness.StatusOK},
		{Name: "nobody", Kind: harness.KindListByLabel, Status: harness.StatusOK},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))
	assert.Contains(t, buf.String(), "No paths found.")
	assert.Contains(t, buf.String(), "No results.")
}
