package seeder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/traversal"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

func samplePlan() *Plan {
	return &Plan{
		Name: "ana-bea",
		Entities: []EntitySpec{
			{Ref: "ana", Label: "pessoa", Key: "nome", Value: "Ana", Properties: map[string]any{"idade": 30}},
			{Ref: "bea", Label: "pessoa", Key: "nome", Value: "Bea"},
			{Ref: "acme", Label: "empresa", Key: "nome", Value: "Acme"},
		},
		Relationships: []RelationshipSpec{
			{From: "ana", Label: "casado_com", To: "bea", Symmetric: true},
			{From: "ana", Label: "trabalha_para", To: "acme", Properties: map[string]any{"desde": 2019}},
		},
	}
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr string
	}{
		{name: "valid", mutate: func(p *Plan) {}},
		{name: "missing ref", mutate: func(p *Plan) { p.Entities[0].Ref = "" }, wantErr: "has no ref"},
		{name: "duplicate ref", mutate: func(p *Plan) { p.Entities[1].Ref = "ana" }, wantErr: "duplicate entity ref"},
		{name: "unknown source", mutate: func(p *Plan) { p.Relationships[0].From = "carla" }, wantErr: "unknown source"},
		{name: "unknown target", mutate: func(p *Plan) { p.Relationships[1].To = "globex" }, wantErr: "unknown target"},
		{name: "bad label", mutate: func(p *Plan) { p.Entities[2].Label = "em presa" }, wantErr: "entity \"acme\""},
		{name: "bad edge label", mutate: func(p *Plan) { p.Relationships[0].Label = "casado-com" }, wantErr: "relationship 0"},
		{name: "nil key value", mutate: func(p *Plan) { p.Entities[0].Value = nil }, wantErr: "no value"},
		{name: "key overwrite", mutate: func(p *Plan) { p.Entities[0].Properties["nome"] = "Outra" }, wantErr: "key property"},
		{name: "nested property", mutate: func(p *Plan) {
			p.Relationships[1].Properties["meta"] = map[string]any{"a": 1}
		}, wantErr: "non-scalar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePlan()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, types.DATASET_INVALID, types.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPlan_EdgeCount(t *testing.T) {
	assert.Equal(t, 3, samplePlan().EdgeCount())
	assert.Equal(t, 0, (&Plan{}).EdgeCount())
}

func TestSeeder_Apply(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendNeo4j)
	conn.SetResponder(idResponder())

	s, err := New(conn)
	require.NoError(t, err)

	handles, summary, err := s.Apply(context.Background(), samplePlan(), ApplyOptions{Clear: true, EnsureUniqueKeys: true})
	require.NoError(t, err)

	assert.Len(t, handles, 3)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "ana-bea", summary.Plan)
	assert.True(t, summary.Cleared)
	assert.Equal(t, 2, summary.UniqueKeys)
	assert.Equal(t, 3, summary.Entities)
	assert.Equal(t, 3, summary.Edges)

	var order []string
	for _, q := range conn.Queries() {
		order = append(order, q.Name)
	}
	assert.Equal(t, []string{
		traversal.OpClearAll,
		traversal.OpEnsureUniqueKey,
		traversal.OpEnsureUniqueKey,
		traversal.OpUpsertEntity,
		traversal.OpUpsertEntity,
		traversal.OpUpsertEntity,
		traversal.OpCreateRelationship,
		traversal.OpCreateRelationship,
		traversal.OpCreateRelationship,
	}, order)

	edges := conn.QueriesByName(traversal.OpCreateRelationship)
	ana, bea := handles["ana"].String(), handles["bea"].String()
	assert.Equal(t, ana, edges[0].Params["fromId"])
	assert.Equal(t, bea, edges[0].Params["toId"])
	assert.Equal(t, bea, edges[1].Params["fromId"])
	assert.Equal(t, ana, edges[1].Params["toId"])
}

func TestSeeder_Apply_NoClear(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)
	conn.SetResponder(idResponder())
	s, err := New(conn)
	require.NoError(t, err)

	_, summary, err := s.Apply(context.Background(), samplePlan(), ApplyOptions{})
	require.NoError(t, err)
	assert.False(t, summary.Cleared)
	assert.Empty(t, conn.QueriesByName(traversal.OpClearAll))
	assert.Empty(t, conn.QueriesByName(traversal.OpEnsureUniqueKey))
}

func TestSeeder_Apply_StopsOnFailure(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)
	conn.AddResult(int64(1))
	conn.AddResult(int64(2))
	conn.AddResult(int64(3))
	conn.AddResult() // first edge: endpoint lookup empty

	s, err := New(conn)
	require.NoError(t, err)

	handles, summary, err := s.Apply(context.Background(), samplePlan(), ApplyOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDanglingReference)
	assert.Nil(t, handles)
	assert.Equal(t, 3, summary.Entities)
	assert.Equal(t, 0, summary.Edges)
	assert.Len(t, conn.Queries(), 4)
}

func TestSeeder_Apply_InvalidPlan(t *testing.T) {
	conn := graph.NewMockConn(graph.BackendGremlin)
	s, err := New(conn)
	require.NoError(t, err)

	p := samplePlan()
	p.Relationships[0].To = "nobody"
	_, _, err = s.Apply(context.Background(), p, ApplyOptions{Clear: true})
	assert.Equal(t, types.DATASET_INVALID, types.CodeOf(err))
	assert.Empty(t, conn.Queries())
}

const planYAML = `
name: ana-bea
entities:
  - ref: ana
    label: pessoa
    key: nome
    value: Ana
    properties:
      idade: 30
  - ref: bea
    label: pessoa
    key: nome
    value: Bea
relationships:
  - from: ana
    label: casado_com
    to: bea
    symmetric: true
`

func TestLoadPlan(t *testing.T) {
	p, err := LoadPlan(strings.NewReader(planYAML))
	require.NoError(t, err)
	assert.Equal(t, "ana-bea", p.Name)
	require.Len(t, p.Entities, 2)
	assert.Equal(t, 30, p.Entities[0].Properties["idade"])
	assert.Equal(t, graph.EntityKey{Label: "pessoa", Property: "nome", Value: "Bea"}, p.Entities[1].EntityKey())
	assert.True(t, p.Relationships[0].Symmetric)
	assert.Equal(t, 2, p.EdgeCount())
}

func TestLoadPlan_Errors(t *testing.T) {
	_, err := LoadPlan(strings.NewReader("entities: [unclosed"))
	assert.Equal(t, types.DATASET_LOAD_FAILED, types.CodeOf(err))

	_, err = LoadPlan(strings.NewReader("name: x\nvertices: []\n"))
	assert.Equal(t, types.DATASET_LOAD_FAILED, types.CodeOf(err))

	_, err = LoadPlan(strings.NewReader("relationships:\n  - {from: a, label: x, to: b}\n"))
	assert.Equal(t, types.DATASET_INVALID, types.CodeOf(err))
}

func TestLoadPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o644))

	p, err := LoadPlanFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Entities, 2)

	_, err = LoadPlanFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, types.DATASET_LOAD_FAILED, types.CodeOf(err))
}
