// Package traversal composes the traversal requests issued by the seeder
// and the query harness. Each operation produces exactly one graph.Query.
//
// Caller-supplied values always travel as bound parameters. Labels, keys
// and property names are validated identifiers; the Gremlin dialect binds
// them as well, the Cypher dialect quotes them because Cypher cannot bind
// labels or property keys.
package traversal

import (
	"fmt"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// MaxPathHops is the largest hop bound FindPaths accepts. For a branching
// factor b the store expands at most b + b^2 + ... + b^k traversers for a
// bound k, so the bound has to stay small.
const MaxPathHops = 10

// Query names, shared by both dialects.
const (
	OpClearAll           = "clear_all"
	OpEnsureUniqueKey    = "ensure_unique_key"
	OpUpsertEntity       = "upsert_entity"
	OpCreateRelationship = "create_relationship"
	OpCountVertices      = "count_vertices"
	OpCountEdges         = "count_edges"
	OpListByLabel        = "list_by_label"
	OpFindIncoming       = "find_incoming"
	OpFindIncomingMulti  = "find_incoming_multi"
	OpFindPaths          = "find_paths"
)

// Dialect builds backend-specific queries.
type Dialect interface {
	Backend() graph.Backend

	// ClearAll drops every vertex and edge.
	ClearAll() graph.Query

	// EnsureUniqueKey returns a schema request enforcing uniqueness of
	// (label, key). ok is false when the dialect has no such request.
	EnsureUniqueKey(label, key string) (q graph.Query, ok bool, err error)

	// UpsertEntity looks up (label, key=value), creates it if absent,
	// writes every extra property and projects the identifier, all in one
	// request.
	UpsertEntity(label, key string, value any, extra map[string]any) (graph.Query, error)

	// CreateRelationship appends one edge from -> to and projects its
	// identifier. The result is empty when either endpoint is missing.
	CreateRelationship(from graph.ID, label string, to graph.ID, extra map[string]any) (graph.Query, error)

	CountVertices() graph.Query
	CountEdges() graph.Query
	ListByLabel(label, property string) (graph.Query, error)
	FindIncoming(target graph.EntityKey, edgeLabel, resultProperty string) (graph.Query, error)
	FindIncomingMulti(target graph.EntityKey, edgeLabels []string, resultProperty string) (graph.Query, error)

	// FindPaths projects every distinct simple path of 1..maxHops edges
	// over undirected adjacency from one entity to another. Each result is
	// a list of {id, label, display} step maps.
	FindPaths(from, to graph.EntityKey, maxHops int) (graph.Query, error)
}

// ForBackend returns the dialect spoken by backend.
func ForBackend(backend graph.Backend) (Dialect, error) {
	switch backend {
	case graph.BackendGremlin:
		return NewGremlin(), nil
	case graph.BackendNeo4j:
		return NewCypher(), nil
	default:
		return nil, types.NewError(types.INVALID_ARGUMENT,
			fmt.Sprintf("no traversal dialect for backend %q", backend))
	}
}

func validateHops(maxHops int) error {
	if maxHops < 1 || maxHops > MaxPathHops {
		return types.NewError(types.INVALID_ARGUMENT,
			fmt.Sprintf("maxHops must be between 1 and %d (got %d)", MaxPathHops, maxHops))
	}
	return nil
}

func validateKey(k graph.EntityKey) error {
	if err := ValidateIdentifier("label", k.Label); err != nil {
		return err
	}
	if err := ValidateIdentifier("key property", k.Property); err != nil {
		return err
	}
	return ValidateValue(k.Property, k.Value)
}
