package traversal

import (
	"fmt"
	"strings"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Cypher builds Cypher statements for Neo4j. Values are $parameters;
// identifiers are validated and backtick-quoted.
type Cypher struct{}

// NewCypher returns the Cypher dialect.
func NewCypher() *Cypher {
	return &Cypher{}
}

// Backend returns graph.BackendNeo4j.
func (d *Cypher) Backend() graph.Backend {
	return graph.BackendNeo4j
}

// ClearAll detaches and deletes every node.
func (d *Cypher) ClearAll() graph.Query {
	return graph.Query{
		Name: OpClearAll,
		Text: "MATCH (n) DETACH DELETE n",
		Mode: graph.ModeWrite,
	}
}

// EnsureUniqueKey creates a node uniqueness constraint on (label, key).
// MERGE is only atomic under concurrent writers when such a constraint
// exists.
func (d *Cypher) EnsureUniqueKey(label, key string) (graph.Query, bool, error) {
	if err := ValidateIdentifier("label", label); err != nil {
		return graph.Query{}, false, err
	}
	if err := ValidateIdentifier("key property", key); err != nil {
		return graph.Query{}, false, err
	}
	text := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		quote("uniq_"+label+"_"+key), quote(label), quote(key))
	return graph.Query{Name: OpEnsureUniqueKey, Text: text, Mode: graph.ModeWrite}, true, nil
}

// UpsertEntity composes a single MERGE:
//
//	MERGE (n:`label` {`key`: $keyValue}) SET n += $props RETURN elementId(n) AS value
func (d *Cypher) UpsertEntity(label, key string, value any, extra map[string]any) (graph.Query, error) {
	if err := validateKey(graph.EntityKey{Label: label, Property: key, Value: value}); err != nil {
		return graph.Query{}, err
	}
	keys, err := sortedProperties(extra, key)
	if err != nil {
		return graph.Query{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE (n:%s {%s: $keyValue})", quote(label), quote(key))
	if len(keys) > 0 {
		b.WriteString(" SET n += $props")
	}
	b.WriteString(" RETURN elementId(n) AS value")

	return graph.Query{
		Name:   OpUpsertEntity,
		Text:   b.String(),
		Params: map[string]any{"keyValue": value, "props": copyProps(keys, extra)},
		Mode:   graph.ModeWrite,
	}, nil
}

// CreateRelationship matches both endpoints by element id and creates one
// relationship. No row comes back when either endpoint is missing.
func (d *Cypher) CreateRelationship(from graph.ID, label string, to graph.ID, extra map[string]any) (graph.Query, error) {
	if err := ValidateIdentifier("relationship label", label); err != nil {
		return graph.Query{}, err
	}
	if from.IsZero() || to.IsZero() {
		return graph.Query{}, types.NewError(types.DANGLING_REFERENCE, "relationship endpoints must reference stored entities")
	}
	keys, err := sortedProperties(extra, "")
	if err != nil {
		return graph.Query{}, err
	}

	var b strings.Builder
	b.WriteString("MATCH (src) WHERE elementId(src) = $fromId ")
	b.WriteString("MATCH (dst) WHERE elementId(dst) = $toId ")
	fmt.Fprintf(&b, "CREATE (src)-[r:%s]->(dst)", quote(label))
	if len(keys) > 0 {
		b.WriteString(" SET r += $props")
	}
	b.WriteString(" RETURN elementId(r) AS value")

	return graph.Query{
		Name: OpCreateRelationship,
		Text: b.String(),
		Params: map[string]any{
			"fromId": from.String(),
			"toId":   to.String(),
			"props":  copyProps(keys, extra),
		},
		Mode: graph.ModeWrite,
	}, nil
}

// CountVertices counts every node.
func (d *Cypher) CountVertices() graph.Query {
	return graph.Query{Name: OpCountVertices, Text: "MATCH (n) RETURN count(n) AS value", Mode: graph.ModeRead}
}

// CountEdges counts every relationship once.
func (d *Cypher) CountEdges() graph.Query {
	return graph.Query{Name: OpCountEdges, Text: "MATCH ()-[r]->() RETURN count(r) AS value", Mode: graph.ModeRead}
}

// ListByLabel returns property of every node with label that carries it.
func (d *Cypher) ListByLabel(label, property string) (graph.Query, error) {
	if err := ValidateIdentifier("label", label); err != nil {
		return graph.Query{}, err
	}
	if err := ValidateIdentifier("property", property); err != nil {
		return graph.Query{}, err
	}
	p := quote(property)
	return graph.Query{
		Name: OpListByLabel,
		Text: fmt.Sprintf("MATCH (n:%s) WHERE n.%s IS NOT NULL RETURN n.%s AS value", quote(label), p, p),
		Mode: graph.ModeRead,
	}, nil
}

// FindIncoming returns resultProperty of each source of an edgeLabel edge
// into target, once per edge.
func (d *Cypher) FindIncoming(target graph.EntityKey, edgeLabel, resultProperty string) (graph.Query, error) {
	if err := validateKey(target); err != nil {
		return graph.Query{}, err
	}
	if err := ValidateIdentifier("edge label", edgeLabel); err != nil {
		return graph.Query{}, err
	}
	if err := ValidateIdentifier("result property", resultProperty); err != nil {
		return graph.Query{}, err
	}
	rp := quote(resultProperty)
	text := fmt.Sprintf("MATCH (src)-[:%s]->(:%s {%s: $targetValue}) WHERE src.%s IS NOT NULL RETURN src.%s AS value",
		quote(edgeLabel), quote(target.Label), quote(target.Property), rp, rp)
	return graph.Query{
		Name:   OpFindIncoming,
		Text:   text,
		Params: map[string]any{"targetValue": target.Value},
		Mode:   graph.ModeRead,
	}, nil
}

// FindIncomingMulti is FindIncoming over a set of edge labels.
func (d *Cypher) FindIncomingMulti(target graph.EntityKey, edgeLabels []string, resultProperty string) (graph.Query, error) {
	if err := validateKey(target); err != nil {
		return graph.Query{}, err
	}
	if len(edgeLabels) == 0 {
		return graph.Query{}, types.NewError(types.INVALID_ARGUMENT, "at least one edge label is required")
	}
	for _, l := range edgeLabels {
		if err := ValidateIdentifier("edge label", l); err != nil {
			return graph.Query{}, err
		}
	}
	if err := ValidateIdentifier("result property", resultProperty); err != nil {
		return graph.Query{}, err
	}
	rp := quote(resultProperty)
	text := fmt.Sprintf("MATCH (src)-[r]->(:%s {%s: $targetValue}) WHERE type(r) IN $edgeLabels AND src.%s IS NOT NULL RETURN src.%s AS value",
		quote(target.Label), quote(target.Property), rp, rp)
	return graph.Query{
		Name:   OpFindIncomingMulti,
		Text:   text,
		Params: map[string]any{"targetValue": target.Value, "edgeLabels": anyList(edgeLabels)},
		Mode:   graph.ModeRead,
	}, nil
}

// FindPaths matches undirected variable-length paths of 1..maxHops
// relationships and keeps the ones whose nodes are pairwise distinct.
// Cypher cannot bind a length bound, so maxHops is validated and inlined.
func (d *Cypher) FindPaths(from, to graph.EntityKey, maxHops int) (graph.Query, error) {
	if err := validateKey(from); err != nil {
		return graph.Query{}, err
	}
	if err := validateKey(to); err != nil {
		return graph.Query{}, err
	}
	if err := validateHops(maxHops); err != nil {
		return graph.Query{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MATCH p = (a:%s {%s: $fromValue})-[*1..%d]-(b:%s {%s: $toValue}) ",
		quote(from.Label), quote(from.Property), maxHops, quote(to.Label), quote(to.Property))
	b.WriteString("WHERE all(i IN range(0, size(nodes(p)) - 2) WHERE NOT nodes(p)[i] IN nodes(p)[i + 1..]) ")
	fmt.Fprintf(&b, "RETURN DISTINCT [n IN nodes(p) | {id: elementId(n), label: head(labels(n)), display: coalesce(n.%s, '')}] AS value",
		quote(from.Property))

	return graph.Query{
		Name:   OpFindPaths,
		Text:   b.String(),
		Params: map[string]any{"fromValue": from.Value, "toValue": to.Value},
		Mode:   graph.ModeRead,
	}, nil
}

// quote wraps a validated identifier in backticks.
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func copyProps(keys []string, extra map[string]any) map[string]any {
	props := make(map[string]any, len(keys))
	for _, k := range keys {
		props[k] = extra[k]
	}
	return props
}

func anyList(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
