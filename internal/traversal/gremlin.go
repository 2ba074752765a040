package traversal

import (
	"fmt"
	"strings"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Gremlin builds Gremlin scripts for Gremlin Server and JanusGraph. Every
// label, key and value is a script binding.
type Gremlin struct {
	source string
}

// NewGremlin returns the Gremlin dialect. Scripts always address "g"; the
// connection aliases it to the configured store.traversal_source.
func NewGremlin() *Gremlin {
	return &Gremlin{source: "g"}
}

// Backend returns graph.BackendGremlin.
func (d *Gremlin) Backend() graph.Backend {
	return graph.BackendGremlin
}

// ClearAll drops every vertex; incident edges go with them.
func (d *Gremlin) ClearAll() graph.Query {
	return graph.Query{
		Name: OpClearAll,
		Text: d.source + ".V().drop()",
		Mode: graph.ModeWrite,
	}
}

// EnsureUniqueKey reports ok=false: uniqueness in JanusGraph needs a
// management transaction outside a traversal, and Gremlin Server gives no
// portable equivalent. Upsert atomicity is left to the store.
func (d *Gremlin) EnsureUniqueKey(label, key string) (graph.Query, bool, error) {
	if err := ValidateIdentifier("label", label); err != nil {
		return graph.Query{}, false, err
	}
	if err := ValidateIdentifier("key property", key); err != nil {
		return graph.Query{}, false, err
	}
	return graph.Query{}, false, nil
}

// UpsertEntity composes the fold/coalesce/unfold pattern:
//
//	g.V().has(vLabel, vKey, vValue).fold().
//	  coalesce(__.unfold(), __.addV(vLabel).property(single, vKey, vValue)).
//	  property(single, p0Key, p0Val)...id()
func (d *Gremlin) UpsertEntity(label, key string, value any, extra map[string]any) (graph.Query, error) {
	if err := validateKey(graph.EntityKey{Label: label, Property: key, Value: value}); err != nil {
		return graph.Query{}, err
	}
	keys, err := sortedProperties(extra, key)
	if err != nil {
		return graph.Query{}, err
	}

	params := map[string]any{
		"vLabel": label,
		"vKey":   key,
		"vValue": value,
	}

	var b strings.Builder
	b.WriteString(d.source)
	b.WriteString(".V().has(vLabel, vKey, vValue).fold()")
	b.WriteString(".coalesce(__.unfold(), __.addV(vLabel).property(single, vKey, vValue))")
	for i, k := range keys {
		kp, vp := fmt.Sprintf("p%dKey", i), fmt.Sprintf("p%dVal", i)
		params[kp] = k
		params[vp] = extra[k]
		fmt.Fprintf(&b, ".property(single, %s, %s)", kp, vp)
	}
	b.WriteString(".id()")

	return graph.Query{Name: OpUpsertEntity, Text: b.String(), Params: params, Mode: graph.ModeWrite}, nil
}

// CreateRelationship composes
//
//	g.V(fromId).as('src').V(toId).addE(eLabel).from('src').property(p0Key, p0Val)...id()
//
// which yields nothing when either endpoint lookup is empty.
func (d *Gremlin) CreateRelationship(from graph.ID, label string, to graph.ID, extra map[string]any) (graph.Query, error) {
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

	params := map[string]any{
		"fromId": from.Value(),
		"toId":   to.Value(),
		"eLabel": label,
	}

	var b strings.Builder
	b.WriteString(d.source)
	b.WriteString(".V(fromId).as('src').V(toId).addE(eLabel).from('src')")
	for i, k := range keys {
		kp, vp := fmt.Sprintf("p%dKey", i), fmt.Sprintf("p%dVal", i)
		params[kp] = k
		params[vp] = extra[k]
		fmt.Fprintf(&b, ".property(%s, %s)", kp, vp)
	}
	b.WriteString(".id()")

	return graph.Query{Name: OpCreateRelationship, Text: b.String(), Params: params, Mode: graph.ModeWrite}, nil
}

// CountVertices returns g.V().count().
func (d *Gremlin) CountVertices() graph.Query {
	return graph.Query{Name: OpCountVertices, Text: d.source + ".V().count()", Mode: graph.ModeRead}
}

// CountEdges returns g.E().count().
func (d *Gremlin) CountEdges() graph.Query {
	return graph.Query{Name: OpCountEdges, Text: d.source + ".E().count()", Mode: graph.ModeRead}
}

// ListByLabel returns g.V().hasLabel(vLabel).values(rProp).
func (d *Gremlin) ListByLabel(label, property string) (graph.Query, error) {
	if err := ValidateIdentifier("label", label); err != nil {
		return graph.Query{}, err
	}
	if err := ValidateIdentifier("property", property); err != nil {
		return graph.Query{}, err
	}
	return graph.Query{
		Name:   OpListByLabel,
		Text:   d.source + ".V().hasLabel(vLabel).values(rProp)",
		Params: map[string]any{"vLabel": label, "rProp": property},
		Mode:   graph.ModeRead,
	}, nil
}

// FindIncoming returns g.V().has(tLabel, tKey, tValue).in(eLabel).values(rProp).
func (d *Gremlin) FindIncoming(target graph.EntityKey, edgeLabel, resultProperty string) (graph.Query, error) {
	if err := validateKey(target); err != nil {
		return graph.Query{}, err
	}
	if err := ValidateIdentifier("edge label", edgeLabel); err != nil {
		return graph.Query{}, err
	}
	if err := ValidateIdentifier("result property", resultProperty); err != nil {
		return graph.Query{}, err
	}

	params := targetParams(target)
	params["eLabel"] = edgeLabel
	params["rProp"] = resultProperty

	return graph.Query{
		Name:   OpFindIncoming,
		Text:   d.source + ".V().has(tLabel, tKey, tValue).in(eLabel).values(rProp)",
		Params: params,
		Mode:   graph.ModeRead,
	}, nil
}

// FindIncomingMulti returns
// g.V().has(tLabel, tKey, tValue).inE(e0, e1, ...).outV().values(rProp).
func (d *Gremlin) FindIncomingMulti(target graph.EntityKey, edgeLabels []string, resultProperty string) (graph.Query, error) {
	if err := validateKey(target); err != nil {
		return graph.Query{}, err
	}
	if len(edgeLabels) == 0 {
		return graph.Query{}, types.NewError(types.INVALID_ARGUMENT, "at least one edge label is required")
	}
	if err := ValidateIdentifier("result property", resultProperty); err != nil {
		return graph.Query{}, err
	}

	params := targetParams(target)
	params["rProp"] = resultProperty

	names := make([]string, len(edgeLabels))
	for i, l := range edgeLabels {
		if err := ValidateIdentifier("edge label", l); err != nil {
			return graph.Query{}, err
		}
		names[i] = fmt.Sprintf("e%d", i)
		params[names[i]] = l
	}

	return graph.Query{
		Name: OpFindIncomingMulti,
		Text: fmt.Sprintf("%s.V().has(tLabel, tKey, tValue).inE(%s).outV().values(rProp)",
			d.source, strings.Join(names, ", ")),
		Params: params,
		Mode:   graph.ModeRead,
	}, nil
}

// FindPaths composes
//
//	g.V().has(fLabel, fKey, fValue).
//	  repeat(__.both().simplePath()).emit(__.has(tLabel, tKey, tValue)).times(maxHops).
//	  has(tLabel, tKey, tValue).path().by(project(...)).dedup()
//
// emit() collects targets reached before the last iteration, times() bounds
// the search, simplePath() forbids revisiting a vertex.
func (d *Gremlin) FindPaths(from, to graph.EntityKey, maxHops int) (graph.Query, error) {
	if err := validateKey(from); err != nil {
		return graph.Query{}, err
	}
	if err := validateKey(to); err != nil {
		return graph.Query{}, err
	}
	if err := validateHops(maxHops); err != nil {
		return graph.Query{}, err
	}

	params := targetParams(to)
	params["fLabel"] = from.Label
	params["fKey"] = from.Property
	params["fValue"] = from.Value
	params["maxHops"] = maxHops

	text := d.source + ".V().has(fLabel, fKey, fValue)" +
		".repeat(__.both().simplePath()).emit(__.has(tLabel, tKey, tValue)).times(maxHops)" +
		".has(tLabel, tKey, tValue)" +
		".path().by(__.project('id', 'label', 'display')" +
		".by(__.id()).by(__.label()).by(__.coalesce(__.values(fKey), __.constant(''))))" +
		".dedup()"

	return graph.Query{Name: OpFindPaths, Text: text, Params: params, Mode: graph.ModeRead}, nil
}

func targetParams(target graph.EntityKey) map[string]any {
	return map[string]any{
		"tLabel": target.Label,
		"tKey":   target.Property,
		"tValue": target.Value,
	}
}
