// Package harness issues read-only traversals against a seeded graph and
// runs the verification battery.
package harness

import (
	"context"
	"log/slog"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/traversal"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Harness runs parameterized read traversals. Errors are returned as-is;
// nothing is retried.
type Harness struct {
	conn    graph.Conn
	dialect traversal.Dialect
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for the harness.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithDialect overrides the dialect derived from the connection backend.
func WithDialect(d traversal.Dialect) Option {
	return func(h *Harness) {
		h.dialect = d
	}
}

// New creates a Harness over conn.
func New(conn graph.Conn, opts ...Option) (*Harness, error) {
	if conn == nil {
		return nil, types.NewError(types.INVALID_ARGUMENT, "harness requires a graph connection")
	}

	h := &Harness{conn: conn, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	if h.dialect == nil {
		d, err := traversal.ForBackend(conn.Backend())
		if err != nil {
			return nil, err
		}
		h.dialect = d
	}
	h.logger = h.logger.With("component", "harness")
	return h, nil
}

// CountVertices returns the number of vertices in the graph.
func (h *Harness) CountVertices(ctx context.Context) (int64, error) {
	return h.count(ctx, h.dialect.CountVertices())
}

// CountEdges returns the number of edges in the graph.
func (h *Harness) CountEdges(ctx context.Context) (int64, error) {
	return h.count(ctx, h.dialect.CountEdges())
}

func (h *Harness) count(ctx context.Context, q graph.Query) (int64, error) {
	rs, err := h.conn.Submit(ctx, q)
	if err != nil {
		return 0, err
	}
	return rs.Int64()
}

// ListByLabel returns property of every vertex with label, in store order.
// Vertices lacking the property are skipped.
func (h *Harness) ListByLabel(ctx context.Context, label, property string) ([]any, error) {
	q, err := h.dialect.ListByLabel(label, property)
	if err != nil {
		return nil, err
	}
	return h.values(ctx, q)
}

// FindIncoming returns resultProperty of the source of every edgeLabel edge
// pointing at target. A source connected twice appears twice.
func (h *Harness) FindIncoming(ctx context.Context, target graph.EntityKey, edgeLabel, resultProperty string) ([]any, error) {
	q, err := h.dialect.FindIncoming(target, edgeLabel, resultProperty)
	if err != nil {
		return nil, err
	}
	return h.values(ctx, q)
}

// FindIncomingMulti is FindIncoming for edges carrying any of edgeLabels.
func (h *Harness) FindIncomingMulti(ctx context.Context, target graph.EntityKey, edgeLabels []string, resultProperty string) ([]any, error) {
	q, err := h.dialect.FindIncomingMulti(target, edgeLabels, resultProperty)
	if err != nil {
		return nil, err
	}
	return h.values(ctx, q)
}

// FindPaths returns every distinct simple path of 1..maxHops edges between
// from and to, ignoring edge direction. maxHops must be between 1 and
// traversal.MaxPathHops.
func (h *Harness) FindPaths(ctx context.Context, from, to graph.EntityKey, maxHops int) ([]graph.Path, error) {
	q, err := h.dialect.FindPaths(from, to, maxHops)
	if err != nil {
		return nil, err
	}
	rs, err := h.conn.Submit(ctx, q)
	if err != nil {
		return nil, err
	}
	return rs.Paths()
}

func (h *Harness) values(ctx context.Context, q graph.Query) ([]any, error) {
	rs, err := h.conn.Submit(ctx, q)
	if err != nil {
		return nil, err
	}
	return rs.Values(), nil
}
