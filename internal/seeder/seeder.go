// Package seeder builds graph state in a remote property-graph store.
//
// Entities are upserted by (label, key, value): the store looks the entity
// up and creates it only if absent, in a single request, so repeated runs
// converge on the same vertex. Relationships are never deduplicated; each
// CreateRelationship call appends one edge.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/traversal"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Seeder issues write requests through a graph connection.
type Seeder struct {
	conn    graph.Conn
	dialect traversal.Dialect
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithLogger sets the logger for the seeder.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Seeder) {
		s.logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer for plan runs.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Seeder) {
		s.tracer = tracer
	}
}

// WithDialect overrides the dialect derived from the connection backend.
func WithDialect(d traversal.Dialect) Option {
	return func(s *Seeder) {
		s.dialect = d
	}
}

// New creates a Seeder over conn. The dialect follows conn.Backend() unless
// WithDialect is given.
func New(conn graph.Conn, opts ...Option) (*Seeder, error) {
	if conn == nil {
		return nil, types.NewError(types.INVALID_ARGUMENT, "seeder requires a graph connection")
	}

	s := &Seeder{
		conn:   conn,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("seeder"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dialect == nil {
		d, err := traversal.ForBackend(conn.Backend())
		if err != nil {
			return nil, err
		}
		s.dialect = d
	}
	s.logger = s.logger.With("component", "seeder")
	return s, nil
}

// ClearAll deletes every vertex and edge in the store.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if _, err := s.conn.Submit(ctx, s.dialect.ClearAll()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "graph cleared")
	return nil
}

// EnsureUniqueKey asks the store to enforce uniqueness of (label, key). It
// returns false, and does nothing, when the store has no such request.
func (s *Seeder) EnsureUniqueKey(ctx context.Context, label, key string) (bool, error) {
	q, ok, err := s.dialect.EnsureUniqueKey(label, key)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.conn.Submit(ctx, q); err != nil {
		return false, err
	}
	s.logger.DebugContext(ctx, "unique key ensured", "label", label, "key", key)
	return true, nil
}

// UpsertEntity returns the identifier of the entity with label and
// key=value, creating it if absent, after writing every extra property.
func (s *Seeder) UpsertEntity(ctx context.Context, label, key string, value any, extra map[string]any) (graph.ID, error) {
	q, err := s.dialect.UpsertEntity(label, key, value, extra)
	if err != nil {
		return graph.ID{}, err
	}

	rs, err := s.conn.Submit(ctx, q)
	if err != nil {
		return graph.ID{}, err
	}

	id, ok := rs.ID()
	if !ok {
		return graph.ID{}, types.NewError(types.RESULT_DECODE_FAILED,
			fmt.Sprintf("upsert of %s(%s=%v) returned no identifier", label, key, value))
	}

	s.logger.DebugContext(ctx, "entity upserted", "label", label, "key", key, "value", value, "id", id.String())
	return id, nil
}

// CreateRelationship appends one label edge from -> to and returns its
// identifier. It fails with DANGLING_REFERENCE when either endpoint does not
// exist; no edge is created then.
func (s *Seeder) CreateRelationship(ctx context.Context, from graph.ID, label string, to graph.ID, extra map[string]any) (graph.ID, error) {
	q, err := s.dialect.CreateRelationship(from, label, to, extra)
	if err != nil {
		return graph.ID{}, err
	}

	rs, err := s.conn.Submit(ctx, q)
	if err != nil {
		return graph.ID{}, err
	}

	id, ok := rs.ID()
	if !ok {
		return graph.ID{}, types.NewError(types.DANGLING_REFERENCE,
			fmt.Sprintf("relationship %s from %s to %s: endpoint not found", label, from, to))
	}

	s.logger.DebugContext(ctx, "relationship created", "label", label, "from", from.String(), "to", to.String(), "id", id.String())
	return id, nil
}
