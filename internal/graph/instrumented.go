package graph

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

const instrumentationName = "github.com/infobarbosa/janusgraph-lab/internal/graph"

// Span and metric names.
const (
	SpanGraphSubmit      = "janusgraph_lab.graph.submit"
	MetricGraphQueries   = "janusgraph_lab.graph.queries"
	MetricGraphDuration  = "janusgraph_lab.graph.query.duration"
	AttrGraphQueryName   = "janusgraph_lab.graph.query.name"
	AttrGraphQueryMode   = "janusgraph_lab.graph.query.mode"
	AttrGraphBackend     = "janusgraph_lab.graph.backend"
	AttrGraphResultCount = "janusgraph_lab.graph.result.count"
	AttrGraphErrorCode   = "janusgraph_lab.graph.error.code"
)

// InstrumentedConn wraps a Conn with OpenTelemetry spans, metrics and debug
// logging for every submitted query. Query parameters are never recorded.
//
// Thread-safety: Safe for concurrent access if the inner Conn is.
type InstrumentedConn struct {
	inner    Conn
	tracer   trace.Tracer
	meter    metric.Meter
	logger   *slog.Logger
	queries  metric.Int64Counter
	duration metric.Float64Histogram
}

// InstrumentOption is a functional option for configuring InstrumentedConn.
type InstrumentOption func(*InstrumentedConn)

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(tracer trace.Tracer) InstrumentOption {
	return func(c *InstrumentedConn) {
		c.tracer = tracer
	}
}

// WithMeter sets the meter. Defaults to the global meter provider.
func WithMeter(meter metric.Meter) InstrumentOption {
	return func(c *InstrumentedConn) {
		c.meter = meter
	}
}

// WithLogger sets the logger used for per-query debug lines.
func WithLogger(logger *slog.Logger) InstrumentOption {
	return func(c *InstrumentedConn) {
		c.logger = logger
	}
}

// NewInstrumentedConn wraps inner.
func NewInstrumentedConn(inner Conn, opts ...InstrumentOption) (*InstrumentedConn, error) {
	c := &InstrumentedConn{
		inner:  inner,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	c.queries, err = c.meter.Int64Counter(MetricGraphQueries,
		metric.WithDescription("Number of graph queries submitted"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, err
	}
	c.duration, err = c.meter.Float64Histogram(MetricGraphDuration,
		metric.WithDescription("Duration of graph queries"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Submit delegates to the inner Conn inside a span.
func (c *InstrumentedConn) Submit(ctx context.Context, q Query) (ResultSet, error) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrGraphQueryName, q.Name),
		attribute.String(AttrGraphQueryMode, q.Mode.String()),
		attribute.String(AttrGraphBackend, string(c.inner.Backend())),
	}

	ctx, span := c.tracer.Start(ctx, SpanGraphSubmit, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	results, err := c.inner.Submit(ctx, q)
	elapsed := time.Since(start)

	if err != nil {
		code := string(types.CodeOf(err))
		attrs = append(attrs, attribute.String(AttrGraphErrorCode, code))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrGraphErrorCode, code))
		c.logger.DebugContext(ctx, "graph query failed",
			"query", q.Name, "mode", q.Mode.String(), "duration", elapsed, "error", err)
	} else {
		span.SetAttributes(attribute.Int(AttrGraphResultCount, results.Len()))
		span.SetStatus(codes.Ok, "")
		c.logger.DebugContext(ctx, "graph query",
			"query", q.Name, "mode", q.Mode.String(), "duration", elapsed, "results", results.Len())
	}

	set := metric.WithAttributes(attrs...)
	c.queries.Add(ctx, 1, set)
	c.duration.Record(ctx, float64(elapsed.Microseconds())/1000.0, set)

	return results, err
}

// Close closes the inner Conn.
func (c *InstrumentedConn) Close(ctx context.Context) error {
	return c.inner.Close(ctx)
}

// Health delegates to the inner Conn.
func (c *InstrumentedConn) Health(ctx context.Context) types.HealthStatus {
	return c.inner.Health(ctx)
}

// Backend delegates to the inner Conn.
func (c *InstrumentedConn) Backend() Backend {
	return c.inner.Backend()
}

var (
	_ Conn = (*GremlinConn)(nil)
	_ Conn = (*Neo4jConn)(nil)
	_ Conn = (*MockConn)(nil)
	_ Conn = (*InstrumentedConn)(nil)
)
