package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/infobarbosa/janusgraph-lab/internal/config"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
	"github.com/infobarbosa/janusgraph-lab/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "janusgraph-lab"
)

// ErrCodeTelemetryInit is returned when an exporter cannot be created.
const ErrCodeTelemetryInit types.ErrorCode = "TELEMETRY_INIT_FAILED"

// TracingOption configures InitTracing.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	exporter     sdktrace.SpanExporter
	batchTimeout time.Duration
}

// WithSampler overrides the ratio sampler built from the sample rate.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithExporter replaces the OTLP exporter, e.g. with an in-memory one.
func WithExporter(exporter sdktrace.SpanExporter) TracingOption {
	return func(o *tracingOptions) {
		o.exporter = exporter
	}
}

// WithBatchTimeout sets the maximum time between batch exports.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// InitTracing builds a tracer provider exporting over OTLP gRPC and installs
// it globally. When tracing is disabled the provider records nothing.
func InitTracing(ctx context.Context, cfg config.TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample())), nil
	}

	options := &tracingOptions{batchTimeout: defaultBatchTimeout}
	for _, opt := range opts {
		opt(options)
	}
	if options.sampler == nil {
		options.sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	exporter := options.exporter
	if exporter == nil {
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		} else {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}
		exporter, err = otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, types.WrapError(ErrCodeTelemetryInit, "failed to create OTLP trace exporter for "+cfg.Endpoint, err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(options.batchTimeout)),
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// ShutdownTracing flushes pending spans and stops the provider.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}
	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(ErrCodeTelemetryInit, "failed to shut down tracer provider", err)
	}
	return nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(ErrCodeTelemetryInit, "failed to create telemetry resource", err)
	}
	return res, nil
}
