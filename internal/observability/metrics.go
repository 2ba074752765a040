package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc/credentials"

	"github.com/infobarbosa/janusgraph-lab/internal/config"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

const defaultExportInterval = 15 * time.Second

// InitMetrics builds a meter provider pushing to the tracing endpoint over
// OTLP gRPC and installs it globally. Without tracing.metrics the provider
// has no reader and drops every measurement.
func InitMetrics(ctx context.Context, cfg config.TracingConfig, readers ...sdkmetric.Reader) (*sdkmetric.MeterProvider, error) {
	if len(readers) == 0 && (!cfg.Enabled || !cfg.Metrics) {
		return sdkmetric.NewMeterProvider(), nil
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if len(readers) == 0 {
		grpcOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		} else {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}
		exporter, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, types.WrapError(ErrCodeTelemetryInit, "failed to create OTLP metric exporter for "+cfg.Endpoint, err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(defaultExportInterval)))
	}

	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// ShutdownMetrics flushes pending measurements and stops the provider.
func ShutdownMetrics(ctx context.Context, provider *sdkmetric.MeterProvider) error {
	if provider == nil {
		return nil
	}
	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(ErrCodeTelemetryInit, "failed to shut down meter provider", err)
	}
	return nil
}
