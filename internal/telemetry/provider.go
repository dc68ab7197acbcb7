package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Provider holds the OTEL tracer provider and its shutdown func.
//
// Telemetry is strictly opt-in: the preflight itself performs no network
// I/O, and the caller only constructs a Provider when an OTLP endpoint is
// configured. With no endpoint there is no exporter and no connection.
type Provider struct {
	shutdown func(context.Context) error
}

// InitProvider initialises a tracer provider exporting to the collector at
// endpoint over OTLP/gRPC. The dial is non-blocking — an unreachable
// collector never delays or fails the bootstrap.
func InitProvider(ctx context.Context, endpoint, serviceName string, useInsecure bool) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("0.1.0"),
			semconv.ServiceNamespace("dutchbay"),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("building OTEL resource: %w", err)
	}

	connOpts := []grpc.DialOption{}
	if useInsecure {
		connOpts = append(connOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(endpoint, connOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gRPC client for OTEL: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	shutdown := func(ctx context.Context) error {
		// A flush failure (collector unreachable at exit) must not turn a
		// successful preflight into a failure, so only conn.Close is
		// propagated — it indicates an OS resource leak.
		tp.Shutdown(ctx) //nolint:errcheck
		return conn.Close()
	}

	return &Provider{shutdown: shutdown}, nil
}

// Shutdown flushes and closes the exporter. ctx should have a deadline.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
