package observability

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// jaegerEndpointEnv names the collector the tracer exports to. Unset
// means tracing stays a no-op: the audit span bridge still records
// SpanStart/SpanEnd in the hash-chained log, it just has nothing to
// export them to.
const jaegerEndpointEnv = "OTEL_EXPORTER_JAEGER_ENDPOINT"

// InitTracing installs the global tracer provider and propagator for
// this process. The returned function flushes pending spans and shuts
// the provider down; it is safe to call even when tracing was a no-op.
func InitTracing(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	collector := os.Getenv(jaegerEndpointEnv)
	if collector == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collector)))
	if err != nil {
		return nil, err
	}

	attrs, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion("1.0.0"),
	))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		// Transfers are long and spans are few (job, file, window);
		// sample everything rather than lose the only span a job has.
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(attrs),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return provider.Shutdown, nil
}
