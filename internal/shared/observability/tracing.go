package observability

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer is the process-wide tracer. It stays a noop unless InitTracing
// installs a real provider.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer("supdoc")

// InitTracing installs an OTLP gRPC trace exporter when
// OTEL_EXPORTER_OTLP_ENDPOINT is set in the environment. The returned
// shutdown flushes pending spans; it is safe to call when tracing was
// never enabled.
func InitTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer("supdoc")

	slog.Debug("trace exporter enabled")
	return provider.Shutdown, nil
}
