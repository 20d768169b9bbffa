// Package telemetry wires OpenTelemetry tracing for the client. Traces are
// a dev-mode aid: spans are pretty-printed to stderr so a hanging or
// misrouted API call can be inspected without a collector.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this instrumentation scope.
const tracerName = "github.com/mealsfit/mealsfit-cli"

// Init installs the global tracer provider. Outside dev mode tracing stays
// a no-op. The returned shutdown func flushes pending spans and must be
// called before exit.
func Init(devMode bool) (func(context.Context) error, error) {
	if !devMode {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the client's tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
