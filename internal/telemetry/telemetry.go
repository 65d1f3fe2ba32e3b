package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// TracesFile receives spans when no collector endpoint is configured.
const TracesFile = "traces.txt"

func newExporter(w io.Writer) (trace.SpanExporter, error) {
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
}

// newOTELCollectorExporter creates an exporter that sends traces to an OTEL collector
func newOTELCollectorExporter(endpoint string) (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(collectorHost(endpoint))}
	if !strings.HasPrefix(endpoint, "https://") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return otlptracehttp.New(context.Background(), opts...)
}

// collectorHost strips the scheme from endpoint.
func collectorHost(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimSuffix(endpoint, "/")
}

func newResource(serviceName string) *resource.Resource {
	if serviceName == "" {
		serviceName = "folio"
	}

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion("0.1.0"),
	)
}

// NewProvider creates new telemetry provider, and sets it as a default open telemetry trace provider.
//
// Spans go to the OTLP collector at endpoint (e.g. "localhost:4318") when
// one is given, and to TracesFile otherwise.
//
// Returns a teardown func
func NewProvider(endpoint, serviceName string) func() {
	var (
		exp       trace.SpanExporter
		err       error
		closeFile = func() error { return nil }
	)

	if endpoint != "" {
		exp, err = newOTELCollectorExporter(endpoint)
	} else {
		var f *os.File
		f, err = os.Create(TracesFile)
		if err != nil {
			slog.Error("Unable to create traces file", slog.String("path", TracesFile), slog.Any("error", err))
			return func() {}
		}
		slog.Info("Using file-based tracing", slog.String("path", TracesFile))
		closeFile = f.Close
		exp, err = newExporter(f)
	}

	if err != nil {
		slog.Error("Unable to create exporter, tracing disabled", slog.Any("error", err))
		_ = closeFile()
		return func() {}
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(newResource(serviceName)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("unable to shutdown trace provider", slog.Any("error", err))
		}

		if err := closeFile(); err != nil {
			slog.Error("Unable to close traces file", slog.Any("error", err))
		}
	}
}
