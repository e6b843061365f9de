package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ExporterConfig configures an OTLP/HTTP span exporter, grounded on the
// teacher's pkg/observability/mlflow.Config (which wires the same exporter
// against an MLflow collector). Here the collector is generic: any OTLP/HTTP
// endpoint (Jaeger, Tempo, an OTel Collector) rather than an MLflow-specific
// one, so there is no experiment name/ID header juggling.
type ExporterConfig struct {
	// Endpoint is the collector's host:port, e.g. "localhost:4318".
	Endpoint string

	// ServiceName is reported on the exported resource. Defaults to
	// TracerName when empty.
	ServiceName string

	// Insecure disables TLS for the OTLP/HTTP connection. Local collectors
	// typically require this.
	Insecure bool

	// Headers are sent with every export request (e.g. collector auth).
	Headers map[string]string
}

// NewOTLPTracerProvider builds a batching span exporter and TracerProvider
// against cfg.Endpoint. The caller owns the returned provider's lifecycle:
// it is not installed as the global provider, so its Tracer must be passed
// explicitly (e.g. via Settings.Tracer) to whichever Protocol should export
// through it; Shutdown must be called to flush pending spans.
func NewOTLPTracerProvider(ctx context.Context, cfg ExporterConfig) (*sdktrace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry: ExporterConfig.Endpoint is required")
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = TracerName
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := newHTTPExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// ExporterTracer is a convenience wrapper returning a named Tracer from an
// OTLP-backed provider, mirroring the teacher's Tracker.Tracer.
func ExporterTracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return tp.Tracer(TracerName)
}

// newHTTPExporter exists so the otlptrace package's Exporter type, the
// concrete thing otlptracehttp.New hands back, is named explicitly rather
// than left to inference.
func newHTTPExporter(ctx context.Context, opts []otlptracehttp.Option) (*otlptrace.Exporter, error) {
	return otlptracehttp.New(ctx, opts...)
}
