// Package apm configures OpenTelemetry tracing.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sam-client/internal/logger"
)

// Exporter names accepted in telemetry.exporter.
const (
	ExporterZipkin   = "zipkin"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
	ExporterConsole  = "console"
	ExporterNone     = "none"
)

// Settings selects and configures the span exporter.
type Settings struct {
	ServiceName string
	Exporter    string
	Endpoint    string
	Headers     string // comma separated key=value pairs
}

// TraceProvider flushes and stops tracing.
type TraceProvider interface {
	Stop() error
}

type noopProvider struct{}

func (noopProvider) Stop() error { return nil }

type sdkProvider struct {
	tp *sdktrace.TracerProvider
}

func (p *sdkProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// NewTraceProvider installs a global tracer provider for the selected exporter.
func NewTraceProvider(ctx context.Context, s Settings, log logger.LoggerInterface) (TraceProvider, error) {
	exp, err := newExporter(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("apm: %s exporter: %w", s.Exporter, err)
	}
	if exp == nil {
		log.Warn(ctx, "tracing exporter disabled", "exporter", s.Exporter)
		return noopProvider{}, nil
	}

	rsrc, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(s.ServiceName),
		attribute.String("otel.exporter", s.Exporter),
	))
	if err != nil {
		log.Warn(ctx, "tracing resource merge failed, using default", "error", err)
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing initialized", "exporter", s.Exporter, "endpoint", s.Endpoint)
	return &sdkProvider{tp: tp}, nil
}

func newExporter(ctx context.Context, s Settings) (sdktrace.SpanExporter, error) {
	switch s.Exporter {
	case ExporterZipkin:
		return zipkin.New(s.Endpoint)
	case ExporterOTLPGRPC:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(s.Endpoint),
			otlptracegrpc.WithHeaders(ParseHeaders(s.Headers)))
	case ExporterOTLPHTTP:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(s.Endpoint),
			otlptracehttp.WithHeaders(ParseHeaders(s.Headers)))
	case ExporterConsole:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown exporter %q", s.Exporter)
	}
}

// ParseHeaders parses "k1=v1,k2=v2". Malformed pairs are skipped.
func ParseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}

// TraceID returns the active span's trace id, for log correlation.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
