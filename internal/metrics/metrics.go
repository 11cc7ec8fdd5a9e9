// Package metrics configures the OpenTelemetry meter provider and the Prometheus scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Settings selects the metric readers.
type Settings struct {
	ServiceName  string
	Prometheus   bool
	OTLPEndpoint string // empty disables the OTLP push reader
	OTLPHeaders  map[string]string
	Insecure     bool
}

// NewMeterProvider builds the readers and installs the global meter provider.
func NewMeterProvider(ctx context.Context, s Settings) (*sdkmetric.MeterProvider, error) {
	var opts []sdkmetric.Option

	if s.Prometheus {
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("metrics: prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exp))
	}

	if s.OTLPEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(s.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(s.OTLPHeaders),
		}
		if s.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("metrics: otlp exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(s.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// PrometheusServer serves /metrics.
type PrometheusServer struct {
	port int
	srv  *http.Server
}

// NewPrometheusServer creates a scrape server for port.
func NewPrometheusServer(port int) *PrometheusServer {
	return &PrometheusServer{port: port}
}

// Start binds the port and serves in the background.
func (p *PrometheusServer) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p.port))
	if err != nil {
		return fmt.Errorf("metrics: listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	p.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go p.srv.Serve(ln)
	return nil
}

// Stop shuts the server down.
func (p *PrometheusServer) Stop(ctx context.Context) error {
	if p.srv == nil {
		return nil
	}
	return p.srv.Shutdown(ctx)
}
