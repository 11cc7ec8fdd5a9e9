// Package httpclient provides an HTTP client with OpenTelemetry tracing and request metrics.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultKeepAlive       = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
	instrumentationName  = "github.com/fd1az/sam-client/internal/httpclient"
)

// Client builds instrumented requests against an optional base URL.
type Client struct {
	http           *http.Client
	tracer         trace.Tracer
	requestCounter metric.Int64Counter
	providerName   string
	baseURL        string
	headers        map[string]string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	providerName string
	baseURL      string
	timeout      time.Duration
	headers      map[string]string
	transport    http.RoundTripper
	meter        metric.MeterProvider
}

// WithProviderName labels spans and metrics with the upstream name.
func WithProviderName(name string) Option {
	return func(o *options) { o.providerName = name }
}

// WithBaseURL sets the prefix for relative request paths.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(o *options) { o.headers = h }
}

// WithRoundTripper replaces the base transport, mostly for tests.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	o := options{providerName: "default", timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.transport
	if base == nil {
		base = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	mp := o.meter
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", o.providerName)))

	counter, err := meter.Int64Counter(metricRequestCounter,
		metric.WithDescription("Total number of outbound HTTP requests"))
	if err != nil {
		return nil, err
	}

	return &Client{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(base,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		tracer:         otel.Tracer(instrumentationName),
		requestCounter: counter,
		providerName:   o.providerName,
		baseURL:        o.baseURL,
		headers:        o.headers,
	}, nil
}

// NewRequest starts a request builder.
func (c *Client) NewRequest() *Request {
	headers := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	return &Request{client: c, headers: headers}
}
