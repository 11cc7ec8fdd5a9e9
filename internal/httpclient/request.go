package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, body)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Request is a single-use request builder.
type Request struct {
	client  *Client
	headers map[string]string
	query   url.Values
	body    any
	result  any
	route   string
}

// SetHeader sets a header.
func (r *Request) SetHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

// SetQueryParam adds a query parameter.
func (r *Request) SetQueryParam(key, value string) *Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetBody sets a JSON-encoded body.
func (r *Request) SetBody(body any) *Request {
	r.body = body
	return r
}

// SetResult sets the value a successful JSON response is decoded into.
func (r *Request) SetResult(result any) *Request {
	r.result = result
	return r
}

// SetRoute names the request in spans and metrics instead of the raw path,
// which may carry secrets such as bot tokens.
func (r *Request) SetRoute(route string) *Request {
	r.route = route
	return r
}

// Get executes a GET request.
func (r *Request) Get(ctx context.Context, path string) (*Response, error) {
	return r.do(ctx, http.MethodGet, path)
}

// Post executes a POST request.
func (r *Request) Post(ctx context.Context, path string) (*Response, error) {
	return r.do(ctx, http.MethodPost, path)
}

func (r *Request) do(ctx context.Context, method, path string) (*Response, error) {
	route := r.route
	if route == "" {
		route = path
	}

	ctx, span := r.client.tracer.Start(ctx, "http."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.String("provider", r.client.providerName),
		),
	)
	defer span.End()

	resp, err := r.send(ctx, method, path)
	r.record(ctx, route, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (r *Request) send(ctx context.Context, method, path string) (*Response, error) {
	target := path
	if r.client.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = strings.TrimSuffix(r.client.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(payload)
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	httpResp, err := r.client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}
	if httpResp.StatusCode >= 400 {
		return resp, &StatusError{StatusCode: httpResp.StatusCode, Body: data}
	}

	if r.result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, r.result); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func (r *Request) record(ctx context.Context, route string, success bool) {
	r.client.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", r.client.providerName),
		attribute.String("route", route),
		attribute.Bool("success", success),
	))
}
