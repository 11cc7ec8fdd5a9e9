package httpclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/sam-client/internal/httpclient"
)

func TestRequest_GetDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("ids") != "pulsechain" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"pulsechain":{"usd":0.00004}}`))
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.WithBaseURL(srv.URL+"/"), httpclient.WithProviderName("test"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var out map[string]map[string]float64
	_, err = client.NewRequest().
		SetQueryParam("ids", "pulsechain").
		SetResult(&out).
		Get(context.Background(), "/simple/price")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out["pulsechain"]["usd"] != 0.00004 {
		t.Errorf("unexpected result %v", out)
	}
}

func TestRequest_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := httpclient.New()
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.NewRequest().SetBody(map[string]string{"a": "b"}).Post(context.Background(), srv.URL)
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("unexpected status %d", statusErr.StatusCode)
	}
}
