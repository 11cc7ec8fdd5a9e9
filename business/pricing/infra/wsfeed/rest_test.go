package wsfeed

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/logger"
)

func newRESTFeed(t *testing.T, handler http.HandlerFunc) *Feed {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f, err := New(Config{
		URL:     "ws://unused",
		RESTURL: srv.URL,
		Symbol:  "plsusdt",
	}, testAssets.Native, testAssets.Quote, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFeed_FetchREST(t *testing.T) {
	f := newRESTFeed(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tickerEndpoint {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "PLSUSDT" {
			t.Errorf("symbol = %s, want PLSUSDT", got)
		}
		w.Write([]byte(`{"symbol":"PLSUSDT","price":"0.00004120"}`))
	})

	q, err := f.Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Price.Rate().String() != "0.0000412" {
		t.Errorf("rate = %s", q.Price.Rate())
	}
	if q.Source != source {
		t.Errorf("source = %s", q.Source)
	}
}

func TestFeed_FetchRESTErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperror.Code
		wantAPI  bool
	}{
		{"api error", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, apperror.CodePriceFetchFailed, true},
		{"server error", http.StatusBadGateway, `bad gateway`, apperror.CodePriceFetchFailed, false},
		{"zero price", http.StatusOK, `{"symbol":"PLSUSDT","price":"0"}`, apperror.CodeInvalidQuote, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRESTFeed(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := f.Fetch(t.Context())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
			var apiErr *apiError
			if errors.As(err, &apiErr) != tt.wantAPI {
				t.Errorf("api error unwrapped = %v, want %v", !tt.wantAPI, tt.wantAPI)
			}
		})
	}
}
