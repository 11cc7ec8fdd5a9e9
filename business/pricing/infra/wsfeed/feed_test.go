package wsfeed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/business/pricing/domain"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

var testAssets = asset.NewSet(asset.ChainIDPulse, common.HexToAddress("0x0000000000000000000000000000000000000a11"))

const tickerFrame = `{"e":"24hrMiniTicker","E":1767225600000,"s":"PLSUSDT","c":"0.0000412","o":"0.00004"}`

func newStream(t *testing.T, frames ...string) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/plsusdt@miniTicker" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		for _, f := range frames {
			if err := conn.Write(r.Context(), websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		conn.Read(r.Context())
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestFeed(t *testing.T, url string) *Feed {
	t.Helper()
	f, err := New(Config{
		URL:            url,
		Symbol:         "PLSUSDT",
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	}, testAssets.Native, testAssets.Quote, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFeed_Parse(t *testing.T) {
	f := newTestFeed(t, "ws://unused")

	tests := []struct {
		name    string
		frame   string
		wantOK  bool
		wantErr bool
	}{
		{name: "ticker", frame: tickerFrame, wantOK: true},
		{name: "other symbol", frame: `{"e":"24hrMiniTicker","s":"ETHUSDT","c":"3000"}`},
		{name: "other event", frame: `{"e":"trade","s":"PLSUSDT","p":"1"}`},
		{name: "zero close", frame: `{"e":"24hrMiniTicker","s":"PLSUSDT","c":"0"}`},
		{name: "bad close", frame: `{"e":"24hrMiniTicker","s":"PLSUSDT","c":"abc"}`, wantErr: true},
		{name: "not json", frame: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok, err := f.parse([]byte(tt.frame))
			if (err != nil) != tt.wantErr || ok != tt.wantOK {
				t.Fatalf("parse = ok %v err %v", ok, err)
			}
			if ok {
				if q.Price.Rate().String() != "0.0000412" {
					t.Errorf("rate = %s", q.Price.Rate())
				}
				if !q.Price.Timestamp().Equal(time.UnixMilli(1767225600000)) {
					t.Errorf("timestamp = %s", q.Price.Timestamp())
				}
			}
		})
	}
}

func TestFeed_RunPublishesTickers(t *testing.T) {
	srv, url := newStream(t, `{"result":null,"id":1}`, tickerFrame)
	defer srv.Close()

	f := newTestFeed(t, url)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.Quote, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.Run(ctx, func(q domain.Quote) { got <- q })
	}()

	select {
	case q := <-got:
		if q.Source != "binance" || q.Price.Rate().String() != "0.0000412" {
			t.Errorf("unexpected quote %v", q)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no quote published")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestFeed_Fetch(t *testing.T) {
	srv, url := newStream(t, tickerFrame)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q, err := newTestFeed(t, url).Fetch(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price.Rate().String() != "0.0000412" {
		t.Errorf("rate = %s", q.Price.Rate())
	}
}
