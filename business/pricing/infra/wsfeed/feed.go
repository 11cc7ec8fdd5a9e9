// Package wsfeed consumes a Binance-style <symbol>@miniTicker stream for the
// native coin price.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sam-client/business/pricing/app"
	"github.com/fd1az/sam-client/business/pricing/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/httpclient"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/wsconn"
)

const (
	tracerName = "github.com/fd1az/sam-client/business/pricing/infra/wsfeed"
	source     = "binance"

	eventMiniTicker = "24hrMiniTicker"
)

var _ app.PriceFeed = (*Feed)(nil)

// Config holds configuration for the websocket feed.
type Config struct {
	URL     string // stream base, e.g. wss://stream.binance.com:9443
	RESTURL string // optional REST base for Fetch, e.g. https://api.binance.com
	Symbol  string // e.g. PLSUSDT

	RequestsPerMinute int // REST budget
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	PingInterval      time.Duration
}

// miniTicker is the subset of the 24hr mini ticker event we use.
// Stream: <symbol>@miniTicker
type miniTicker struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"` // ms
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// Feed streams quotes over a websocket.
type Feed struct {
	config Config
	base   *asset.Asset
	quote  *asset.Asset
	rest   *restClient // nil means Fetch uses a one-shot stream
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// New creates a Feed quoting base in quote.
func New(cfg Config, base, quote *asset.Asset, log logger.LoggerInterface, opts ...httpclient.Option) (*Feed, error) {
	if cfg.URL == "" || cfg.Symbol == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("websocket url and symbol are required"))
	}

	f := &Feed{
		config: cfg,
		base:   base,
		quote:  quote,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if cfg.RESTURL != "" {
		rest, err := newRESTClient(cfg.RESTURL, cfg.RequestsPerMinute, opts...)
		if err != nil {
			return nil, err
		}
		f.rest = rest
	}
	return f, nil
}

// Name implements app.PriceFeed.
func (f *Feed) Name() string { return source }

// StreamURL returns the raw stream endpoint for the configured symbol.
func (f *Feed) StreamURL() string {
	return fmt.Sprintf("%s/ws/%s@miniTicker",
		strings.TrimSuffix(f.config.URL, "/"), strings.ToLower(f.config.Symbol))
}

// Run streams quotes until ctx is done, reconnecting with backoff.
func (f *Feed) Run(ctx context.Context, publish func(domain.Quote)) error {
	client, err := f.dial(true)
	if err != nil {
		return err
	}
	defer client.Close()

	client.OnMessage(func(ctx context.Context, msg []byte) {
		q, ok, err := f.parse(msg)
		if err != nil {
			f.logger.Warn(ctx, "bad ticker frame", "feed", source, "error", err)
			return
		}
		if ok {
			publish(q)
		}
	})
	client.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			f.logger.Warn(context.Background(), "price stream state change", "state", string(state), "error", err)
			return
		}
		f.logger.Debug(context.Background(), "price stream state change", "state", string(state))
	})

	if err := client.ConnectWithRetry(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return apperror.New(apperror.CodeWebSocketConnectionError, apperror.WithCause(err))
	}

	<-ctx.Done()
	return nil
}

// Fetch returns the current price from the REST ticker when configured,
// otherwise from the first frame of a short-lived stream connection.
func (f *Feed) Fetch(ctx context.Context) (domain.Quote, error) {
	ctx, span := f.tracer.Start(ctx, "wsfeed.fetch",
		trace.WithAttributes(attribute.String("symbol", f.config.Symbol)),
	)
	defer span.End()

	if f.rest != nil {
		rate, err := f.rest.price(ctx, strings.ToUpper(f.config.Symbol))
		if err != nil {
			span.RecordError(err)
			return domain.Quote{}, err
		}
		span.SetAttributes(attribute.String("source", "rest"))
		return domain.NewQuote(asset.NewPrice(f.base, f.quote, rate, time.Now()), source), nil
	}

	client, err := f.dial(false)
	if err != nil {
		return domain.Quote{}, err
	}
	defer client.Close()

	got := make(chan domain.Quote, 1)
	client.OnMessage(func(_ context.Context, msg []byte) {
		if q, ok, err := f.parse(msg); err == nil && ok {
			select {
			case got <- q:
			default:
			}
		}
	})

	if err := client.Connect(ctx); err != nil {
		span.RecordError(err)
		return domain.Quote{}, apperror.New(apperror.CodeWebSocketConnectionError, apperror.WithCause(err))
	}

	select {
	case q := <-got:
		return q, nil
	case <-ctx.Done():
		return domain.Quote{}, apperror.New(apperror.CodePriceUnavailable, apperror.WithCause(ctx.Err()))
	}
}

func (f *Feed) dial(reconnect bool) (*wsconn.Client, error) {
	cfg := wsconn.DefaultConfig(f.StreamURL(), source)
	cfg.AutoReconnect = reconnect
	if f.config.InitialBackoff > 0 {
		cfg.InitialBackoff = f.config.InitialBackoff
	}
	if f.config.MaxBackoff > 0 {
		cfg.MaxBackoff = f.config.MaxBackoff
	}
	cfg.PingInterval = f.config.PingInterval

	client, err := wsconn.New(cfg)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}
	return client, nil
}

// parse decodes a ticker frame. ok is false for frames that are not mini tickers.
func (f *Feed) parse(msg []byte) (domain.Quote, bool, error) {
	var t miniTicker
	if err := json.Unmarshal(msg, &t); err != nil {
		return domain.Quote{}, false, err
	}
	if t.EventType != eventMiniTicker || !strings.EqualFold(t.Symbol, f.config.Symbol) {
		return domain.Quote{}, false, nil
	}

	rate, err := decimal.NewFromString(t.Close)
	if err != nil {
		return domain.Quote{}, false, fmt.Errorf("parse close %q: %w", t.Close, err)
	}
	if !rate.IsPositive() {
		return domain.Quote{}, false, nil
	}

	at := time.Now()
	if t.EventTime > 0 {
		at = time.UnixMilli(t.EventTime)
	}
	return domain.NewQuote(asset.NewPrice(f.base, f.quote, rate, at), source), true, nil
}
