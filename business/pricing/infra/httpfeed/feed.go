// Package httpfeed polls a CoinGecko-style simple/price endpoint for the
// native coin price.
package httpfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sam-client/business/pricing/app"
	"github.com/fd1az/sam-client/business/pricing/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/circuitbreaker"
	"github.com/fd1az/sam-client/internal/httpclient"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/sam-client/business/pricing/infra/httpfeed"
	source     = "coingecko"
	pricePath  = "/simple/price"
)

var _ app.PriceFeed = (*Feed)(nil)

// Config holds configuration for the HTTP feed.
type Config struct {
	BaseURL           string
	CoinID            string // e.g. "pulsechain"
	VsCurrency        string // e.g. "usd"
	PollInterval      time.Duration
	RequestsPerMinute int
	Timeout           time.Duration
}

// Feed polls the price endpoint.
type Feed struct {
	config  Config
	base    *asset.Asset
	quote   *asset.Asset
	client  *httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[decimal.Decimal]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	now     func() time.Time
}

// New creates a Feed quoting base in quote.
func New(cfg Config, base, quote *asset.Asset, log logger.LoggerInterface, opts ...httpclient.Option) (*Feed, error) {
	if cfg.CoinID == "" || cfg.VsCurrency == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("coin id and vs currency are required"))
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts = append([]httpclient.Option{
		httpclient.WithProviderName(source),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	}, opts...)
	client, err := httpclient.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("price-http")
	cbCfg.Timeout = cfg.PollInterval

	return &Feed{
		config:  cfg,
		base:    base,
		quote:   quote,
		client:  client,
		limiter: ratelimit.PerMinute(cfg.RequestsPerMinute),
		cb:      circuitbreaker.New[decimal.Decimal](cbCfg),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}, nil
}

// Name implements app.PriceFeed.
func (f *Feed) Name() string { return source }

// Fetch requests the current price once.
func (f *Feed) Fetch(ctx context.Context) (domain.Quote, error) {
	ctx, span := f.tracer.Start(ctx, "httpfeed.fetch",
		trace.WithAttributes(attribute.String("coin", f.config.CoinID)),
	)
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	rate, err := f.cb.Execute(func() (decimal.Decimal, error) {
		return f.request(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if apperror.IsAppError(err) {
			return domain.Quote{}, err
		}
		return domain.Quote{}, apperror.New(apperror.CodePriceFetchFailed, apperror.WithCause(err))
	}

	span.SetAttributes(attribute.String("rate", rate.String()))
	span.SetStatus(codes.Ok, "fetched")
	return domain.NewQuote(asset.NewPrice(f.base, f.quote, rate, f.now()), source), nil
}

func (f *Feed) request(ctx context.Context) (decimal.Decimal, error) {
	var body map[string]map[string]decimal.Decimal
	_, err := f.client.NewRequest().
		SetQueryParam("ids", f.config.CoinID).
		SetQueryParam("vs_currencies", f.config.VsCurrency).
		SetResult(&body).
		Get(ctx, pricePath)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := body[f.config.CoinID][f.config.VsCurrency]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("no %s/%s price in response", f.config.CoinID, f.config.VsCurrency)))
	}
	return rate, nil
}

// Run fetches immediately and then every PollInterval until ctx is done.
// Failed polls are logged and retried on the next tick.
func (f *Feed) Run(ctx context.Context, publish func(domain.Quote)) error {
	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		if q, err := f.Fetch(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.logger.Warn(ctx, "price poll failed", "feed", source, "error", err)
		} else {
			publish(q)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
