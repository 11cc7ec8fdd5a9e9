package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/httpclient"
	"github.com/fd1az/sam-client/internal/ratelimit"
)

const (
	tickerEndpoint = "/api/v3/ticker/price"
	restTimeout    = 10 * time.Second
)

// restClient reads the last price from the exchange REST API. It backs
// Fetch so one-shot reads do not need a websocket handshake.
type restClient struct {
	client  *httpclient.Client
	limiter *ratelimit.Limiter
}

type tickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// apiError is the exchange's error body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

func newRESTClient(baseURL string, requestsPerMinute int, opts ...httpclient.Option) (*restClient, error) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	opts = append([]httpclient.Option{
		httpclient.WithProviderName(source),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(restTimeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	}, opts...)

	client, err := httpclient.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return &restClient{client: client, limiter: ratelimit.PerMinute(requestsPerMinute)}, nil
}

// price returns the last traded price of symbol.
func (c *restClient) price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	var result tickerPrice
	_, err := c.client.NewRequest().
		SetRoute(tickerEndpoint).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, tickerEndpoint)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodePriceFetchFailed,
			apperror.WithCause(parseAPIError(err)),
			apperror.WithContext("failed to fetch ticker from REST API"))
	}

	if !result.Price.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("no price for %s", symbol)))
	}
	return result.Price, nil
}

// parseAPIError unwraps the exchange error body from a status error.
func parseAPIError(err error) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var apiErr apiError
	if json.Unmarshal(se.Body, &apiErr) == nil && apiErr.Code != 0 {
		return &apiErr
	}
	return err
}
