package asset

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Price is the rate of one base unit expressed in the quote asset,
// as observed at a point in time.
type Price struct {
	rate      decimal.Decimal
	base      *Asset
	quote     *Asset
	timestamp time.Time
}

// NewPrice creates a price observation. Negative rates panic.
func NewPrice(base, quote *Asset, rate decimal.Decimal, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}
	return Price{rate: rate, base: base, quote: quote, timestamp: timestamp}
}

func (p Price) Rate() decimal.Decimal { return p.rate }
func (p Price) Base() *Asset          { return p.base }
func (p Price) Quote() *Asset         { return p.quote }
func (p Price) Timestamp() time.Time  { return p.timestamp }

// IsZero reports whether no usable rate is present.
func (p Price) IsZero() bool { return p.base == nil || p.rate.Sign() <= 0 }

// Pair returns e.g. "PLS/USD".
func (p Price) Pair() string {
	if p.base == nil || p.quote == nil {
		return "???/???"
	}
	return fmt.Sprintf("%s/%s", p.base.Symbol(), p.quote.Symbol())
}

// IsStale returns true if the observation is older than maxAge.
func (p Price) IsStale(maxAge time.Duration) bool {
	return time.Since(p.timestamp) > maxAge
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.rate.String(), p.Pair())
}
