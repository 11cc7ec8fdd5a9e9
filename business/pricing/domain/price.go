// Package domain contains the core domain types for the pricing context.
package domain

import (
	"time"

	"github.com/fd1az/sam-client/internal/asset"
)

// Quote is one observation of the native coin price in the quote currency.
type Quote struct {
	Price  asset.Price
	Source string // "coingecko", "binance", ...
}

// NewQuote creates a Quote.
func NewQuote(price asset.Price, source string) Quote {
	return Quote{Price: price, Source: source}
}

// Age returns how old the quote is at now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Price.Timestamp())
}

// Usable reports whether the quote has a positive rate and is not older than maxAge.
// A zero maxAge disables the age check.
func (q Quote) Usable(now time.Time, maxAge time.Duration) bool {
	if q.Price.IsZero() {
		return false
	}
	return maxAge <= 0 || q.Age(now) <= maxAge
}
