package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
)

const (
	zeroQuote   = "0.00"
	zeroReserve = "0.0000"
)

// minReserveValueAmount is the smallest token amount worth converting.
var minReserveValueAmount = decimal.NewFromFloat(0.1)

// Views derives display values from the store and the price feed.
type Views struct {
	store  *Store
	prices PriceSource
}

// NewViews creates Views. prices may be nil.
func NewViews(store *Store, prices PriceSource) *Views {
	return &Views{store: store, prices: prices}
}

// ValueInQuoteCurrency converts amount with the latest price, or returns
// "0.00" when either is missing.
func (v *Views) ValueInQuoteCurrency(amount decimal.Decimal) string {
	var price asset.Price
	if v.prices != nil {
		price, _ = v.prices.Latest()
	}
	return QuoteValue(amount, price)
}

// ValueInReserveCurrency converts amount through the pool reserves.
func (v *Views) ValueInReserveCurrency(amount decimal.Decimal) string {
	return ReserveValue(amount, v.store.Load().Pool)
}

// QuoteValue returns amount*price with two places.
func QuoteValue(amount decimal.Decimal, price asset.Price) string {
	if amount.Sign() <= 0 || price.IsZero() {
		return zeroQuote
	}
	return amount.Mul(price.Rate()).StringFixed(2)
}

// ReserveValue returns amount*nativeReserve/tokenReserve with four places.
// Amounts under 0.1 and empty pools yield "0.0000".
func ReserveValue(amount decimal.Decimal, pool domain.PoolState) string {
	tokenReserve := pool.TokenReserve.ToDecimal()
	if amount.Sign() <= 0 || tokenReserve.Sign() <= 0 || amount.LessThan(minReserveValueAmount) {
		return zeroReserve
	}
	return amount.Mul(pool.NativeReserve.ToDecimal()).Div(tokenReserve).StringFixed(4)
}
