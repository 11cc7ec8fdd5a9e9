package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
)

func TestReserveValue(t *testing.T) {
	pool := domain.PoolState{NativeReserve: native(1000), TokenReserve: tokens(2000)}
	empty := domain.EmptyPool(testAssets)

	tests := []struct {
		name   string
		amount string
		pool   domain.PoolState
		want   string
	}{
		{name: "below threshold", amount: "0.09", pool: pool, want: "0.0000"},
		{name: "tiny", amount: "0.000001", pool: pool, want: "0.0000"},
		{name: "zero", amount: "0", pool: pool, want: "0.0000"},
		{name: "empty pool", amount: "10", pool: empty, want: "0.0000"},
		{name: "threshold", amount: "0.1", pool: pool, want: "0.0500"},
		{name: "regular", amount: "5", pool: pool, want: "2.5000"},
		{name: "rounded", amount: "1.23456", pool: pool, want: "0.6173"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReserveValue(decimal.RequireFromString(tt.amount), tt.pool)
			if got != tt.want {
				t.Errorf("ReserveValue(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestQuoteValue(t *testing.T) {
	price := asset.NewPrice(testAssets.Native, asset.USD, decimal.RequireFromString("0.00005"), time.Now())

	tests := []struct {
		name   string
		amount string
		price  asset.Price
		want   string
	}{
		{name: "no price", amount: "100", price: asset.Price{}, want: "0.00"},
		{name: "zero amount", amount: "0", price: price, want: "0.00"},
		{name: "regular", amount: "200000", price: price, want: "10.00"},
		{name: "rounded", amount: "12345", price: price, want: "0.62"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuoteValue(decimal.RequireFromString(tt.amount), tt.price)
			if got != tt.want {
				t.Errorf("QuoteValue(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestViews_UseStoreAndFeed(t *testing.T) {
	store := NewStore(domain.NewState(testAssets))
	store.Update(func(st domain.State) domain.State {
		st.Pool = domain.PoolState{NativeReserve: native(10), TokenReserve: tokens(20)}
		return st
	})

	v := NewViews(store, nil)
	if got := v.ValueInQuoteCurrency(decimal.NewFromInt(5)); got != "0.00" {
		t.Errorf("expected 0.00 without a feed, got %s", got)
	}
	if got := v.ValueInReserveCurrency(decimal.NewFromInt(4)); got != "2.0000" {
		t.Errorf("expected 2.0000, got %s", got)
	}

	v = NewViews(store, fixedPrice{
		price: asset.NewPrice(testAssets.Native, asset.USD, decimal.NewFromInt(2), time.Now()),
		ok:    true,
	})
	if got := v.ValueInQuoteCurrency(decimal.NewFromInt(5)); got != "10.00" {
		t.Errorf("expected 10.00, got %s", got)
	}
}
