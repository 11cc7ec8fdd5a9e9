package asset_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/internal/asset"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	set       = asset.NewSet(asset.ChainIDPulse, tokenAddr)
)

func TestAmount_ToDecimal(t *testing.T) {
	onePLS := asset.NewAmount(set.Native, big.NewInt(1e18))

	if onePLS.IsZero() {
		t.Error("expected non-zero amount")
	}
	if !onePLS.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", onePLS.ToDecimal().String())
	}
	if onePLS.String() != "1 PLS" {
		t.Errorf("expected '1 PLS', got '%s'", onePLS.String())
	}
}

func TestAmount_NilRawIsZero(t *testing.T) {
	a := asset.NewAmount(set.Token, nil)
	if !a.IsZero() || a.IsPositive() {
		t.Errorf("expected zero amount, got %s", a)
	}
}

func TestAmount_AddMismatch(t *testing.T) {
	one := asset.NewAmount(set.Native, big.NewInt(1))
	if _, err := one.Add(asset.NewAmount(set.Token, big.NewInt(1))); err == nil {
		t.Error("expected error when adding different assets")
	}

	sum, err := one.Add(one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Raw().Int64() != 2 {
		t.Errorf("expected 2, got %s", sum.Raw())
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "whole", input: "3", want: "3000000000000000000"},
		{name: "fraction", input: "1.5", want: "1500000000000000000"},
		{name: "smallest unit", input: "0.000000000000000001", want: "1"},
		{name: "too precise", input: "0.0000000000000000001", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asset.ParseString(set.Token, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Raw().String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Raw())
			}
		})
	}
}

func TestAsset_Identity(t *testing.T) {
	other := asset.NewSet(asset.ChainIDPulse, tokenAddr)
	if !set.Token.Same(other.Token) {
		t.Error("same chain and address should be the same asset")
	}
	if set.Token.Same(set.Native) {
		t.Error("token and native coin must differ")
	}
	if asset.NewSet(1, tokenAddr).Native.Symbol() != "ETH" {
		t.Error("non-pulse chains default to ETH")
	}
}

func TestPrice_IsZero(t *testing.T) {
	var p asset.Price
	if !p.IsZero() {
		t.Error("empty price should be zero")
	}

	p = asset.NewPrice(set.Native, asset.USD, decimal.RequireFromString("0.00004"), time.Now())
	if p.IsZero() {
		t.Error("expected usable price")
	}
	if p.Pair() != "PLS/USD" {
		t.Errorf("expected PLS/USD, got %s", p.Pair())
	}
}
