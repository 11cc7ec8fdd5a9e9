package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: cannot operate on different assets")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
)

// Amount is an immutable quantity of an asset in its smallest unit.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount copies raw into a new Amount. Negative values panic.
func NewAmount(a *Asset, raw *big.Int) Amount {
	if a == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		raw = new(big.Int)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: a}
}

// Zero creates a zero Amount for the given asset.
func Zero(a *Asset) Amount {
	return NewAmount(a, new(big.Int))
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// Asset returns the asset this amount is denominated in.
func (a Amount) Asset() *Asset { return a.asset }

// IsZero returns true if the amount is zero or unset.
func (a Amount) IsZero() bool { return a.raw == nil || a.raw.Sign() == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.raw != nil && a.raw.Sign() > 0 }

// Add adds two amounts of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.asset.Same(b.asset) {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, symbolOf(a), symbolOf(b))
	}
	return NewAmount(a.asset, new(big.Int).Add(a.Raw(), b.Raw())), nil
}

// Cmp compares two amounts of the same asset.
func (a Amount) Cmp(b Amount) (int, error) {
	if !a.asset.Same(b.asset) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, symbolOf(a), symbolOf(b))
	}
	return a.Raw().Cmp(b.Raw()), nil
}

// Equals returns true if both amounts have the same asset and value.
func (a Amount) Equals(b Amount) bool {
	return a.asset.Same(b.asset) && a.Raw().Cmp(b.Raw()) == 0
}

// ToDecimal converts to a display value. Boundary use only.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// ParseDecimal converts a display value into an Amount.
func ParseDecimal(a *Asset, d decimal.Decimal) (Amount, error) {
	if a == nil {
		return Amount{}, ErrNilAsset
	}
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	scaled := d.Shift(int32(a.Decimals()))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, ErrTooManyDecimals
	}
	return NewAmount(a, scaled.BigInt()), nil
}

// ParseString parses a decimal string such as "1.25".
func ParseString(a *Asset, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("asset: invalid decimal string: %w", err)
	}
	return ParseDecimal(a, d)
}

// String returns e.g. "1.5 PLS".
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), symbolOf(a))
}

// StringFixed returns the value with a fixed number of places.
func (a Amount) StringFixed(places int32) string {
	return fmt.Sprintf("%s %s", a.ToDecimal().StringFixed(places), symbolOf(a))
}

func symbolOf(a Amount) string {
	if a.asset == nil {
		return "???"
	}
	return a.asset.Symbol()
}
