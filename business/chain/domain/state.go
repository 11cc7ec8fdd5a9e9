// Package domain contains the core domain types for the chain context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/internal/asset"
)

// BondTypes is the number of bond types the protocol knows about.
const BondTypes = 4

// DefaultBondActivations is used until the protocol reports its own.
var DefaultBondActivations = [BondTypes]bool{true, false, false, false}

// AccountSnapshot holds the connected account's balances.
type AccountSnapshot struct {
	Address        common.Address
	NativeBalance  asset.Amount
	TokenBalance   asset.Amount
	TokenAllowance asset.Amount // granted to the protocol contract
}

// EmptyAccount is the snapshot used when no address is connected.
func EmptyAccount(assets asset.Set) AccountSnapshot {
	return AccountSnapshot{
		NativeBalance:  asset.Zero(assets.Native),
		TokenBalance:   asset.Zero(assets.Token),
		TokenAllowance: asset.Zero(assets.Token),
	}
}

// Connected reports whether the snapshot belongs to a real address.
func (a AccountSnapshot) Connected() bool {
	return a.Address != (common.Address{})
}

// PoolState is the protocol-wide liquidity picture.
type PoolState struct {
	NativeReserve        asset.Amount
	TokenReserve         asset.Amount
	GlobalLiquidityBonus decimal.Decimal // percent
}

// EmptyPool returns a zero pool for the given assets.
func EmptyPool(assets asset.Set) PoolState {
	return PoolState{
		NativeReserve:        asset.Zero(assets.Native),
		TokenReserve:         asset.Zero(assets.Token),
		GlobalLiquidityBonus: decimal.Zero,
	}
}

// UserPosition is the per-user protocol record as exposed by getUIData.
type UserPosition struct {
	Upline           common.Address
	RefLevel         uint64
	BondsNumber      uint64
	TotalInvested    asset.Amount
	LiquidityCreated asset.Amount
	TotalRefReward   asset.Amount
	TotalRebonded    asset.Amount
	TotalSold        asset.Amount
	TotalClaimed     asset.Amount
	RefTurnover      asset.Amount
	AvailableAmount  asset.Amount

	// Bonus values are percentages.
	HoldBonus            decimal.Decimal
	LiquidityBonus       decimal.Decimal
	GlobalLiquidityBonus decimal.Decimal

	BondTypeStatus  [BondTypes]bool
	ReferralsNumber uint64
	Referrals       []common.Address
}

// Bond is one bond record of a user, addressed by its index.
type Bond struct {
	Index     uint64
	Type      uint8
	Amount    asset.Amount // native paid in
	Tokens    asset.Amount
	CreatedAt time.Time
	Closed    bool
}

// UIData is the aggregated read returned by the protocol's getUIData.
type UIData struct {
	Position        UserPosition
	BondActivations [BondTypes]bool
}

// State is one immutable snapshot of everything the client knows.
// A refresh builds a new State; existing values are never mutated.
type State struct {
	Pool            PoolState
	Account         AccountSnapshot
	Position        *UserPosition
	Bonds           []Bond
	BondActivations [BondTypes]bool
	Owner           common.Address
	UpdatedAt       time.Time
	Loading         bool
}

// NewState returns the initial state.
func NewState(assets asset.Set) State {
	return State{
		Pool:            EmptyPool(assets),
		Account:         EmptyAccount(assets),
		BondActivations: DefaultBondActivations,
	}
}

// Clone returns a copy whose slices and pointers are not shared.
func (s State) Clone() State {
	out := s
	if s.Position != nil {
		p := *s.Position
		p.Referrals = append([]common.Address(nil), s.Position.Referrals...)
		out.Position = &p
	}
	if s.Bonds != nil {
		out.Bonds = append([]Bond(nil), s.Bonds...)
	}
	return out
}

// BonusPercent converts a protocol bonus value (basis of 10000) to percent.
func BonusPercent(raw decimal.Decimal) decimal.Decimal {
	return raw.Div(decimal.NewFromInt(10000)).Mul(decimal.NewFromInt(100))
}
