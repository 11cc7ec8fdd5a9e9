// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
)

// ChainReader reads protocol and token state.
type ChainReader interface {
	NativeBalance(ctx context.Context, addr common.Address) (asset.Amount, error)
	TokenBalance(ctx context.Context, addr common.Address) (asset.Amount, error)

	// TokenAllowance returns what owner allows the protocol contract to spend.
	TokenAllowance(ctx context.Context, owner common.Address) (asset.Amount, error)

	// TokenLiquidity returns the pool's native and token reserves.
	TokenLiquidity(ctx context.Context) (native asset.Amount, token asset.Amount, err error)

	// GlobalLiquidityBonus returns the protocol-wide bonus in percent.
	GlobalLiquidityBonus(ctx context.Context) (decimal.Decimal, error)

	Owner(ctx context.Context) (common.Address, error)
	BondsCount(ctx context.Context, user common.Address) (uint64, error)
	Bond(ctx context.Context, user common.Address, index uint64) (domain.Bond, error)
	UIData(ctx context.Context, user common.Address) (domain.UIData, error)

	// TokensAmount quotes the tokens a bond of the given native amount buys.
	TokensAmount(ctx context.Context, native asset.Amount) (asset.Amount, error)
}

// CallBuilder encodes contract calls.
type CallBuilder interface {
	Buy(upline common.Address, bondType uint8, value *big.Int) (domain.Call, error)
	Transfer(bondIndex *big.Int) (domain.Call, error)
	Stake(bondIndex *big.Int, value *big.Int) (domain.Call, error)
	Rebond(amount *big.Int) (domain.Call, error)
	Claim(amount *big.Int) (domain.Call, error)
	Sell(amount *big.Int) (domain.Call, error)
	InfluencerBond(user common.Address, amount *big.Int) (domain.Call, error)

	// Approve lets the protocol contract spend amount tokens.
	Approve(amount *big.Int) (domain.Call, error)

	// SwapExactTokensForETH sells amount tokens on the external router.
	SwapExactTokensForETH(amount *big.Int, to common.Address, deadline time.Time) (domain.Call, error)
}

// TxSender is the signing wallet.
type TxSender interface {
	// From returns the signing address or an error when no signer is configured.
	From() (common.Address, error)

	// EstimateGas simulates the call and returns the gas it needs.
	EstimateGas(ctx context.Context, from common.Address, call domain.Call) (uint64, error)

	// Send signs and broadcasts the call.
	Send(ctx context.Context, call domain.Call, gas uint64) (common.Hash, error)

	// WaitMined blocks until the transaction has enough confirmations.
	WaitMined(ctx context.Context, hash common.Hash) (*domain.Receipt, error)
}

// ErrorDecoder maps chain and wallet errors to display text.
type ErrorDecoder interface {
	Decode(err error) string
}

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// PriceSource provides the latest quote-currency price of the native coin.
type PriceSource interface {
	Latest() (asset.Price, bool)
}

// UplineSource provides a stored referral address.
type UplineSource interface {
	Referral(ctx context.Context) (common.Address, bool)
}

// Refresher reloads state after a confirmed write.
type Refresher interface {
	Refresh(ctx context.Context)
}
