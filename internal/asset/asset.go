// Package asset models the coins the client handles: the chain's native coin,
// the protocol token and the off-chain quote currency.
// Quantities are kept as raw big.Int values in the smallest unit;
// decimal.Decimal only appears at the display and parsing boundary.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind distinguishes where an asset lives.
type Kind uint8

const (
	KindNative Kind = iota + 1
	KindToken
	KindFiat
)

// Asset is the metadata of a coin. Identity is chain + address, never the symbol.
type Asset struct {
	kind     Kind
	chainID  uint64
	address  common.Address
	symbol   string
	name     string
	decimals uint8
}

// NewNative describes the native coin of a chain.
func NewNative(chainID uint64, symbol, name string) *Asset {
	return newAsset(KindNative, chainID, common.Address{}, symbol, name, 18)
}

// NewToken describes an ERC-20 token.
func NewToken(chainID uint64, addr common.Address, symbol, name string, decimals uint8) *Asset {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero")
	}
	return newAsset(KindToken, chainID, addr, symbol, name, decimals)
}

// NewFiat describes an off-chain currency used for quotes.
func NewFiat(symbol, name string) *Asset {
	return newAsset(KindFiat, 0, common.Address{}, symbol, name, 2)
}

func newAsset(kind Kind, chainID uint64, addr common.Address, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{
		kind:     kind,
		chainID:  chainID,
		address:  addr,
		symbol:   symbol,
		name:     name,
		decimals: decimals,
	}
}

func (a *Asset) Kind() Kind              { return a.kind }
func (a *Asset) ChainID() uint64         { return a.chainID }
func (a *Asset) Address() common.Address { return a.address }
func (a *Asset) Symbol() string          { return a.symbol }
func (a *Asset) Decimals() uint8         { return a.decimals }

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Same reports whether both describe the same coin.
func (a *Asset) Same(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.kind == other.kind && a.chainID == other.chainID && a.address == other.address &&
		(a.kind != KindFiat || a.symbol == other.symbol)
}

func (a *Asset) String() string {
	switch a.kind {
	case KindToken:
		return fmt.Sprintf("%s(chain:%d/%s)", a.symbol, a.chainID, a.address.Hex())
	case KindNative:
		return fmt.Sprintf("%s(chain:%d/native)", a.symbol, a.chainID)
	default:
		return a.symbol
	}
}

// USD is the quote currency of the price feed.
var USD = NewFiat("USD", "US Dollar")

// ChainIDPulse is the PulseChain mainnet chain id.
const ChainIDPulse = 369

// Set groups the assets of one deployment.
type Set struct {
	Native *Asset
	Token  *Asset
	Quote  *Asset
}

// NewSet builds the asset set for a chain and token address.
func NewSet(chainID uint64, token common.Address) Set {
	nativeSymbol := "ETH"
	if chainID == ChainIDPulse {
		nativeSymbol = "PLS"
	}
	return Set{
		Native: NewNative(chainID, nativeSymbol, "Native coin"),
		Token:  NewToken(chainID, token, "SAM", "SAM token", 18),
		Quote:  USD,
	}
}
