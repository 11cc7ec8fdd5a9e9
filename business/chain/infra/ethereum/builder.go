package ethereum

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/business/chain/domain"
)

// Ensure Builder implements CallBuilder.
var _ app.CallBuilder = (*Builder)(nil)

// Addresses are the contracts a Builder encodes calls for.
type Addresses struct {
	Token         common.Address
	Protocol      common.Address
	Router        common.Address
	WrappedNative common.Address
}

// Builder ABI-encodes protocol, token and router calls.
type Builder struct {
	abis  ABIs
	addrs Addresses
}

// NewBuilder creates a Builder.
func NewBuilder(abis ABIs, addrs Addresses) *Builder {
	return &Builder{abis: abis, addrs: addrs}
}

func (b *Builder) Buy(upline common.Address, bondType uint8, value *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, value, "buy", upline, bondType)
}

func (b *Builder) Transfer(bondIndex *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, nil, "transfer", bondIndex)
}

func (b *Builder) Stake(bondIndex *big.Int, value *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, value, "stake", bondIndex)
}

func (b *Builder) Rebond(amount *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, nil, "rebond", amount)
}

func (b *Builder) Claim(amount *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, nil, "claim", amount)
}

func (b *Builder) Sell(amount *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, nil, "sell", amount)
}

func (b *Builder) InfluencerBond(user common.Address, amount *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Protocol, b.addrs.Protocol, nil, "influencerBond", user, amount)
}

// Approve encodes token.approve(protocol, amount).
func (b *Builder) Approve(amount *big.Int) (domain.Call, error) {
	return b.pack(b.abis.Token, b.addrs.Token, nil, "approve", b.addrs.Protocol, amount)
}

// SwapExactTokensForETH encodes a router sell along [token, wrapped native]
// with amountOutMin zero.
func (b *Builder) SwapExactTokensForETH(amount *big.Int, to common.Address, deadline time.Time) (domain.Call, error) {
	path := []common.Address{b.addrs.Token, b.addrs.WrappedNative}
	return b.pack(b.abis.Router, b.addrs.Router, nil, "swapExactTokensForETH",
		amount, big.NewInt(0), path, to, big.NewInt(deadline.Unix()))
}

func (b *Builder) pack(contract abi.ABI, to common.Address, value *big.Int, method string, args ...any) (domain.Call, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return domain.Call{}, fmt.Errorf("pack %s: %w", method, err)
	}
	return domain.Call{Method: method, To: to, Data: data, Value: value}, nil
}
