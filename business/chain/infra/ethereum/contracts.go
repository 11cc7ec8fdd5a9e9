package ethereum

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ProtocolABI is the subset of the bond protocol ABI the client uses.
const ProtocolABI = `[
	{"inputs":[],"name":"getTokenLiquidity","outputs":[
		{"internalType":"uint256","name":"liquidityETH","type":"uint256"},
		{"internalType":"uint256","name":"liquidityERC20","type":"uint256"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getLiquidityGlobalBonusPercent","outputs":[
		{"internalType":"uint256","name":"","type":"uint256"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"owner","outputs":[
		{"internalType":"address","name":"","type":"address"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"getTokensAmount","outputs":[
		{"internalType":"uint256","name":"","type":"uint256"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"users","outputs":[
		{"internalType":"address","name":"upline","type":"address"},
		{"internalType":"uint256","name":"refLevel","type":"uint256"},
		{"internalType":"uint256","name":"bondsNumber","type":"uint256"},
		{"internalType":"uint256","name":"totalInvested","type":"uint256"},
		{"internalType":"uint256","name":"liquidityCreated","type":"uint256"},
		{"internalType":"uint256","name":"totalRefReward","type":"uint256"},
		{"internalType":"uint256","name":"totalRebonded","type":"uint256"},
		{"internalType":"uint256","name":"totalSold","type":"uint256"},
		{"internalType":"uint256","name":"totalClaimed","type":"uint256"},
		{"internalType":"uint256","name":"refTurnover","type":"uint256"},
		{"internalType":"uint256","name":"refsNumber","type":"uint256"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[
		{"internalType":"address","name":"","type":"address"},
		{"internalType":"uint256","name":"","type":"uint256"}
	],"name":"bonds","outputs":[
		{"internalType":"uint8","name":"bondType","type":"uint8"},
		{"internalType":"uint256","name":"amount","type":"uint256"},
		{"internalType":"uint256","name":"tokens","type":"uint256"},
		{"internalType":"uint256","name":"creationTime","type":"uint256"},
		{"internalType":"bool","name":"isClosed","type":"bool"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"userAddress","type":"address"}],"name":"getUIData","outputs":[
		{"components":[
			{"internalType":"address","name":"upline","type":"address"},
			{"internalType":"uint256","name":"refLevel","type":"uint256"},
			{"internalType":"uint256","name":"bondsNumber","type":"uint256"},
			{"internalType":"uint256","name":"totalInvested","type":"uint256"},
			{"internalType":"uint256","name":"liquidityCreated","type":"uint256"},
			{"internalType":"uint256","name":"totalRefReward","type":"uint256"},
			{"internalType":"uint256","name":"totalRebonded","type":"uint256"},
			{"internalType":"uint256","name":"totalSold","type":"uint256"},
			{"internalType":"uint256","name":"totalClaimed","type":"uint256"},
			{"internalType":"uint256","name":"refTurnover","type":"uint256"},
			{"internalType":"uint256","name":"refsNumber","type":"uint256"},
			{"internalType":"address[]","name":"refs","type":"address[]"}
		],"internalType":"struct Protocol.User","name":"user","type":"tuple"},
		{"internalType":"uint256","name":"userTokensBalance","type":"uint256"},
		{"internalType":"uint256","name":"userHoldBonus","type":"uint256"},
		{"internalType":"uint256","name":"userLiquidityBonus","type":"uint256"},
		{"internalType":"uint256","name":"globalLiquidityBonus","type":"uint256"},
		{"internalType":"bool[]","name":"bondActivations","type":"bool[]"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[
		{"internalType":"address","name":"upline","type":"address"},
		{"internalType":"uint8","name":"bondType","type":"uint8"}
	],"name":"buy","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"bondIdx","type":"uint256"}],"name":"transfer","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"bondIdx","type":"uint256"}],"name":"stake","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"rebond","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"claim","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"sell","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[
		{"internalType":"address","name":"user","type":"address"},
		{"internalType":"uint256","name":"amount","type":"uint256"}
	],"name":"influencerBond","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// TokenABI covers the ERC-20 calls the client uses.
const TokenABI = `[
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[
		{"internalType":"uint256","name":"","type":"uint256"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[
		{"internalType":"address","name":"owner","type":"address"},
		{"internalType":"address","name":"spender","type":"address"}
	],"name":"allowance","outputs":[
		{"internalType":"uint256","name":"","type":"uint256"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[
		{"internalType":"address","name":"spender","type":"address"},
		{"internalType":"uint256","name":"amount","type":"uint256"}
	],"name":"approve","outputs":[
		{"internalType":"bool","name":"","type":"bool"}
	],"stateMutability":"nonpayable","type":"function"}
]`

// RouterABI covers the V2-style router swap used for external sells.
const RouterABI = `[
	{"inputs":[
		{"internalType":"uint256","name":"amountIn","type":"uint256"},
		{"internalType":"uint256","name":"amountOutMin","type":"uint256"},
		{"internalType":"address[]","name":"path","type":"address[]"},
		{"internalType":"address","name":"to","type":"address"},
		{"internalType":"uint256","name":"deadline","type":"uint256"}
	],"name":"swapExactTokensForETH","outputs":[
		{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}
	],"stateMutability":"nonpayable","type":"function"}
]`

// ABIs holds the parsed contract interfaces.
type ABIs struct {
	Protocol abi.ABI
	Token    abi.ABI
	Router   abi.ABI
}

// ParseABIs parses the embedded ABI definitions.
func ParseABIs() (ABIs, error) {
	var (
		out ABIs
		err error
	)
	if out.Protocol, err = abi.JSON(strings.NewReader(ProtocolABI)); err != nil {
		return ABIs{}, err
	}
	if out.Token, err = abi.JSON(strings.NewReader(TokenABI)); err != nil {
		return ABIs{}, err
	}
	if out.Router, err = abi.JSON(strings.NewReader(RouterABI)); err != nil {
		return ABIs{}, err
	}
	return out, nil
}

// uiUser mirrors the user tuple returned by getUIData.
type uiUser struct {
	Upline           common.Address
	RefLevel         *big.Int
	BondsNumber      *big.Int
	TotalInvested    *big.Int
	LiquidityCreated *big.Int
	TotalRefReward   *big.Int
	TotalRebonded    *big.Int
	TotalSold        *big.Int
	TotalClaimed     *big.Int
	RefTurnover      *big.Int
	RefsNumber       *big.Int
	Refs             []common.Address
}

// uiDataResult mirrors the getUIData outputs.
type uiDataResult struct {
	User                 uiUser
	UserTokensBalance    *big.Int
	UserHoldBonus        *big.Int
	UserLiquidityBonus   *big.Int
	GlobalLiquidityBonus *big.Int
	BondActivations      []bool
}

// bondResult mirrors the bonds(address,uint256) outputs.
type bondResult struct {
	BondType     uint8
	Amount       *big.Int
	Tokens       *big.Int
	CreationTime *big.Int
	IsClosed     bool
}
