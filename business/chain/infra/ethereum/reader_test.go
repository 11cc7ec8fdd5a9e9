package ethereum

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

var (
	testAssets = asset.NewSet(asset.ChainIDPulse, testAddrs.Token)
	testUser   = common.HexToAddress("0x7000000000000000000000000000000000000007")
)

func ether(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), big.NewInt(1e18))
}

// fakeBackend answers eth_call by method selector.
type fakeBackend struct {
	t    *testing.T
	abis ABIs

	mu      sync.Mutex
	results map[string][]any
	errs    map[string]error
	calls   map[string]int
	balance *big.Int
}

func newFakeBackend(t *testing.T, abis ABIs) *fakeBackend {
	return &fakeBackend{
		t:       t,
		abis:    abis,
		results: make(map[string][]any),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		balance: ether(3),
	}
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, contract := range []struct {
		to   common.Address
		abis map[string]methodLike
	}{
		{testAddrs.Protocol, methods(f.abis.Protocol.Methods)},
		{testAddrs.Token, methods(f.abis.Token.Methods)},
	} {
		if *msg.To != contract.to {
			continue
		}
		for name, m := range contract.abis {
			if !bytes.Equal(msg.Data[:4], m.id) {
				continue
			}
			f.calls[name]++
			if err := f.errs[name]; err != nil {
				return nil, err
			}
			out, err := m.pack(f.results[name]...)
			if err != nil {
				f.t.Fatalf("pack %s: %v", name, err)
			}
			return out, nil
		}
	}
	return nil, errors.New("unknown call")
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func newTestReader(t *testing.T) (*Reader, *fakeBackend) {
	t.Helper()
	abis := mustABIs(t)
	backend := newFakeBackend(t, abis)
	r, err := NewReader(backend, abis, testAssets, ReaderConfig{
		Token:         testAddrs.Token,
		Protocol:      testAddrs.Protocol,
		QuoteCacheTTL: time.Minute,
	}, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	t.Cleanup(r.Close)
	return r, backend
}

func TestReader_Balances(t *testing.T) {
	r, backend := newTestReader(t)
	backend.results["balanceOf"] = []any{ether(50)}
	backend.results["allowance"] = []any{ether(7)}

	ctx := context.Background()
	nativeBal, err := r.NativeBalance(ctx, testUser)
	if err != nil || !nativeBal.Equals(asset.NewAmount(testAssets.Native, ether(3))) {
		t.Errorf("native balance = %s, %v", nativeBal, err)
	}
	tokenBal, err := r.TokenBalance(ctx, testUser)
	if err != nil || !tokenBal.Equals(asset.NewAmount(testAssets.Token, ether(50))) {
		t.Errorf("token balance = %s, %v", tokenBal, err)
	}
	allowance, err := r.TokenAllowance(ctx, testUser)
	if err != nil || !allowance.Equals(asset.NewAmount(testAssets.Token, ether(7))) {
		t.Errorf("allowance = %s, %v", allowance, err)
	}
}

func TestReader_PoolAndBonus(t *testing.T) {
	r, backend := newTestReader(t)
	backend.results["getTokenLiquidity"] = []any{ether(1000), ether(2000)}
	backend.results["getLiquidityGlobalBonusPercent"] = []any{big.NewInt(250)}

	native, token, err := r.TokenLiquidity(context.Background())
	if err != nil {
		t.Fatalf("liquidity: %v", err)
	}
	if native.ToDecimal().String() != "1000" || token.ToDecimal().String() != "2000" {
		t.Errorf("reserves = %s / %s", native, token)
	}

	bonus, err := r.GlobalLiquidityBonus(context.Background())
	if err != nil {
		t.Fatalf("bonus: %v", err)
	}
	if bonus.StringFixed(2) != "2.50" {
		t.Errorf("bonus = %s", bonus)
	}
}

func TestReader_OwnerIsCached(t *testing.T) {
	r, backend := newTestReader(t)
	owner := common.HexToAddress("0x8000000000000000000000000000000000000008")
	backend.results["owner"] = []any{owner}

	for i := 0; i < 3; i++ {
		got, err := r.Owner(context.Background())
		if err != nil || got != owner {
			t.Fatalf("owner = %s, %v", got.Hex(), err)
		}
	}
	if n := backend.count("owner"); n != 1 {
		t.Errorf("expected one owner call, got %d", n)
	}
}

func TestReader_BondsAndUIData(t *testing.T) {
	r, backend := newTestReader(t)
	ref := common.HexToAddress("0x9000000000000000000000000000000000000009")

	backend.results["users"] = []any{
		ref, big.NewInt(1), big.NewInt(2), ether(1), ether(1), ether(0),
		ether(0), ether(0), ether(0), ether(0), big.NewInt(1),
	}
	backend.results["bonds"] = []any{uint8(2), ether(5), ether(10), big.NewInt(1_700_000_000), true}
	backend.results["getUIData"] = []any{
		uiUser{
			Upline: ref, RefLevel: big.NewInt(1), BondsNumber: big.NewInt(2),
			TotalInvested: ether(6), LiquidityCreated: ether(3), TotalRefReward: ether(1),
			TotalRebonded: ether(2), TotalSold: ether(0), TotalClaimed: ether(4),
			RefTurnover: ether(9), RefsNumber: big.NewInt(1), Refs: []common.Address{ref},
		},
		ether(11), big.NewInt(150), big.NewInt(75), big.NewInt(250),
		[]bool{true, true, false, true, true},
	}

	ctx := context.Background()
	n, err := r.BondsCount(ctx, testUser)
	if err != nil || n != 2 {
		t.Fatalf("bonds count = %d, %v", n, err)
	}

	b, err := r.Bond(ctx, testUser, 1)
	if err != nil {
		t.Fatalf("bond: %v", err)
	}
	if b.Index != 1 || b.Type != 2 || !b.Closed || b.CreatedAt.Unix() != 1_700_000_000 {
		t.Errorf("unexpected bond %+v", b)
	}

	ui, err := r.UIData(ctx, testUser)
	if err != nil {
		t.Fatalf("ui data: %v", err)
	}
	p := ui.Position
	if p.Upline != ref || p.BondsNumber != 2 || len(p.Referrals) != 1 {
		t.Errorf("unexpected position %+v", p)
	}
	if p.AvailableAmount.ToDecimal().String() != "11" {
		t.Errorf("available = %s", p.AvailableAmount)
	}
	if p.HoldBonus.StringFixed(2) != "1.50" || p.LiquidityBonus.StringFixed(2) != "0.75" {
		t.Errorf("bonuses = %s / %s", p.HoldBonus, p.LiquidityBonus)
	}
	if ui.BondActivations != [4]bool{true, true, false, true} {
		t.Errorf("activations = %v", ui.BondActivations)
	}
}

func TestReader_TokensAmountCached(t *testing.T) {
	r, backend := newTestReader(t)
	backend.results["getTokensAmount"] = []any{ether(20)}

	in := asset.NewAmount(testAssets.Native, ether(1))
	for i := 0; i < 2; i++ {
		out, err := r.TokensAmount(context.Background(), in)
		if err != nil || out.ToDecimal().String() != "20" {
			t.Fatalf("tokens amount = %s, %v", out, err)
		}
	}
	if n := backend.count("getTokensAmount"); n != 1 {
		t.Errorf("expected one call, got %d", n)
	}
}

func TestReader_ErrorCodes(t *testing.T) {
	r, backend := newTestReader(t)
	backend.errs["balanceOf"] = errors.New("execution reverted: paused")
	backend.errs["allowance"] = errors.New("connection refused")

	bal, err := r.TokenBalance(context.Background(), testUser)
	if apperror.GetCode(err) != apperror.CodeContractCallFailed {
		t.Errorf("revert code = %v", err)
	}
	if !bal.IsZero() {
		t.Error("failed read must return zero")
	}

	_, err = r.TokenAllowance(context.Background(), testUser)
	if apperror.GetCode(err) != apperror.CodeEthereumRPCError {
		t.Errorf("rpc code = %v", err)
	}
}

type methodLike struct {
	id   []byte
	pack func(args ...any) ([]byte, error)
}

func methods(in map[string]abi.Method) map[string]methodLike {
	out := make(map[string]methodLike, len(in))
	for name, m := range in {
		out[name] = methodLike{id: m.ID, pack: m.Outputs.Pack}
	}
	return out
}
