package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

var (
	testToken    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testUser     = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testOwner    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	testAssets   = asset.NewSet(asset.ChainIDPulse, testToken)
	errRPCFailed = errors.New("rpc unavailable")
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

func native(v int64) asset.Amount {
	return asset.NewAmount(testAssets.Native, new(big.Int).Mul(big.NewInt(v), big.NewInt(1e18)))
}

func tokens(v int64) asset.Amount {
	return asset.NewAmount(testAssets.Token, new(big.Int).Mul(big.NewInt(v), big.NewInt(1e18)))
}

// fakeReader serves fixed chain data. Setting fail makes every read error.
type fakeReader struct {
	mu sync.Mutex

	nativeBalance asset.Amount
	tokenBalance  asset.Amount
	allowance     asset.Amount
	nativeReserve asset.Amount
	tokenReserve  asset.Amount
	bonus         decimal.Decimal
	bonds         []domain.Bond
	fail          bool

	uiCalls int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		nativeBalance: native(10),
		tokenBalance:  tokens(50),
		allowance:     asset.Zero(testAssets.Token),
		nativeReserve: native(1000),
		tokenReserve:  tokens(2000),
		bonus:         decimal.NewFromFloat(2.5),
		bonds: []domain.Bond{
			{Type: 0, Amount: native(1), Tokens: tokens(2)},
			{Type: 1, Amount: native(3), Tokens: tokens(6)},
			{Type: 2, Amount: native(5), Tokens: tokens(10)},
		},
	}
}

func (f *fakeReader) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeReader) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeReader) NativeBalance(context.Context, common.Address) (asset.Amount, error) {
	if f.failing() {
		return asset.Amount{}, errRPCFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nativeBalance, nil
}

func (f *fakeReader) TokenBalance(context.Context, common.Address) (asset.Amount, error) {
	if f.failing() {
		return asset.Amount{}, errRPCFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenBalance, nil
}

func (f *fakeReader) TokenAllowance(context.Context, common.Address) (asset.Amount, error) {
	if f.failing() {
		return asset.Amount{}, errRPCFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allowance, nil
}

func (f *fakeReader) TokenLiquidity(context.Context) (asset.Amount, asset.Amount, error) {
	if f.failing() {
		return asset.Amount{}, asset.Amount{}, errRPCFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nativeReserve, f.tokenReserve, nil
}

func (f *fakeReader) GlobalLiquidityBonus(context.Context) (decimal.Decimal, error) {
	if f.failing() {
		return decimal.Zero, errRPCFailed
	}
	return f.bonus, nil
}

func (f *fakeReader) Owner(context.Context) (common.Address, error) {
	if f.failing() {
		return common.Address{}, errRPCFailed
	}
	return testOwner, nil
}

func (f *fakeReader) BondsCount(context.Context, common.Address) (uint64, error) {
	if f.failing() {
		return 0, errRPCFailed
	}
	return uint64(len(f.bonds)), nil
}

func (f *fakeReader) Bond(_ context.Context, _ common.Address, index uint64) (domain.Bond, error) {
	if f.failing() {
		return domain.Bond{}, errRPCFailed
	}
	// Later bonds answer first to exercise ordering.
	time.Sleep(time.Duration(len(f.bonds)-int(index)) * time.Millisecond)
	return f.bonds[index], nil
}

func (f *fakeReader) UIData(context.Context, common.Address) (domain.UIData, error) {
	f.mu.Lock()
	f.uiCalls++
	f.mu.Unlock()
	if f.failing() {
		return domain.UIData{}, errRPCFailed
	}
	return domain.UIData{
		Position: domain.UserPosition{
			Upline:          testOwner,
			BondsNumber:     uint64(len(f.bonds)),
			AvailableAmount: tokens(7),
		},
		BondActivations: [domain.BondTypes]bool{true, true, false, false},
	}, nil
}

func (f *fakeReader) TokensAmount(_ context.Context, n asset.Amount) (asset.Amount, error) {
	if f.failing() {
		return asset.Amount{}, errRPCFailed
	}
	return asset.NewAmount(testAssets.Token, new(big.Int).Mul(n.Raw(), big.NewInt(2))), nil
}

func (f *fakeReader) uiDataCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uiCalls
}

// fakeBuilder records the method and carries the amount in Data.
type fakeBuilder struct {
	lastDeadline time.Time
	lastTo       common.Address
}

func call(method string, amount *big.Int, value *big.Int) (domain.Call, error) {
	c := domain.Call{Method: method, To: testToken, Value: value}
	if amount != nil {
		c.Data = amount.Bytes()
	}
	return c, nil
}

func (b *fakeBuilder) Buy(_ common.Address, _ uint8, value *big.Int) (domain.Call, error) {
	return call("buy", nil, value)
}
func (b *fakeBuilder) Transfer(idx *big.Int) (domain.Call, error) { return call("transfer", idx, nil) }
func (b *fakeBuilder) Stake(idx, value *big.Int) (domain.Call, error) {
	return call("stake", idx, value)
}
func (b *fakeBuilder) Rebond(a *big.Int) (domain.Call, error)  { return call("rebond", a, nil) }
func (b *fakeBuilder) Claim(a *big.Int) (domain.Call, error)   { return call("claim", a, nil) }
func (b *fakeBuilder) Sell(a *big.Int) (domain.Call, error)    { return call("sell", a, nil) }
func (b *fakeBuilder) Approve(a *big.Int) (domain.Call, error) { return call("approve", a, nil) }
func (b *fakeBuilder) InfluencerBond(_ common.Address, a *big.Int) (domain.Call, error) {
	return call("influencerBond", a, nil)
}
func (b *fakeBuilder) SwapExactTokensForETH(a *big.Int, to common.Address, deadline time.Time) (domain.Call, error) {
	b.lastTo, b.lastDeadline = to, deadline
	return call("swapExactTokensForETH", a, nil)
}

// fakeSender simulates a wallet. An approve call updates the reader's
// allowance once mined.
type fakeSender struct {
	mu sync.Mutex

	from        common.Address
	noSigner    bool
	estimateErr error
	sendErr     error
	reverted    bool
	reader      *fakeReader

	// block, when set, holds WaitMined until it is closed.
	block   chan struct{}
	entered chan struct{}

	estimates int
	sends     int
	methods   []string
}

func (s *fakeSender) From() (common.Address, error) {
	if s.noSigner {
		return common.Address{}, errors.New("watch-only wallet")
	}
	return s.from, nil
}

func (s *fakeSender) EstimateGas(context.Context, common.Address, domain.Call) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates++
	if s.estimateErr != nil {
		return 0, s.estimateErr
	}
	return 21000, nil
}

func (s *fakeSender) Send(_ context.Context, c domain.Call, _ uint64) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends++
	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}
	s.methods = append(s.methods, c.Method)
	if c.Method == "approve" && s.reader != nil {
		s.reader.mu.Lock()
		s.reader.allowance = asset.NewAmount(testAssets.Token, new(big.Int).SetBytes(c.Data))
		s.reader.mu.Unlock()
	}
	return common.HexToHash("0xabc"), nil
}

func (s *fakeSender) WaitMined(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.Receipt{TxHash: hash, BlockNumber: 7, GasUsed: 21000, Success: !s.reverted}, nil
}

func (s *fakeSender) signCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

type fakeDecoder struct{}

func (fakeDecoder) Decode(err error) string { return "decoded: " + err.Error() }

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, e domain.Notification) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *fakeNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.events...)
}

type countingRefresher struct {
	mu    sync.Mutex
	count int
}

func (r *countingRefresher) Refresh(context.Context) {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

func (r *countingRefresher) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

type fixedPrice struct {
	price asset.Price
	ok    bool
}

func (p fixedPrice) Latest() (asset.Price, bool) { return p.price, p.ok }

type fixedUpline struct {
	addr common.Address
	ok   bool
}

func (u fixedUpline) Referral(context.Context) (common.Address, bool) { return u.addr, u.ok }
