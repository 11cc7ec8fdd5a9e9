// Package ethereum provides go-ethereum adapters for the chain context.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/cache"
	"github.com/fd1az/sam-client/internal/circuitbreaker"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/sam-client/business/chain/infra/ethereum"
	meterName  = "github.com/fd1az/sam-client/business/chain/infra/ethereum"
)

// Ensure Reader implements ChainReader.
var _ app.ChainReader = (*Reader)(nil)

// ReadBackend is the part of ethclient.Client the reader needs.
type ReadBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ReaderConfig holds configuration for the Reader.
type ReaderConfig struct {
	Token          common.Address
	Protocol       common.Address
	CallTimeout    time.Duration
	RequestsPerSec float64
	Burst          int
	QuoteCacheTTL  time.Duration
}

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	callsTotal  metric.Int64Counter
	callErrors  metric.Int64Counter
	callLatency metric.Float64Histogram
	cacheHits   metric.Int64Counter
}

// Reader implements app.ChainReader over JSON-RPC contract calls.
type Reader struct {
	backend ReadBackend
	abis    ABIs
	assets  asset.Set
	config  ReaderConfig
	logger  logger.LoggerInterface

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]

	ownerCache *cache.Cache[string, common.Address]
	quoteCache *cache.Cache[string, asset.Amount]

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a Reader.
func NewReader(backend ReadBackend, abis ABIs, assets asset.Set, cfg ReaderConfig, log logger.LoggerInterface) (*Reader, error) {
	r := &Reader{
		backend:    backend,
		abis:       abis,
		assets:     assets,
		config:     cfg,
		logger:     log,
		limiter:    ratelimit.PerSecond(cfg.RequestsPerSec, cfg.Burst),
		ownerCache: cache.New[string, common.Address](10 * time.Minute),
		quoteCache: cache.New[string, asset.Amount](time.Minute),
		tracer:     otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("chain-reader")
	cbCfg.IsSuccessful = func(err error) bool {
		// A revert is an answer from the node, not an outage.
		return err == nil || IsRevert(err)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.callsTotal, err = meter.Int64Counter(
		"chain_reads_total",
		metric.WithDescription("Total contract reads"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.callErrors, err = meter.Int64Counter(
		"chain_read_errors_total",
		metric.WithDescription("Total failed contract reads"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	r.metrics.callLatency, err = meter.Float64Histogram(
		"chain_read_latency_ms",
		metric.WithDescription("Contract read latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	r.metrics.cacheHits, err = meter.Int64Counter(
		"chain_read_cache_hits_total",
		metric.WithDescription("Reads answered from cache"),
		metric.WithUnit("{hit}"),
	)
	return err
}

// Close releases the caches.
func (r *Reader) Close() {
	r.ownerCache.Close()
	r.quoteCache.Close()
}

// NativeBalance returns the native coin balance of addr.
func (r *Reader) NativeBalance(ctx context.Context, addr common.Address) (asset.Amount, error) {
	out, err := r.do(ctx, "balance", func(ctx context.Context) ([]byte, error) {
		bal, err := r.backend.BalanceAt(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		return bal.Bytes(), nil
	})
	if err != nil {
		return asset.Zero(r.assets.Native), err
	}
	return asset.NewAmount(r.assets.Native, new(big.Int).SetBytes(out)), nil
}

// TokenBalance returns the token balance of addr.
func (r *Reader) TokenBalance(ctx context.Context, addr common.Address) (asset.Amount, error) {
	v, err := r.callUint(ctx, r.abis.Token, r.config.Token, "balanceOf", addr)
	if err != nil {
		return asset.Zero(r.assets.Token), err
	}
	return asset.NewAmount(r.assets.Token, v), nil
}

// TokenAllowance returns what owner lets the protocol contract spend.
func (r *Reader) TokenAllowance(ctx context.Context, owner common.Address) (asset.Amount, error) {
	v, err := r.callUint(ctx, r.abis.Token, r.config.Token, "allowance", owner, r.config.Protocol)
	if err != nil {
		return asset.Zero(r.assets.Token), err
	}
	return asset.NewAmount(r.assets.Token, v), nil
}

// TokenLiquidity returns the protocol's native and token reserves.
func (r *Reader) TokenLiquidity(ctx context.Context) (asset.Amount, asset.Amount, error) {
	zeroN, zeroT := asset.Zero(r.assets.Native), asset.Zero(r.assets.Token)

	outputs, err := r.call(ctx, r.abis.Protocol, r.config.Protocol, "getTokenLiquidity")
	if err != nil {
		return zeroN, zeroT, err
	}
	if len(outputs) < 2 {
		return zeroN, zeroT, invalidResponse("getTokenLiquidity", len(outputs))
	}
	nativeRes, ok1 := outputs[0].(*big.Int)
	tokenRes, ok2 := outputs[1].(*big.Int)
	if !ok1 || !ok2 {
		return zeroN, zeroT, invalidResponse("getTokenLiquidity", len(outputs))
	}
	return asset.NewAmount(r.assets.Native, nativeRes), asset.NewAmount(r.assets.Token, tokenRes), nil
}

// GlobalLiquidityBonus returns the protocol-wide liquidity bonus in percent.
func (r *Reader) GlobalLiquidityBonus(ctx context.Context) (decimal.Decimal, error) {
	v, err := r.callUint(ctx, r.abis.Protocol, r.config.Protocol, "getLiquidityGlobalBonusPercent")
	if err != nil {
		return decimal.Zero, err
	}
	return domain.BonusPercent(decimal.NewFromBigInt(v, 0)), nil
}

// Owner returns the protocol owner. The value is cached.
func (r *Reader) Owner(ctx context.Context) (common.Address, error) {
	if owner, ok := r.ownerCache.Get(ctx, "owner"); ok {
		r.metrics.cacheHits.Add(ctx, 1)
		return owner, nil
	}

	outputs, err := r.call(ctx, r.abis.Protocol, r.config.Protocol, "owner")
	if err != nil {
		return common.Address{}, err
	}
	if len(outputs) != 1 {
		return common.Address{}, invalidResponse("owner", len(outputs))
	}
	owner, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, invalidResponse("owner", len(outputs))
	}

	r.ownerCache.Set(ctx, "owner", owner, time.Hour)
	return owner, nil
}

// BondsCount returns users(user).bondsNumber.
func (r *Reader) BondsCount(ctx context.Context, user common.Address) (uint64, error) {
	outputs, err := r.call(ctx, r.abis.Protocol, r.config.Protocol, "users", user)
	if err != nil {
		return 0, err
	}
	if len(outputs) < 3 {
		return 0, invalidResponse("users", len(outputs))
	}
	n, ok := outputs[2].(*big.Int)
	if !ok || !n.IsUint64() {
		return 0, invalidResponse("users", len(outputs))
	}
	return n.Uint64(), nil
}

// Bond returns bond index of user.
func (r *Reader) Bond(ctx context.Context, user common.Address, index uint64) (domain.Bond, error) {
	data, err := r.raw(ctx, r.abis.Protocol, r.config.Protocol, "bonds", user, new(big.Int).SetUint64(index))
	if err != nil {
		return domain.Bond{}, err
	}

	var res bondResult
	if err := r.abis.Protocol.UnpackIntoInterface(&res, "bonds", data); err != nil {
		return domain.Bond{}, apperror.New(apperror.CodeInvalidContractResponse,
			apperror.WithCause(err), apperror.WithContext("bonds"))
	}

	return domain.Bond{
		Index:     index,
		Type:      res.BondType,
		Amount:    asset.NewAmount(r.assets.Native, res.Amount),
		Tokens:    asset.NewAmount(r.assets.Token, res.Tokens),
		CreatedAt: unixTime(res.CreationTime),
		Closed:    res.IsClosed,
	}, nil
}

// UIData returns the aggregated user view of the protocol.
func (r *Reader) UIData(ctx context.Context, user common.Address) (domain.UIData, error) {
	data, err := r.raw(ctx, r.abis.Protocol, r.config.Protocol, "getUIData", user)
	if err != nil {
		return domain.UIData{}, err
	}

	var res uiDataResult
	if err := r.abis.Protocol.UnpackIntoInterface(&res, "getUIData", data); err != nil {
		return domain.UIData{}, apperror.New(apperror.CodeInvalidContractResponse,
			apperror.WithCause(err), apperror.WithContext("getUIData"))
	}

	u := res.User
	pos := domain.UserPosition{
		Upline:               u.Upline,
		RefLevel:             toUint64(u.RefLevel),
		BondsNumber:          toUint64(u.BondsNumber),
		TotalInvested:        asset.NewAmount(r.assets.Native, u.TotalInvested),
		LiquidityCreated:     asset.NewAmount(r.assets.Native, u.LiquidityCreated),
		TotalRefReward:       asset.NewAmount(r.assets.Token, u.TotalRefReward),
		TotalRebonded:        asset.NewAmount(r.assets.Token, u.TotalRebonded),
		TotalSold:            asset.NewAmount(r.assets.Token, u.TotalSold),
		TotalClaimed:         asset.NewAmount(r.assets.Token, u.TotalClaimed),
		RefTurnover:          asset.NewAmount(r.assets.Native, u.RefTurnover),
		AvailableAmount:      asset.NewAmount(r.assets.Token, res.UserTokensBalance),
		HoldBonus:            bonus(res.UserHoldBonus),
		LiquidityBonus:       bonus(res.UserLiquidityBonus),
		GlobalLiquidityBonus: bonus(res.GlobalLiquidityBonus),
		ReferralsNumber:      toUint64(u.RefsNumber),
		Referrals:            u.Refs,
	}

	activations := domain.DefaultBondActivations
	if len(res.BondActivations) > 0 {
		activations = [domain.BondTypes]bool{}
		copy(activations[:], res.BondActivations)
	}
	pos.BondTypeStatus = activations

	return domain.UIData{Position: pos, BondActivations: activations}, nil
}

// TokensAmount quotes getTokensAmount. Results are cached briefly.
func (r *Reader) TokensAmount(ctx context.Context, nativeAmount asset.Amount) (asset.Amount, error) {
	key := nativeAmount.Raw().String()
	if v, ok := r.quoteCache.Get(ctx, key); ok {
		r.metrics.cacheHits.Add(ctx, 1)
		return v, nil
	}

	v, err := r.callUint(ctx, r.abis.Protocol, r.config.Protocol, "getTokensAmount", nativeAmount.Raw())
	if err != nil {
		return asset.Zero(r.assets.Token), err
	}

	out := asset.NewAmount(r.assets.Token, v)
	if r.config.QuoteCacheTTL > 0 {
		r.quoteCache.Set(ctx, key, out, r.config.QuoteCacheTTL)
	}
	return out, nil
}

func (r *Reader) callUint(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) (*big.Int, error) {
	outputs, err := r.call(ctx, contract, to, method, args...)
	if err != nil {
		return nil, err
	}
	if len(outputs) != 1 {
		return nil, invalidResponse(method, len(outputs))
	}
	v, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, invalidResponse(method, len(outputs))
	}
	return v, nil
}

func (r *Reader) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	data, err := r.raw(ctx, contract, to, method, args...)
	if err != nil {
		return nil, err
	}
	outputs, err := contract.Unpack(method, data)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidContractResponse,
			apperror.WithCause(err), apperror.WithContext(method))
	}
	return outputs, nil
}

// raw packs and executes an eth_call and returns the undecoded result.
func (r *Reader) raw(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) ([]byte, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return r.do(ctx, method, func(ctx context.Context) ([]byte, error) {
		return r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	})
}

// do runs one RPC through the limiter, the breaker and a span.
func (r *Reader) do(ctx context.Context, method string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "chain.read",
		trace.WithAttributes(attribute.String("method", method)),
	)
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("method", method))
	r.metrics.callsTotal.Add(ctx, 1, attrs)

	if err := r.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if r.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.cb.Execute(func() ([]byte, error) {
		return fn(ctx)
	})
	r.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		r.metrics.callErrors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")

		code := apperror.CodeContractCallFailed
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			code = apperror.CodeCircuitOpen
		case !IsRevert(err):
			code = apperror.CodeEthereumRPCError
		}
		return nil, apperror.New(code, apperror.WithCause(err), apperror.WithContext(method))
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

// IsRevert reports whether err is an execution revert returned by the node.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func invalidResponse(method string, n int) error {
	return apperror.New(apperror.CodeInvalidContractResponse,
		apperror.WithContext(fmt.Sprintf("%s returned %d values", method, n)))
}

func bonus(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return domain.BonusPercent(decimal.NewFromBigInt(raw, 0))
}

func toUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func unixTime(v *big.Int) time.Time {
	if v == nil || v.Sign() == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}
