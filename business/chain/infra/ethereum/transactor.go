package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/cache"
	"github.com/fd1az/sam-client/internal/logger"
)

// Ensure Transactor implements TxSender.
var _ app.TxSender = (*Transactor)(nil)

// TxBackend is the part of ethclient.Client the transactor needs.
type TxBackend interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// TransactorConfig holds configuration for the Transactor.
type TransactorConfig struct {
	ChainID        *big.Int
	Confirmations  uint64        // 1 means the mining block is enough
	PollInterval   time.Duration // receipt polling interval
	ConfirmTimeout time.Duration // 0 waits as long as the node answers
	GasLimitBuffer float64       // multiplier over the estimate
	MaxFeeCap      *big.Int      // upper bound on maxFeePerGas, nil for none
	TipCacheTTL    time.Duration
}

// DefaultTransactorConfig returns sensible defaults.
func DefaultTransactorConfig(chainID *big.Int) TransactorConfig {
	return TransactorConfig{
		ChainID:        chainID,
		Confirmations:  1,
		PollInterval:   2 * time.Second,
		GasLimitBuffer: 1.2,
		TipCacheTTL:    10 * time.Second,
	}
}

// transactorMetrics holds OTEL metric instruments.
type transactorMetrics struct {
	estimates      metric.Int64Counter
	sent           metric.Int64Counter
	failed         metric.Int64Counter
	confirmLatency metric.Float64Histogram
}

// Transactor simulates, signs, sends and confirms transactions.
type Transactor struct {
	backend TxBackend
	wallet  *Wallet
	config  TransactorConfig
	logger  logger.LoggerInterface

	tipCache *cache.Cache[string, *big.Int]

	tracer  trace.Tracer
	metrics *transactorMetrics
}

// NewTransactor creates a Transactor.
func NewTransactor(backend TxBackend, wallet *Wallet, cfg TransactorConfig, log logger.LoggerInterface) (*Transactor, error) {
	if cfg.GasLimitBuffer < 1 {
		cfg.GasLimitBuffer = 1
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	t := &Transactor{
		backend:  backend,
		wallet:   wallet,
		config:   cfg,
		logger:   log,
		tipCache: cache.New[string, *big.Int](time.Minute),
		tracer:   otel.Tracer(tracerName),
	}
	if err := t.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return t, nil
}

func (t *Transactor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	t.metrics = &transactorMetrics{}

	t.metrics.estimates, err = meter.Int64Counter(
		"tx_gas_estimates_total",
		metric.WithDescription("Total gas simulations"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	t.metrics.sent, err = meter.Int64Counter(
		"tx_sent_total",
		metric.WithDescription("Transactions broadcast"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	t.metrics.failed, err = meter.Int64Counter(
		"tx_failed_total",
		metric.WithDescription("Transactions that failed at any step"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	t.metrics.confirmLatency, err = meter.Float64Histogram(
		"tx_confirm_latency_ms",
		metric.WithDescription("Time from broadcast to confirmation"),
		metric.WithUnit("ms"),
	)
	return err
}

// Close releases the fee cache.
func (t *Transactor) Close() {
	t.tipCache.Close()
}

// From returns the signing address.
func (t *Transactor) From() (common.Address, error) {
	if t.wallet == nil || !t.wallet.CanSign() {
		return common.Address{}, ErrWatchOnly
	}
	return t.wallet.Address(), nil
}

// EstimateGas simulates call and returns the buffered gas limit.
func (t *Transactor) EstimateGas(ctx context.Context, from common.Address, call domain.Call) (uint64, error) {
	ctx, span := t.tracer.Start(ctx, "tx.estimate_gas",
		trace.WithAttributes(
			attribute.String("method", call.Method),
			attribute.String("to", call.To.Hex()),
		),
	)
	defer span.End()

	t.metrics.estimates.Add(ctx, 1)

	to := call.To
	gas, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: call.Value,
		Data:  call.Data,
	})
	if err != nil {
		t.metrics.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("step", "estimate")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, err
	}

	buffered := uint64(math.Ceil(float64(gas) * t.config.GasLimitBuffer))
	span.SetAttributes(attribute.Int64("gas", int64(buffered)))
	span.SetStatus(codes.Ok, "estimated")
	return buffered, nil
}

// Send signs call as an EIP-1559 transaction and broadcasts it.
func (t *Transactor) Send(ctx context.Context, call domain.Call, gas uint64) (common.Hash, error) {
	ctx, span := t.tracer.Start(ctx, "tx.send",
		trace.WithAttributes(attribute.String("method", call.Method)),
	)
	defer span.End()

	from, err := t.From()
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := t.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, t.sendFailed(ctx, span, "nonce", err)
	}

	tip, feeCap, err := t.fees(ctx)
	if err != nil {
		return common.Hash{}, t.sendFailed(ctx, span, "fees", err)
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	to := call.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.config.ChainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      call.Data,
	})

	signed, err := t.wallet.Sign(tx)
	if err != nil {
		return common.Hash{}, t.sendFailed(ctx, span, "sign", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, t.sendFailed(ctx, span, "broadcast", err)
	}

	t.metrics.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("method", call.Method)))
	span.SetAttributes(
		attribute.String("tx_hash", signed.Hash().Hex()),
		attribute.Int64("nonce", int64(nonce)),
	)
	span.SetStatus(codes.Ok, "sent")

	t.logger.Info(ctx, "transaction sent",
		"method", call.Method,
		"tx_hash", signed.Hash().Hex(),
		"nonce", nonce,
		"gas", gas,
		"max_fee_gwei", weiToGwei(feeCap),
	)
	return signed.Hash(), nil
}

// WaitMined polls for the receipt and then for the configured
// number of confirmations.
func (t *Transactor) WaitMined(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	ctx, span := t.tracer.Start(ctx, "tx.wait_mined",
		trace.WithAttributes(attribute.String("tx_hash", hash.Hex())),
	)
	defer span.End()

	start := time.Now()
	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(t.config.PollInterval)),
		backoff.WithMaxElapsedTime(t.config.ConfirmTimeout),
	}

	receipt, err := backoff.Retry(ctx, func() (*types.Receipt, error) {
		r, err := t.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				t.logger.Debug(ctx, "receipt poll failed", "tx_hash", hash.Hex(), "error", err)
			}
			return nil, err
		}
		return r, nil
	}, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "receipt not found")
		return nil, apperror.New(apperror.CodeTxConfirmFailed, apperror.WithCause(err),
			apperror.WithContext(hash.Hex()))
	}

	mined := receipt.BlockNumber.Uint64()
	if t.config.Confirmations > 1 {
		target := mined + t.config.Confirmations - 1
		_, err = backoff.Retry(ctx, func() (uint64, error) {
			head, err := t.backend.BlockNumber(ctx)
			if err != nil {
				return 0, err
			}
			if head < target {
				return head, fmt.Errorf("head %d below %d", head, target)
			}
			return head, nil
		}, opts...)
		if err != nil {
			span.RecordError(err)
			return nil, apperror.New(apperror.CodeTxConfirmFailed, apperror.WithCause(err),
				apperror.WithContext(hash.Hex()))
		}
	}

	t.metrics.confirmLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int64("block", int64(mined)))
	span.SetStatus(codes.Ok, "mined")

	return &domain.Receipt{
		TxHash:      hash,
		BlockNumber: mined,
		GasUsed:     receipt.GasUsed,
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

// fees returns the tip and the fee cap: 2*baseFee + tip, bounded by MaxFeeCap.
func (t *Transactor) fees(ctx context.Context) (*big.Int, *big.Int, error) {
	tip, ok := t.tipCache.Get(ctx, "tip")
	if !ok {
		var err error
		tip, err = t.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, nil, err
		}
		t.tipCache.Set(ctx, "tip", tip, t.config.TipCacheTTL)
	}

	head, err := t.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)

	if maxCap := t.config.MaxFeeCap; maxCap != nil && feeCap.Cmp(maxCap) > 0 {
		t.logger.Warn(ctx, "fee cap exceeds max", "fee_cap_gwei", weiToGwei(feeCap), "max_gwei", weiToGwei(maxCap))
		feeCap = new(big.Int).Set(maxCap)
		if tip.Cmp(feeCap) > 0 {
			tip = new(big.Int).Set(feeCap)
		}
	}
	return new(big.Int).Set(tip), feeCap, nil
}

func (t *Transactor) sendFailed(ctx context.Context, span trace.Span, step string, err error) error {
	t.metrics.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
	span.RecordError(err)
	span.SetStatus(codes.Error, step+" failed")
	return err
}

func weiToGwei(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return f
}
