package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

// MaxApproveTokens is the allowance granted by Approve, in whole tokens.
var MaxApproveTokens = decimal.New(1, 12)

// SwapDeadline is added to the current time for external market sells.
const SwapDeadline = 100000 * time.Second

// SubmittedMessage is sent once a transaction has been broadcast.
const SubmittedMessage = "Transaction has successfully entered the blockchain! Waiting for enough confirmations..."

// ErrReverted is decoded when a mined transaction reports failure.
var ErrReverted = errors.New("execution reverted")

var successMessages = map[domain.TxKind]string{
	domain.TxBuy:      "Successfully bonded the token.",
	domain.TxWithdraw: "Successfully withdrawn the token.",
	domain.TxStake:    "Successfully staked the token.",
	domain.TxRebond:   "Successfully rebonded the token.",
	domain.TxClaim:    "Successfully claimed the token.",
	domain.TxApprove:  "Successfully approved the token.",
	domain.TxSell:     "Successfully sold the token.",
	domain.TxSellDex:  "Successfully sold the token.",
	domain.TxFreeBond: "Successfully bonded the tokens to the influencer.",
}

// SubmitConfig configures the Submitter.
type SubmitConfig struct {
	ExplorerURL string // prefix for transaction links
}

// operation is one write routed through the common lifecycle.
type operation struct {
	kind        domain.TxKind
	params      map[string]string
	skipRefresh bool
	build       func(from common.Address) (domain.Call, error)
}

// Submitter runs every write through validate, gate, simulate, send,
// confirm, refresh and notify. At most one write is pending at a time.
type Submitter struct {
	builder   CallBuilder
	sender    TxSender
	decoder   ErrorDecoder
	notifier  Notifier
	refresher Refresher
	assets    asset.Set
	cfg       SubmitConfig
	logger    logger.LoggerInterface
	tracer    trace.Tracer

	mu     sync.Mutex
	intent *domain.TransactionIntent

	now func() time.Time
}

// NewSubmitter creates a Submitter.
func NewSubmitter(
	builder CallBuilder,
	sender TxSender,
	decoder ErrorDecoder,
	notifier Notifier,
	refresher Refresher,
	assets asset.Set,
	cfg SubmitConfig,
	log logger.LoggerInterface,
) *Submitter {
	return &Submitter{
		builder:   builder,
		sender:    sender,
		decoder:   decoder,
		notifier:  notifier,
		refresher: refresher,
		assets:    assets,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// Intent returns a copy of the pending intent, or nil.
func (s *Submitter) Intent() *domain.TransactionIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intent == nil {
		return nil
	}
	cp := *s.intent
	return &cp
}

// Buy bonds nativeAmount for bondType under upline.
func (s *Submitter) Buy(ctx context.Context, upline common.Address, bondType uint8, nativeAmount decimal.Decimal) (*domain.Receipt, error) {
	if upline == (common.Address{}) {
		return nil, s.reject(ctx, domain.TxBuy, apperror.Validation(apperror.CodeInvalidAddress, "upline address is empty"))
	}
	if bondType >= domain.BondTypes {
		return nil, s.reject(ctx, domain.TxBuy, apperror.Validation(apperror.CodeInvalidBondType,
			fmt.Sprintf("bond type %d", bondType)))
	}
	value, err := s.positive(s.assets.Native, nativeAmount)
	if err != nil {
		return nil, s.reject(ctx, domain.TxBuy, err)
	}

	return s.execute(ctx, operation{
		kind: domain.TxBuy,
		params: map[string]string{
			"upline":    upline.Hex(),
			"bond_type": strconv.Itoa(int(bondType)),
			"amount":    nativeAmount.String(),
		},
		build: func(common.Address) (domain.Call, error) {
			return s.builder.Buy(upline, bondType, value)
		},
	})
}

// Withdraw withdraws the bond at bondIndex. The protocol exposes this as transfer.
func (s *Submitter) Withdraw(ctx context.Context, bondIndex uint64) (*domain.Receipt, error) {
	return s.execute(ctx, operation{
		kind:   domain.TxWithdraw,
		params: map[string]string{"bond_index": strconv.FormatUint(bondIndex, 10)},
		build: func(common.Address) (domain.Call, error) {
			return s.builder.Transfer(new(big.Int).SetUint64(bondIndex))
		},
	})
}

// Stake adds nativeAmount to the bond at bondIndex.
func (s *Submitter) Stake(ctx context.Context, bondIndex uint64, nativeAmount decimal.Decimal) (*domain.Receipt, error) {
	value, err := s.positive(s.assets.Native, nativeAmount)
	if err != nil {
		return nil, s.reject(ctx, domain.TxStake, err)
	}

	return s.execute(ctx, operation{
		kind: domain.TxStake,
		params: map[string]string{
			"bond_index": strconv.FormatUint(bondIndex, 10),
			"amount":     nativeAmount.String(),
		},
		build: func(common.Address) (domain.Call, error) {
			return s.builder.Stake(new(big.Int).SetUint64(bondIndex), value)
		},
	})
}

// Rebond rebonds tokenAmount of available tokens.
func (s *Submitter) Rebond(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return s.tokenOp(ctx, domain.TxRebond, tokenAmount, s.builder.Rebond)
}

// Claim claims tokenAmount of available tokens.
func (s *Submitter) Claim(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return s.tokenOp(ctx, domain.TxClaim, tokenAmount, s.builder.Claim)
}

// Sell sells tokenAmount back to the protocol.
func (s *Submitter) Sell(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return s.tokenOp(ctx, domain.TxSell, tokenAmount, s.builder.Sell)
}

// Approve grants the protocol contract a MaxApproveTokens allowance.
func (s *Submitter) Approve(ctx context.Context) (*domain.Receipt, error) {
	amount, err := asset.ParseDecimal(s.assets.Token, MaxApproveTokens)
	if err != nil {
		return nil, s.reject(ctx, domain.TxApprove, err)
	}

	return s.execute(ctx, operation{
		kind:   domain.TxApprove,
		params: map[string]string{"amount": MaxApproveTokens.String()},
		build: func(common.Address) (domain.Call, error) {
			return s.builder.Approve(amount.Raw())
		},
	})
}

// SellOnExternalMarket swaps tokenAmount for the native coin on the router,
// with no minimum output.
func (s *Submitter) SellOnExternalMarket(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	amount, err := s.positive(s.assets.Token, tokenAmount)
	if err != nil {
		return nil, s.reject(ctx, domain.TxSellDex, err)
	}

	return s.execute(ctx, operation{
		kind:   domain.TxSellDex,
		params: map[string]string{"amount": tokenAmount.String()},
		build: func(from common.Address) (domain.Call, error) {
			return s.builder.SwapExactTokensForETH(amount, from, s.now().Add(SwapDeadline))
		},
	})
}

// InfluencerBond gives user a free bond of tokenAmount. Owner only; the
// caller's own state does not change so no refresh follows.
func (s *Submitter) InfluencerBond(ctx context.Context, user common.Address, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	if user == (common.Address{}) {
		return nil, s.reject(ctx, domain.TxFreeBond, apperror.Validation(apperror.CodeInvalidAddress, "influencer address is empty"))
	}
	amount, err := s.positive(s.assets.Token, tokenAmount)
	if err != nil {
		return nil, s.reject(ctx, domain.TxFreeBond, err)
	}

	return s.execute(ctx, operation{
		kind:        domain.TxFreeBond,
		skipRefresh: true,
		params: map[string]string{
			"user":   user.Hex(),
			"amount": tokenAmount.String(),
		},
		build: func(common.Address) (domain.Call, error) {
			return s.builder.InfluencerBond(user, amount)
		},
	})
}

func (s *Submitter) tokenOp(ctx context.Context, kind domain.TxKind, tokenAmount decimal.Decimal, build func(*big.Int) (domain.Call, error)) (*domain.Receipt, error) {
	amount, err := s.positive(s.assets.Token, tokenAmount)
	if err != nil {
		return nil, s.reject(ctx, kind, err)
	}
	return s.execute(ctx, operation{
		kind:   kind,
		params: map[string]string{"amount": tokenAmount.String()},
		build: func(common.Address) (domain.Call, error) {
			return build(amount)
		},
	})
}

func (s *Submitter) execute(ctx context.Context, op operation) (*domain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "chain.submit",
		trace.WithAttributes(attribute.String("kind", string(op.kind))),
	)
	defer span.End()

	from, err := s.sender.From()
	if err != nil {
		return nil, s.reject(ctx, op.kind, apperror.New(apperror.CodeWalletNotConnected, apperror.WithCause(err)))
	}

	if err := s.acquire(op); err != nil {
		return nil, s.reject(ctx, op.kind, err)
	}
	defer s.release()

	call, err := op.build(from)
	if err != nil {
		return nil, s.fail(ctx, span, op.kind, apperror.CodeInvalidInput, err)
	}

	gas, err := s.sender.EstimateGas(ctx, from, call)
	if err != nil {
		return nil, s.fail(ctx, span, op.kind, apperror.CodeGasEstimationFailed, err)
	}

	hash, err := s.sender.Send(ctx, call, gas)
	if err != nil {
		return nil, s.fail(ctx, span, op.kind, apperror.CodeTxSubmitFailed, err)
	}
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))

	s.notifier.Notify(ctx, domain.Notification{
		Level:   domain.LevelInfo,
		Kind:    op.kind,
		Title:   "Transaction submitted",
		Message: SubmittedMessage,
		TxHash:  hash,
		Link:    s.link(hash),
	})

	receipt, err := s.sender.WaitMined(ctx, hash)
	if err != nil {
		return nil, s.fail(ctx, span, op.kind, apperror.CodeTxConfirmFailed, err)
	}
	if !receipt.Success {
		return receipt, s.fail(ctx, span, op.kind, apperror.CodeTxReverted, ErrReverted)
	}

	if !op.skipRefresh {
		s.refresher.Refresh(ctx)
	}

	s.notifier.Notify(ctx, domain.Notification{
		Level:   domain.LevelSuccess,
		Kind:    op.kind,
		Title:   "Transaction confirmed",
		Message: successMessages[op.kind],
		TxHash:  hash,
		Link:    s.link(hash),
	})
	s.logger.Info(ctx, "transaction confirmed",
		"kind", op.kind,
		"tx_hash", hash.Hex(),
		"block", receipt.BlockNumber,
		"gas_used", receipt.GasUsed,
	)
	span.SetStatus(codes.Ok, "confirmed")

	return receipt, nil
}

// acquire marks op as the pending intent or rejects it.
func (s *Submitter) acquire(op operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.intent.Pending() {
		return apperror.Conflict(apperror.CodeTxPending, fmt.Sprintf("%s is pending", s.intent.Kind))
	}
	s.intent = domain.NewIntent(op.kind, op.params, s.now())
	return nil
}

func (s *Submitter) release() {
	s.mu.Lock()
	s.intent = nil
	s.mu.Unlock()
}

// fail decodes err into a display message, notifies and returns it.
func (s *Submitter) fail(ctx context.Context, span trace.Span, kind domain.TxKind, code apperror.Code, err error) error {
	msg := s.decoder.Decode(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	appErr := apperror.New(code, apperror.WithMessage(msg), apperror.WithCause(err))
	s.logger.Error(ctx, "transaction failed", "kind", kind, "code", code, "error", err)
	s.notifier.Notify(ctx, domain.Notification{
		Level:   domain.LevelError,
		Kind:    kind,
		Title:   "Transaction failed",
		Message: msg,
	})
	return appErr
}

// reject notifies a failure that happened before any network call.
func (s *Submitter) reject(ctx context.Context, kind domain.TxKind, err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.New(apperror.CodeInvalidAmount, apperror.WithCause(err), apperror.WithContext(err.Error()))
	}
	s.logger.Warn(ctx, "transaction rejected", "kind", kind, "error", appErr)
	s.notifier.Notify(ctx, domain.Notification{
		Level:   domain.LevelError,
		Kind:    kind,
		Title:   "Transaction rejected",
		Message: appErr.Message,
	})
	return appErr
}

// positive parses d as an amount of a and requires it to be above zero.
func (s *Submitter) positive(a *asset.Asset, d decimal.Decimal) (*big.Int, error) {
	amt, err := asset.ParseDecimal(a, d)
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidAmount, err.Error())
	}
	if !amt.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidAmount, "amount must be greater than zero")
	}
	return amt.Raw(), nil
}

func (s *Submitter) link(hash common.Hash) string {
	if s.cfg.ExplorerURL == "" {
		return ""
	}
	return s.cfg.ExplorerURL + hash.Hex()
}
