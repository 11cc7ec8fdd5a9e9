package domain

import (
	"time"

	"github.com/google/uuid"
)

// TxKind identifies a write operation.
type TxKind string

const (
	TxNone     TxKind = "NONE"
	TxBuy      TxKind = "BUY"
	TxWithdraw TxKind = "WITHDRAW"
	TxStake    TxKind = "STAKE"
	TxRebond   TxKind = "REBOND"
	TxClaim    TxKind = "CLAIM"
	TxApprove  TxKind = "APPROVE"
	TxSell     TxKind = "SELL"
	TxSellDex  TxKind = "SELL_DEX"
	TxFreeBond TxKind = "FREE_BOND"
)

// TxStatus is the status of the current intent.
type TxStatus string

const (
	StatusNone    TxStatus = "NONE"
	StatusPending TxStatus = "PENDING"
)

// TransactionIntent describes the one write in flight.
type TransactionIntent struct {
	ID        uuid.UUID
	Kind      TxKind
	Status    TxStatus
	Params    map[string]string
	StartedAt time.Time
}

// NewIntent creates a pending intent.
func NewIntent(kind TxKind, params map[string]string, now time.Time) *TransactionIntent {
	return &TransactionIntent{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    StatusPending,
		Params:    params,
		StartedAt: now,
	}
}

// Pending reports whether the intent blocks new submissions.
func (t *TransactionIntent) Pending() bool {
	return t != nil && t.Status == StatusPending
}
