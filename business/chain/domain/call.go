package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is an encoded contract call ready for simulation and signing.
type Call struct {
	Method string
	To     common.Address
	Data   []byte
	Value  *big.Int // nil for non-payable calls
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Success     bool
}

// NotificationLevel classifies a notification.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// Notification is a user-facing message about a write.
type Notification struct {
	Level   NotificationLevel
	Kind    TxKind
	Title   string
	Message string
	TxHash  common.Hash
	Link    string
}
