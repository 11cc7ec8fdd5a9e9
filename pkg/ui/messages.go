// Package ui provides the Bubble Tea dashboard for the protocol client.
package ui

import (
	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/notify"
)

// Message types for TUI updates

// StateMsg carries a new protocol snapshot.
type StateMsg struct {
	State domain.State
}

// PriceMsg is sent when the native coin price changes.
type PriceMsg struct {
	Price asset.Price
}

// PendingMsg reports the in-flight transaction kind; empty when idle.
type PendingMsg struct {
	Kind string
}

// NotificationMsg carries a user-facing notification.
type NotificationMsg struct {
	Event notify.Event
}

// ConnectionStatusMsg is sent when an upstream's status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Detail    string
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step   string // config, chain, pricing, referral
	Status string // "connecting", "connected", "failed"
}
