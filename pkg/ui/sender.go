package ui

import (
	"context"

	"github.com/fd1az/sam-client/internal/notify"
)

// FeedSender delivers notifications to the running dashboard.
type FeedSender struct{}

var _ notify.Sender = FeedSender{}

// Send forwards e to the program; it is a no-op before the program starts.
func (FeedSender) Send(_ context.Context, e notify.Event) error {
	Send(NotificationMsg{Event: e})
	return nil
}

// Name implements notify.Sender.
func (FeedSender) Name() string { return "tui" }
