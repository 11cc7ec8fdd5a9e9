// Package notifier forwards chain notifications to the shared notify fan-out.
package notifier

import (
	"context"
	"time"

	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/notify"
)

var _ app.Notifier = (*Adapter)(nil)

// Adapter implements app.Notifier over a notify.Notifier.
type Adapter struct {
	notifier *notify.Notifier
	now      func() time.Time
}

// New creates an Adapter.
func New(n *notify.Notifier) *Adapter {
	return &Adapter{notifier: n, now: time.Now}
}

// Notify converts n and dispatches it. Sender failures are already logged
// by the notifier and never reach the caller.
func (a *Adapter) Notify(ctx context.Context, n domain.Notification) {
	_ = a.notifier.Notify(ctx, notify.Event{
		Level:   level(n.Level),
		Kind:    string(n.Kind),
		Title:   n.Title,
		Message: n.Message,
		Link:    n.Link,
		At:      a.now(),
	})
}

func level(l domain.NotificationLevel) notify.Level {
	switch l {
	case domain.LevelSuccess:
		return notify.LevelSuccess
	case domain.LevelError:
		return notify.LevelError
	default:
		return notify.LevelInfo
	}
}
