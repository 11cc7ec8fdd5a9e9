// Package notify fans user-facing events out to every configured channel
// (log, terminal UI, Telegram, Discord).
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fd1az/sam-client/internal/logger"
)

// Level classifies an event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Event is one notification.
type Event struct {
	Level   Level
	Kind    string // operation that produced it, e.g. BUY
	Title   string
	Message string
	Link    string // explorer link, may be empty
	At      time.Time
}

// Text renders the message with its link, if any.
func (e Event) Text() string {
	if e.Link == "" {
		return e.Message
	}
	return fmt.Sprintf("%s\nView on scan: %s", e.Message, e.Link)
}

// Sender delivers events to one channel.
type Sender interface {
	Send(ctx context.Context, e Event) error
	Name() string
}

// SenderFunc adapts a function into a Sender.
type SenderFunc struct {
	SenderName string
	Fn         func(ctx context.Context, e Event) error
}

func (f SenderFunc) Send(ctx context.Context, e Event) error { return f.Fn(ctx, e) }
func (f SenderFunc) Name() string                            { return f.SenderName }

// Notifier delivers every event to all senders. One failing sender does not
// stop delivery to the rest.
type Notifier struct {
	senders []Sender
	logger  logger.LoggerInterface
}

// NewNotifier creates a Notifier over senders.
func NewNotifier(log logger.LoggerInterface, senders ...Sender) *Notifier {
	return &Notifier{senders: senders, logger: log}
}

// Add registers another sender. Not safe to call concurrently with Notify.
func (n *Notifier) Add(s Sender) {
	n.senders = append(n.senders, s)
}

// Senders returns the registered sender names.
func (n *Notifier) Senders() []string {
	names := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		names = append(names, s.Name())
	}
	return names
}

// Notify dispatches e and returns the joined sender errors.
func (n *Notifier) Notify(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, e); err != nil {
			n.logger.Error(ctx, "notification sender failed", "sender", s.Name(), "kind", e.Kind, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogSender writes events to the structured log.
type LogSender struct {
	logger logger.LoggerInterface
}

// NewLogSender creates a LogSender.
func NewLogSender(log logger.LoggerInterface) *LogSender {
	return &LogSender{logger: log}
}

func (l *LogSender) Send(ctx context.Context, e Event) error {
	args := []any{"kind", e.Kind, "title", e.Title}
	if e.Link != "" {
		args = append(args, "link", e.Link)
	}
	switch e.Level {
	case LevelError:
		l.logger.Error(ctx, e.Message, args...)
	default:
		l.logger.Info(ctx, e.Message, args...)
	}
	return nil
}

func (l *LogSender) Name() string { return "log" }
