// Package notify turns workflow events into outbound notifications.
//
// The dispatcher handler only enqueues onto a buffered channel, so the
// transition request path never waits on delivery. A background sender drains
// the channel. When the buffer is full the notification is dropped with a log
// line; notifications are best-effort, the trail is the durable record.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"attest/internal/events"
	"attest/internal/workflow"
)

// Notification is one message to deliver.
type Notification struct {
	Subject string
	Body    string
}

// Mailer delivers a notification. Implementations may send email, post to
// chat, or just log.
type Mailer interface {
	Send(ctx context.Context, n Notification) error
}

// LogMailer writes notifications to the log. It is the default sink until a
// real channel is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the notification.
func (m *LogMailer) Send(ctx context.Context, n Notification) error {
	m.Logger.InfoContext(ctx, "notification",
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}

// Notifier bridges the dispatcher and the mailer through a buffered channel.
type Notifier struct {
	logger *slog.Logger
	mailer Mailer
	queue  chan Notification
}

// New builds a Notifier with the given buffer size.
func New(mailer Mailer, logger *slog.Logger, buffer int) *Notifier {
	return &Notifier{
		logger: logger,
		mailer: mailer,
		queue:  make(chan Notification, buffer),
	}
}

// Registrar is the subset of the dispatcher the notifier needs.
type Registrar interface {
	Register(eventType string, h events.Handler)
}

// Subscribe registers the status-change handler on the dispatcher.
func (n *Notifier) Subscribe(reg Registrar) {
	reg.Register(workflow.EventTypeStatusChanged, n.handleStatusChanged)
}

func (n *Notifier) handleStatusChanged(ctx context.Context, payload any) error {
	event, ok := payload.(workflow.StatusChanged)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", payload, workflow.EventTypeStatusChanged)
	}

	notification := Notification{
		Subject: fmt.Sprintf("audit %s moved to %s", event.AuditID, event.To),
		Body:    fmt.Sprintf("Audit %s changed status from %s to %s.", event.AuditID, event.From, event.To),
	}
	select {
	case n.queue <- notification:
	default:
		n.logger.WarnContext(ctx, "notification buffer full, dropping",
			"audit_id", event.AuditID,
			"to", event.To,
		)
	}
	return nil
}

// Run drains the queue until the context is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notification := <-n.queue:
			if err := n.mailer.Send(ctx, notification); err != nil {
				n.logger.ErrorContext(ctx, "notification delivery failed",
					"subject", notification.Subject,
					"error", err,
				)
			}
		}
	}
}
