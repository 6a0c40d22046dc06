package notify_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/internal/audits/models"
	"attest/internal/events"
	"attest/internal/notify"
	"attest/internal/workflow"
	id "attest/pkg/domain"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Notification
	done chan struct{} // closed-ish signal: one tick per Send
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{done: make(chan struct{}, 16)}
}

func (m *recordingMailer) Send(_ context.Context, n notify.Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *recordingMailer) notifications() []notify.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Notification(nil), m.sent...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statusChange(to models.AuditStatus) workflow.StatusChanged {
	return workflow.StatusChanged{
		AuditID: id.NewAuditID(),
		From:    models.StatusDraft,
		To:      to,
		ActorID: id.ActorID(uuid.New()),
	}
}

func TestNotifierDeliversStatusChanges(t *testing.T) {
	mailer := newRecordingMailer()
	notifier := notify.New(mailer, discardLogger(), 8)
	dispatcher := events.NewDispatcher(discardLogger())
	notifier.Subscribe(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = notifier.Run(ctx) }()

	event := statusChange(models.StatusClientReview)
	dispatcher.Emit(ctx, workflow.EventTypeStatusChanged, event)

	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never delivered")
	}

	sent := mailer.notifications()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, event.AuditID.String())
	assert.Contains(t, sent[0].Subject, "client_review")
	assert.True(t, strings.Contains(sent[0].Body, "draft"))
}

func TestNotifierIgnoresOtherEventTypes(t *testing.T) {
	mailer := newRecordingMailer()
	notifier := notify.New(mailer, discardLogger(), 8)
	dispatcher := events.NewDispatcher(discardLogger())
	notifier.Subscribe(dispatcher)

	// Nothing is registered for this type, so nothing should be enqueued.
	dispatcher.Emit(context.Background(), models.EventTypeAuditCreated,
		models.AuditCreated{AuditID: id.NewAuditID()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = notifier.Run(ctx)

	assert.Empty(t, mailer.notifications())
}

func TestNotifierDropsWhenBufferFull(t *testing.T) {
	mailer := newRecordingMailer()
	notifier := notify.New(mailer, discardLogger(), 1)
	dispatcher := events.NewDispatcher(discardLogger())
	notifier.Subscribe(dispatcher)

	// No Run loop draining: the second emit must not block the dispatcher.
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.Emit(context.Background(), workflow.EventTypeStatusChanged, statusChange(models.StatusClientReview))
		dispatcher.Emit(context.Background(), workflow.EventTypeStatusChanged, statusChange(models.StatusSubmittedToCB))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full notification buffer")
	}

	// Drain what survived: exactly the first notification.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = notifier.Run(ctx)

	sent := mailer.notifications()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, "client_review")
}
