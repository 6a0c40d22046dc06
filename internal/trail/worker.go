package trail

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher is the downstream sink the worker drains the outbox into.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// Worker drains unpublished trail entries to the publisher on an interval.
// Entries are only marked published after a confirmed produce, so a crash
// between produce and mark yields at-least-once delivery; consumers must
// tolerate duplicates (entries carry stable IDs).
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewWorker builds an outbox worker.
func NewWorker(store Store, publisher Publisher, logger *slog.Logger, interval time.Duration, batchSize int) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; the worker never gives up on an entry.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "trail outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	entries, err := w.store.Unpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	shipped := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := w.publisher.Publish(ctx, entry); err != nil {
			// Stop at the first failure to preserve per-audit ordering.
			w.logger.WarnContext(ctx, "trail entry publish failed",
				"entry_id", entry.ID,
				"audit_id", entry.AuditID,
				"error", err,
			)
			break
		}
		shipped = append(shipped, entry.ID)
	}
	if len(shipped) == 0 {
		return nil
	}
	return w.store.MarkPublished(ctx, shipped)
}
