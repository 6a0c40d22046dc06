package trail

import (
	"context"

	"github.com/google/uuid"

	id "attest/pkg/domain"
)

// Store is the persistence boundary for trail entries. It doubles as the
// outbox for the Kafka publisher: Unpublished returns entries in append order
// and MarkPublished stamps them after a confirmed produce.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByAudit(ctx context.Context, auditID id.AuditID, limit int) ([]Entry, error)
	Unpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, entryIDs []uuid.UUID) error
}
