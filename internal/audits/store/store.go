// Package store defines the audit repository contract and its implementations.
package store

import (
	"context"

	"attest/internal/audits/models"
	id "attest/pkg/domain"
)

// Store is the persistence boundary for the audit aggregate. Implementations
// return sentinel errors (pkg/platform/sentinel); services translate them.
//
// Save enforces optimistic concurrency: the caller supplies the version it
// read with Load, and the write fails with sentinel.ErrVersionConflict when
// another writer updated the audit in the interim. Load always reads current
// state, which is what lets sub-resource mutations check audit status fresh
// rather than against a cached copy.
type Store interface {
	Create(ctx context.Context, audit *models.Audit) error
	Load(ctx context.Context, auditID id.AuditID) (*models.Audit, uint64, error)
	Save(ctx context.Context, audit *models.Audit, expectedVersion uint64) error
}
