package store

import (
	"context"
	"sync"

	"attest/internal/audits/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

type versionedAudit struct {
	audit   *models.Audit
	version uint64
}

// InMemory is the default Store used in development and unit tests. All
// reads and writes hand out deep clones so callers never alias stored state.
type InMemory struct {
	mu     sync.RWMutex
	audits map[id.AuditID]versionedAudit
}

// NewInMemory builds an empty in-memory audit store.
func NewInMemory() *InMemory {
	return &InMemory{audits: make(map[id.AuditID]versionedAudit)}
}

// Create inserts a new audit at version 1.
func (s *InMemory) Create(ctx context.Context, audit *models.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.audits[audit.ID]; exists {
		return sentinel.ErrConflict
	}
	s.audits[audit.ID] = versionedAudit{audit: audit.Clone(), version: 1}
	return nil
}

// Load returns a clone of the current aggregate and the version it was read at.
func (s *InMemory) Load(ctx context.Context, auditID id.AuditID) (*models.Audit, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.audits[auditID]
	if !ok {
		return nil, 0, sentinel.ErrNotFound
	}
	return entry.audit.Clone(), entry.version, nil
}

// Save writes the aggregate if and only if the stored version still equals
// expectedVersion. Exactly one of two concurrent writers loaded from the same
// version can win; the loser gets sentinel.ErrVersionConflict.
func (s *InMemory) Save(ctx context.Context, audit *models.Audit, expectedVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.audits[audit.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if entry.version != expectedVersion {
		return sentinel.ErrVersionConflict
	}
	s.audits[audit.ID] = versionedAudit{audit: audit.Clone(), version: expectedVersion + 1}
	return nil
}
