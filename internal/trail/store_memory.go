package trail

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	id "attest/pkg/domain"
)

// InMemory is the in-memory trail store for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemory builds an empty in-memory trail store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append stores the entry in arrival order.
func (s *InMemory) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListByAudit returns the newest entries for the audit, most recent first.
func (s *InMemory) ListByAudit(_ context.Context, auditID id.AuditID, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].AuditID == auditID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// Unpublished returns up to limit entries not yet shipped, oldest first.
func (s *InMemory) Unpublished(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, entry := range s.entries {
		if entry.PublishedAt == nil {
			out = append(out, entry)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// MarkPublished stamps the given entries with the publish time.
func (s *InMemory) MarkPublished(_ context.Context, entryIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	published := make(map[uuid.UUID]bool, len(entryIDs))
	for _, entryID := range entryIDs {
		published[entryID] = true
	}
	for i := range s.entries {
		if published[s.entries[i].ID] {
			stamp := now
			s.entries[i].PublishedAt = &stamp
		}
	}
	return nil
}
