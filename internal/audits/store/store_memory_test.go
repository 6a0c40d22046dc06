package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attest/internal/audits/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newAudit() *models.Audit {
	audit, err := models.NewAudit(
		id.NewAuditID(),
		id.OrganizationID(uuid.New()),
		id.ActorID(uuid.New()),
		[]models.Certification{{ID: id.CertificationID(uuid.New()), Standard: "ISO 27001"}},
		time.Now(),
	)
	s.Require().NoError(err)
	return audit
}

func (s *MemoryStoreSuite) TestCreateAndLoad() {
	s.Run("creates at version 1 and loads it back", func() {
		audit := s.newAudit()
		s.Require().NoError(s.store.Create(s.ctx, audit))

		loaded, version, err := s.store.Load(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal(uint64(1), version)
		s.Equal(audit.ID, loaded.ID)
		s.Equal(models.StatusDraft, loaded.Status)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, _, err := s.store.Load(s.ctx, id.NewAuditID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate create", func() {
		audit := s.newAudit()
		s.Require().NoError(s.store.Create(s.ctx, audit))
		s.ErrorIs(s.store.Create(s.ctx, audit), sentinel.ErrConflict)
	})
}

func (s *MemoryStoreSuite) TestSave() {
	s.Run("bumps the version on success", func() {
		audit := s.newAudit()
		s.Require().NoError(s.store.Create(s.ctx, audit))

		loaded, version, err := s.store.Load(s.ctx, audit.ID)
		s.Require().NoError(err)

		loaded.Documentation.MarkComplete(models.SectionSummary)
		s.Require().NoError(s.store.Save(s.ctx, loaded, version))

		reloaded, newVersion, err := s.store.Load(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal(version+1, newVersion)
		s.True(reloaded.Documentation.Complete[models.SectionSummary])
	})

	s.Run("rejects stale version", func() {
		audit := s.newAudit()
		s.Require().NoError(s.store.Create(s.ctx, audit))

		loaded, version, err := s.store.Load(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(s.ctx, loaded, version))

		err = s.store.Save(s.ctx, loaded, version)
		s.Require().ErrorIs(err, sentinel.ErrVersionConflict)
	})

	s.Run("returns ErrNotFound for unknown audit", func() {
		err := s.store.Save(s.ctx, s.newAudit(), 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestCloneIsolation verifies callers never mutate stored state through a
// loaded aggregate.
func (s *MemoryStoreSuite) TestCloneIsolation() {
	audit := s.newAudit()
	s.Require().NoError(s.store.Create(s.ctx, audit))

	loaded, _, err := s.store.Load(s.ctx, audit.ID)
	s.Require().NoError(err)
	loaded.Documentation.MarkComplete(models.SectionSummary)
	loaded.Status = models.StatusDecided // never do this outside the machine; proves isolation

	reloaded, _, err := s.store.Load(s.ctx, audit.ID)
	s.Require().NoError(err)
	s.False(reloaded.Documentation.Complete[models.SectionSummary])
	s.Equal(models.StatusDraft, reloaded.Status)
}

// TestConcurrentSave_OneWinner verifies the compare-and-swap contract under
// real contention: N writers load the same version, exactly one save lands.
func (s *MemoryStoreSuite) TestConcurrentSave_OneWinner() {
	audit := s.newAudit()
	s.Require().NoError(s.store.Create(s.ctx, audit))

	loaded, version, err := s.store.Load(s.ctx, audit.ID)
	s.Require().NoError(err)

	const writers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Save(s.ctx, loaded.Clone(), version)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrVersionConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one concurrent writer may win")
	s.Equal(int32(writers-1), conflicts.Load())
}
