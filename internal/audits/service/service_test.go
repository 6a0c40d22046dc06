package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attest/internal/audits/models"
	"attest/internal/audits/service"
	"attest/internal/audits/store"
	"attest/internal/authz"
	"attest/internal/workflow"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
)

type emitted struct {
	eventType string
	payload   any
}

type recordingDispatcher struct {
	events []emitted
}

func (d *recordingDispatcher) Emit(_ context.Context, eventType string, payload any) {
	d.events = append(d.events, emitted{eventType: eventType, payload: payload})
}

func (d *recordingDispatcher) types() []string {
	out := make([]string, len(d.events))
	for i, e := range d.events {
		out[i] = e.eventType
	}
	return out
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemory
	dispatcher *recordingDispatcher
	service    *service.Service

	orgID id.OrganizationID
	lead  authz.Actor
	admin authz.Actor
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.dispatcher = &recordingDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := workflow.New(s.store, s.dispatcher, logger)
	s.service = service.New(s.store, machine, s.dispatcher, logger)

	s.orgID = id.OrganizationID(uuid.New())
	s.lead = authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleLeadAuditor, OrganizationID: s.orgID}
	s.admin = authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleCBAdmin}
}

func (s *ServiceSuite) createAudit() *models.Audit {
	audit, err := s.service.CreateAudit(s.ctx, s.lead, service.CreateAuditRequest{
		OrganizationID: s.orgID,
		Certifications: []models.Certification{{ID: id.CertificationID(uuid.New()), Standard: "ISO 9001"}},
	})
	s.Require().NoError(err)
	return audit
}

func (s *ServiceSuite) TestCreateAudit() {
	s.Run("lead auditor becomes the lead by default", func() {
		audit := s.createAudit()
		s.Equal(s.lead.ID, audit.LeadAuditorID)
		s.Equal(models.StatusDraft, audit.Status)
		s.Contains(s.dispatcher.types(), models.EventTypeAuditCreated)
	})

	s.Run("lead auditor cannot assign someone else", func() {
		_, err := s.service.CreateAudit(s.ctx, s.lead, service.CreateAuditRequest{
			OrganizationID: s.orgID,
			LeadAuditorID:  id.ActorID(uuid.New()),
			Certifications: []models.Certification{{ID: id.CertificationID(uuid.New()), Standard: "ISO 9001"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("cb_admin assigns any lead", func() {
		leadID := id.ActorID(uuid.New())
		audit, err := s.service.CreateAudit(s.ctx, s.admin, service.CreateAuditRequest{
			OrganizationID: s.orgID,
			LeadAuditorID:  leadID,
			Certifications: []models.Certification{{ID: id.CertificationID(uuid.New()), Standard: "ISO 9001"}},
		})
		s.Require().NoError(err)
		s.Equal(leadID, audit.LeadAuditorID)
	})

	s.Run("client roles may not create audits", func() {
		client := authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleClientAdmin, OrganizationID: s.orgID}
		_, err := s.service.CreateAudit(s.ctx, client, service.CreateAuditRequest{
			OrganizationID: s.orgID,
			Certifications: []models.Certification{{ID: id.CertificationID(uuid.New()), Standard: "ISO 9001"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("invariant violations surface as validation errors", func() {
		_, err := s.service.CreateAudit(s.ctx, s.admin, service.CreateAuditRequest{
			OrganizationID: s.orgID,
			LeadAuditorID:  id.ActorID(uuid.New()),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestGetAudit() {
	audit := s.createAudit()

	s.Run("organization members may view", func() {
		member := authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleClientAdmin, OrganizationID: s.orgID}
		got, err := s.service.GetAudit(s.ctx, member, audit.ID)
		s.Require().NoError(err)
		s.Equal(audit.ID, got.ID)
	})

	s.Run("outsiders are denied", func() {
		outsider := authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleAuditor, OrganizationID: id.OrganizationID(uuid.New())}
		_, err := s.service.GetAudit(s.ctx, outsider, audit.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown audit", func() {
		_, err := s.service.GetAudit(s.ctx, s.lead, id.NewAuditID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDocumentationAndTransition() {
	audit := s.createAudit()

	for _, section := range models.RequiredSections {
		_, err := s.service.CompleteDocumentationSection(s.ctx, s.lead, audit.ID, section)
		s.Require().NoError(err)
	}

	result, err := s.service.Transition(s.ctx, s.lead, audit.ID, models.StatusClientReview, "ready for review")
	s.Require().NoError(err)
	s.Equal(models.StatusClientReview, result.Audit.Status)
	s.Contains(s.dispatcher.types(), workflow.EventTypeStatusChanged)
}

func (s *ServiceSuite) TestAddFinding() {
	audit := s.createAudit()

	s.Run("team members may record findings", func() {
		member := authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleAuditor, OrganizationID: s.orgID}
		loaded, version, err := s.store.Load(s.ctx, audit.ID)
		s.Require().NoError(err)
		loaded.TeamMemberIDs = append(loaded.TeamMemberIDs, member.ID)
		s.Require().NoError(s.store.Save(s.ctx, loaded, version))

		finding, err := s.service.AddFinding(s.ctx, member, audit.ID, service.AddFindingRequest{
			Type:        models.FindingNonconformity,
			Severity:    models.SeverityMajor,
			Clause:      models.ClauseRef{Standard: "ISO 9001", Clause: "7.1.2"},
			Description: "no calibration schedule",
		})
		s.Require().NoError(err)
		s.False(finding.ID.IsNil())
		s.Contains(s.dispatcher.types(), models.EventTypeFindingRecorded)
	})

	s.Run("organization members may not", func() {
		client := authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleClientAdmin, OrganizationID: s.orgID}
		_, err := s.service.AddFinding(s.ctx, client, audit.ID, service.AddFindingRequest{
			Type:        models.FindingObservation,
			Clause:      models.ClauseRef{Standard: "ISO 9001", Clause: "4.4"},
			Description: "could be tighter",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("clause outside the certifications is rejected", func() {
		_, err := s.service.AddFinding(s.ctx, s.lead, audit.ID, service.AddFindingRequest{
			Type:        models.FindingObservation,
			Clause:      models.ClauseRef{Standard: "ISO 27001", Clause: "A.8.1"},
			Description: "wrong standard",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ServiceSuite) TestUpdateFinding() {
	audit := s.createAudit()
	finding, err := s.service.AddFinding(s.ctx, s.lead, audit.ID, service.AddFindingRequest{
		Type:        models.FindingNonconformity,
		Severity:    models.SeverityMajor,
		Clause:      models.ClauseRef{Standard: "ISO 9001", Clause: "8.5.1"},
		Description: "initial wording",
	})
	s.Require().NoError(err)

	s.Run("downgrades severity", func() {
		minor := models.SeverityMinor
		updated, err := s.service.UpdateFinding(s.ctx, s.lead, audit.ID, finding.ID, service.UpdateFindingRequest{Severity: &minor})
		s.Require().NoError(err)
		s.Equal(models.SeverityMinor, updated.Severity)
	})

	s.Run("rejects severity on non-nonconformities", func() {
		obs, err := s.service.AddFinding(s.ctx, s.lead, audit.ID, service.AddFindingRequest{
			Type:        models.FindingObservation,
			Clause:      models.ClauseRef{Standard: "ISO 9001", Clause: "4.4"},
			Description: "note",
		})
		s.Require().NoError(err)

		major := models.SeverityMajor
		_, err = s.service.UpdateFinding(s.ctx, s.lead, audit.ID, obs.ID, service.UpdateFindingRequest{Severity: &major})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects empty description", func() {
		empty := ""
		_, err := s.service.UpdateFinding(s.ctx, s.lead, audit.ID, finding.ID, service.UpdateFindingRequest{Description: &empty})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown finding", func() {
		text := "x"
		_, err := s.service.UpdateFinding(s.ctx, s.lead, audit.ID, id.NewFindingID(), service.UpdateFindingRequest{Description: &text})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRespondToFinding() {
	audit := s.createAudit()
	finding, err := s.service.AddFinding(s.ctx, s.lead, audit.ID, service.AddFindingRequest{
		Type:        models.FindingNonconformity,
		Severity:    models.SeverityMajor,
		Clause:      models.ClauseRef{Standard: "ISO 9001", Clause: "7.1.2"},
		Description: "no calibration schedule",
	})
	s.Require().NoError(err)

	updated, err := s.service.RespondToFinding(s.ctx, s.lead, audit.ID, finding.ID, "schedule introduced, evidence attached")
	s.Require().NoError(err)
	s.Require().NotNil(updated.Response)
	s.Equal(s.lead.ID, updated.Response.RespondedBy)
	s.Contains(s.dispatcher.types(), models.EventTypeResponseRecorded)
}

func (s *ServiceSuite) TestRecommendationAndDecision() {
	audit := s.createAudit()
	for _, section := range models.RequiredSections {
		_, err := s.service.CompleteDocumentationSection(s.ctx, s.lead, audit.ID, section)
		s.Require().NoError(err)
	}
	_, err := s.service.Transition(s.ctx, s.lead, audit.ID, models.StatusClientReview, "")
	s.Require().NoError(err)

	s.Run("only the lead may author the recommendation", func() {
		other := authz.Actor{ID: id.ActorID(uuid.New()), Role: authz.RoleAuditor, OrganizationID: s.orgID}
		_, err := s.service.SetRecommendation(s.ctx, other, audit.ID, models.OutcomeCertify, "looks fine")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("lead submits the recommendation", func() {
		updated, err := s.service.SetRecommendation(s.ctx, s.lead, audit.ID, models.OutcomeCertify, "all requirements met")
		s.Require().NoError(err)
		s.Require().NotNil(updated.Recommendation)
		s.Equal(s.lead.ID, updated.Recommendation.AuthoredBy)
	})

	_, err = s.service.Transition(s.ctx, s.lead, audit.ID, models.StatusSubmittedToCB, "")
	s.Require().NoError(err)

	s.Run("decision lands with the status change", func() {
		result, err := s.service.CreateDecision(s.ctx, s.admin, audit.ID, models.OutcomeCertify,
			models.CertificateMetadata{CertificateNumber: "CB-2026-0101", Scope: "warehousing"}, "")
		s.Require().NoError(err)
		s.Equal(models.StatusDecided, result.Audit.Status)
		s.Require().NotNil(result.Audit.Decision)
		s.Contains(s.dispatcher.types(), models.EventTypeDecisionIssued)

		loaded, _, err := s.store.Load(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDecided, loaded.Status)
		s.NotNil(loaded.Decision)
	})

	s.Run("decided audit rejects further content changes", func() {
		_, err := s.service.AddFinding(s.ctx, s.lead, audit.ID, service.AddFindingRequest{
			Type:        models.FindingObservation,
			Clause:      models.ClauseRef{Standard: "ISO 9001", Clause: "4.4"},
			Description: "too late",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = s.service.SetRecommendation(s.ctx, s.lead, audit.ID, models.OutcomeDeny, "changed my mind")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// conflictingStore loses every compare-and-swap, as if another writer always
// races ahead between the service's load and save.
type conflictingStore struct {
	store.Store
}

func (c *conflictingStore) Save(context.Context, *models.Audit, uint64) error {
	return sentinel.ErrVersionConflict
}

func (s *ServiceSuite) TestLostRaceSurfacesVersionConflict() {
	audit := s.createAudit()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	racy := &conflictingStore{Store: s.store}
	machine := workflow.New(racy, s.dispatcher, logger)
	svc := service.New(racy, machine, s.dispatcher, logger)

	_, err := svc.CompleteDocumentationSection(s.ctx, s.lead, audit.ID, models.SectionSummary)
	s.True(dErrors.HasCode(err, dErrors.CodeVersionConflict))
}
