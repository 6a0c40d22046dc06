// Package service orchestrates audit lifecycle operations.
//
// The service owns every mutation of the audit aggregate outside the workflow
// machine: sub-resource writes load the aggregate fresh, check permission
// against the current state, mutate through the aggregate's own methods, and
// save with the version read at load time. A concurrent writer surfaces as a
// version_conflict the caller may retry after reloading.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	auditmetrics "attest/internal/audits/metrics"
	"attest/internal/audits/models"
	"attest/internal/audits/store"
	"attest/internal/authz"
	"attest/internal/workflow"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// Dispatcher is the event emission contract (see internal/events).
type Dispatcher interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// Machine is the transition entry point the service delegates to.
type Machine interface {
	Attempt(ctx context.Context, req workflow.TransitionRequest) (*workflow.Result, error)
}

// Service orchestrates audit management.
type Service struct {
	audits     store.Store
	machine    Machine
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *auditmetrics.Metrics
}

// Option configures optional service dependencies.
type Option func(s *Service)

// WithMetrics attaches prometheus metrics to the service.
func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(audits store.Store, machine Machine, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		audits:     audits,
		machine:    machine,
		dispatcher: dispatcher,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAuditRequest carries the inputs for a new draft audit.
type CreateAuditRequest struct {
	OrganizationID id.OrganizationID
	LeadAuditorID  id.ActorID
	Certifications []models.Certification
	Sites          []id.SiteID
	TeamMemberIDs  []id.ActorID
}

// CreateAudit registers a new draft audit. A lead auditor may only create an
// audit led by themselves; a cb_admin may assign any lead.
func (s *Service) CreateAudit(ctx context.Context, actor authz.Actor, req CreateAuditRequest) (*models.Audit, error) {
	switch actor.Role {
	case authz.RoleCBAdmin:
	case authz.RoleLeadAuditor:
		if req.LeadAuditorID.IsNil() {
			req.LeadAuditorID = actor.ID
		}
		if req.LeadAuditorID != actor.ID {
			return nil, dErrors.New(dErrors.CodeForbidden, "a lead auditor may only create audits they lead")
		}
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "actor is not permitted to create audits")
	}

	now := requestcontext.Now(ctx)
	audit, err := models.NewAudit(id.NewAuditID(), req.OrganizationID, req.LeadAuditorID, req.Certifications, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	audit.Sites = req.Sites
	audit.TeamMemberIDs = req.TeamMemberIDs

	if err := s.audits.Create(ctx, audit); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "audit already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create audit")
	}

	s.dispatcher.Emit(ctx, models.EventTypeAuditCreated, models.AuditCreated{
		AuditID:        audit.ID,
		OrganizationID: audit.OrganizationID,
		LeadAuditorID:  audit.LeadAuditorID,
		ActorID:        actor.ID,
		Timestamp:      now,
	})
	if s.metrics != nil {
		s.metrics.IncrementAuditsCreated()
	}
	s.logger.InfoContext(ctx, "audit created",
		"audit_id", audit.ID,
		"organization_id", audit.OrganizationID,
		"lead_auditor_id", audit.LeadAuditorID,
	)
	return audit, nil
}

// GetAudit returns the audit if the actor may view it.
func (s *Service) GetAudit(ctx context.Context, actor authz.Actor, auditID id.AuditID) (*models.Audit, error) {
	audit, _, err := s.load(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if !authz.Evaluate(actor, authz.ActionView, authz.AuditResource(audit)) {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor is not permitted to view this audit")
	}
	return audit, nil
}

// Transition drives a status change through the workflow machine.
func (s *Service) Transition(ctx context.Context, actor authz.Actor, auditID id.AuditID, target models.AuditStatus, note string) (*workflow.Result, error) {
	return s.machine.Attempt(ctx, workflow.TransitionRequest{
		AuditID: auditID,
		Target:  target,
		Actor:   actor,
		Note:    note,
	})
}

// CompleteDocumentationSection marks one required report section complete.
func (s *Service) CompleteDocumentationSection(ctx context.Context, actor authz.Actor, auditID id.AuditID, section models.DocumentationSection) (*models.Audit, error) {
	audit, err := s.mutate(ctx, actor, auditID, authz.ActionEdit, func(a *models.Audit, now time.Time) error {
		if err := a.CanMutateContent(); err != nil {
			return err
		}
		a.Documentation.MarkComplete(section)
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Emit(ctx, models.EventTypeDocumentationUpdated, models.DocumentationUpdated{
		AuditID:   audit.ID,
		Section:   section,
		ActorID:   actor.ID,
		Timestamp: audit.UpdatedAt,
	})
	return audit, nil
}

// AddFindingRequest carries the inputs for a new finding.
type AddFindingRequest struct {
	Type        models.FindingType
	Severity    models.Severity
	Clause      models.ClauseRef
	Description string
}

// AddFinding records a finding against the audit. The clause must reference a
// standard within the audit's certifications, and the audit must not be
// decided; both are checked against freshly loaded state.
func (s *Service) AddFinding(ctx context.Context, actor authz.Actor, auditID id.AuditID, req AddFindingRequest) (*models.Finding, error) {
	var finding *models.Finding
	audit, err := s.mutate(ctx, actor, auditID, authz.ActionCreateFinding, func(a *models.Audit, now time.Time) error {
		f, err := models.NewFinding(id.NewFindingID(), req.Type, req.Severity, req.Clause, req.Description, now)
		if err != nil {
			return err
		}
		if err := a.AddFinding(f, now); err != nil {
			return err
		}
		finding = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Emit(ctx, models.EventTypeFindingRecorded, models.FindingRecorded{
		AuditID:   audit.ID,
		FindingID: finding.ID,
		Type:      finding.Type,
		Severity:  finding.Severity,
		Clause:    finding.Clause,
		ActorID:   actor.ID,
		Timestamp: finding.CreatedAt,
	})
	if s.metrics != nil {
		s.metrics.IncrementFindingsRecorded(string(finding.Type), string(finding.Severity))
	}
	return finding, nil
}

// UpdateFindingRequest carries the mutable finding fields. Nil means unchanged.
type UpdateFindingRequest struct {
	Description *string
	Severity    *models.Severity
}

// UpdateFinding edits a finding's description or severity.
func (s *Service) UpdateFinding(ctx context.Context, actor authz.Actor, auditID id.AuditID, findingID id.FindingID, req UpdateFindingRequest) (*models.Finding, error) {
	var updated models.Finding
	audit, err := s.mutate(ctx, actor, auditID, authz.ActionEdit, func(a *models.Audit, now time.Time) error {
		if err := a.CanMutateContent(); err != nil {
			return err
		}
		finding, err := a.FindingByID(findingID)
		if err != nil {
			return err
		}
		if req.Description != nil {
			if *req.Description == "" {
				return dErrors.New(dErrors.CodeInvariantViolation, "finding description cannot be empty")
			}
			finding.Description = *req.Description
		}
		if req.Severity != nil {
			if finding.Type != models.FindingNonconformity {
				return dErrors.New(dErrors.CodeInvariantViolation, "severity applies to nonconformities only")
			}
			if *req.Severity != models.SeverityMajor && *req.Severity != models.SeverityMinor {
				return dErrors.New(dErrors.CodeInvalidInput, "unknown severity "+string(*req.Severity))
			}
			finding.Severity = *req.Severity
		}
		finding.UpdatedAt = now
		a.UpdatedAt = now
		updated = *finding
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Emit(ctx, models.EventTypeFindingUpdated, models.FindingUpdated{
		AuditID:   audit.ID,
		FindingID: findingID,
		ActorID:   actor.ID,
		Timestamp: updated.UpdatedAt,
	})
	return &updated, nil
}

// RespondToFinding records the client's documented answer on a finding. The
// lead auditor records responses on the client's behalf.
func (s *Service) RespondToFinding(ctx context.Context, actor authz.Actor, auditID id.AuditID, findingID id.FindingID, text string) (*models.Finding, error) {
	var updated models.Finding
	audit, err := s.mutate(ctx, actor, auditID, authz.ActionEdit, func(a *models.Audit, now time.Time) error {
		if err := a.RespondToFinding(findingID, text, actor.ID, now); err != nil {
			return err
		}
		finding, err := a.FindingByID(findingID)
		if err != nil {
			return err
		}
		updated = *finding
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Emit(ctx, models.EventTypeResponseRecorded, models.ResponseRecorded{
		AuditID:   audit.ID,
		FindingID: findingID,
		ActorID:   actor.ID,
		Timestamp: updated.UpdatedAt,
	})
	return &updated, nil
}

// SetRecommendation writes or replaces the lead auditor's recommendation.
func (s *Service) SetRecommendation(ctx context.Context, actor authz.Actor, auditID id.AuditID, value models.OutcomeValue, justification string) (*models.Audit, error) {
	audit, err := s.mutate(ctx, actor, auditID, authz.ActionCreateRecommendation, func(a *models.Audit, now time.Time) error {
		return a.SetRecommendation(value, justification, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Emit(ctx, models.EventTypeRecommendationSubmitted, models.RecommendationSubmitted{
		AuditID:   audit.ID,
		Value:     value,
		ActorID:   actor.ID,
		Timestamp: audit.UpdatedAt,
	})
	return audit, nil
}

// CreateDecision records the certification body's binding outcome and drives
// the submitted_to_cb→decided transition in the same compare-and-swap: a
// reader never sees a decided audit without its decision, or the reverse.
func (s *Service) CreateDecision(ctx context.Context, actor authz.Actor, auditID id.AuditID, value models.OutcomeValue, certificate models.CertificateMetadata, note string) (*workflow.Result, error) {
	now := requestcontext.Now(ctx)
	result, err := s.machine.Attempt(ctx, workflow.TransitionRequest{
		AuditID: auditID,
		Target:  models.StatusDecided,
		Actor:   actor,
		Note:    note,
		Apply: func(a *models.Audit) error {
			return a.AttachDecision(value, certificate, actor.ID, now)
		},
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Emit(ctx, models.EventTypeDecisionIssued, models.DecisionIssued{
		AuditID:           auditID,
		Value:             value,
		CertificateNumber: certificate.CertificateNumber,
		ActorID:           actor.ID,
		Timestamp:         now,
	})
	if s.metrics != nil {
		s.metrics.IncrementDecisionsIssued(string(value))
	}
	return result, nil
}

// load fetches the aggregate, translating store sentinels.
func (s *Service) load(ctx context.Context, auditID id.AuditID) (*models.Audit, uint64, error) {
	audit, version, err := s.audits.Load(ctx, auditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, 0, dErrors.New(dErrors.CodeNotFound, "audit not found")
		}
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit")
	}
	return audit, version, nil
}

// mutate is the shared load→authorize→mutate→save path for sub-resource
// writes. The permission check runs against the freshly loaded aggregate and
// the save carries the version read here.
func (s *Service) mutate(ctx context.Context, actor authz.Actor, auditID id.AuditID, action authz.Action, fn func(a *models.Audit, now time.Time) error) (*models.Audit, error) {
	audit, version, err := s.load(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if !authz.Evaluate(actor, action, authz.AuditResource(audit)) {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor is not permitted to modify this audit")
	}
	if err := fn(audit, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.audits.Save(ctx, audit, version); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrVersionConflict):
			return nil, dErrors.New(dErrors.CodeVersionConflict, "audit was modified concurrently; reload and retry")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "audit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save audit")
	}
	return audit, nil
}
