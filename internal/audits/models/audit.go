package models

import (
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// Certification is a standard under assessment in an audit, e.g. ISO 9001.
type Certification struct {
	ID       id.CertificationID `json:"id"`
	Standard string             `json:"standard"`
}

// Audit is the aggregate root for one certification assessment.
//
// Invariants:
//   - Status changes only through the workflow machine, never by assignment
//   - LeadAuditorID is set at creation and immutable thereafter
//   - OrganizationID establishes the tenant boundary for all visibility rules
//   - Findings, recommendation, and decision are mutable only while Status is
//     not decided; the decision itself is created exactly once
//   - Every finding's clause belongs to a standard within Certifications
//   - The recommendation is immutable once a decision exists
//
// The aggregate is loaded and saved as a unit; the store's compare-and-swap on
// the version counter is what makes validate-then-mutate safe under
// concurrent writers.
type Audit struct {
	ID             id.AuditID         `json:"id"`
	OrganizationID id.OrganizationID  `json:"organization_id"`
	LeadAuditorID  id.ActorID         `json:"lead_auditor_id"`
	Status         AuditStatus        `json:"status"`
	Certifications []Certification    `json:"certifications"`
	Sites          []id.SiteID        `json:"sites"`
	TeamMemberIDs  []id.ActorID       `json:"team_member_ids"`
	Documentation  Documentation      `json:"documentation"`
	Findings       []Finding          `json:"findings"`
	Recommendation *Recommendation    `json:"recommendation,omitempty"`
	Decision       *Decision          `json:"decision,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewAudit constructs a draft audit with its lead auditor assigned.
func NewAudit(auditID id.AuditID, orgID id.OrganizationID, leadAuditorID id.ActorID, certifications []Certification, now time.Time) (*Audit, error) {
	if auditID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit id is required")
	}
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit requires an organization")
	}
	if leadAuditorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit requires a lead auditor")
	}
	if len(certifications) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit requires at least one certification")
	}
	return &Audit{
		ID:             auditID,
		OrganizationID: orgID,
		LeadAuditorID:  leadAuditorID,
		Status:         StatusDraft,
		Certifications: certifications,
		Documentation:  NewDocumentation(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyStatus records a status change decided by the workflow machine.
// The machine has already checked the edge, permission, and validation rules.
func (a *Audit) ApplyStatus(target AuditStatus, now time.Time) {
	a.Status = target
	a.UpdatedAt = now
}

// CanMutateContent checks the hard boundary invariant: findings and the
// recommendation are frozen once the audit is decided.
func (a *Audit) CanMutateContent() error {
	if a.Status == StatusDecided {
		return dErrors.New(dErrors.CodeInvariantViolation, "audit is decided; its content can no longer change")
	}
	return nil
}

// CoversStandard reports whether the given standard is within the audit's
// certifications.
func (a *Audit) CoversStandard(standard string) bool {
	for _, cert := range a.Certifications {
		if cert.Standard == standard {
			return true
		}
	}
	return false
}

// AddFinding validates and attaches a finding to the audit.
func (a *Audit) AddFinding(f *Finding, now time.Time) error {
	if err := a.CanMutateContent(); err != nil {
		return err
	}
	if !a.CoversStandard(f.Clause.Standard) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"clause "+f.Clause.String()+" does not belong to a standard within this audit's certifications")
	}
	a.Findings = append(a.Findings, *f)
	a.UpdatedAt = now
	return nil
}

// FindingByID returns a pointer into the aggregate's finding slice.
func (a *Audit) FindingByID(findingID id.FindingID) (*Finding, error) {
	for i := range a.Findings {
		if a.Findings[i].ID == findingID {
			return &a.Findings[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "finding not found on this audit")
}

// RespondToFinding records the client's response on a finding.
func (a *Audit) RespondToFinding(findingID id.FindingID, text string, respondedBy id.ActorID, now time.Time) error {
	if err := a.CanMutateContent(); err != nil {
		return err
	}
	if text == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "finding response cannot be empty")
	}
	finding, err := a.FindingByID(findingID)
	if err != nil {
		return err
	}
	finding.Response = &FindingResponse{Text: text, RespondedBy: respondedBy, RespondedAt: now}
	finding.UpdatedAt = now
	a.UpdatedAt = now
	return nil
}

// UnansweredMajorNonconformities returns, in recording order, every major
// nonconformity still lacking a response. The workflow validation reports all
// of them together.
func (a *Audit) UnansweredMajorNonconformities() []Finding {
	var unanswered []Finding
	for i := range a.Findings {
		f := &a.Findings[i]
		if f.RequiresResponse() && !f.HasResponse() {
			unanswered = append(unanswered, *f)
		}
	}
	return unanswered
}

// CanSetRecommendation checks whether the recommendation may be written.
func (a *Audit) CanSetRecommendation() error {
	if err := a.CanMutateContent(); err != nil {
		return err
	}
	if a.Decision != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "recommendation is immutable once a decision references it")
	}
	return nil
}

// SetRecommendation writes or replaces the lead auditor's recommendation.
func (a *Audit) SetRecommendation(value OutcomeValue, justification string, authoredBy id.ActorID, now time.Time) error {
	if err := a.CanSetRecommendation(); err != nil {
		return err
	}
	if !value.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown outcome value "+string(value))
	}
	if justification == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "recommendation requires a justification")
	}
	if a.Recommendation == nil {
		a.Recommendation = &Recommendation{CreatedAt: now}
	}
	a.Recommendation.Value = value
	a.Recommendation.Justification = justification
	a.Recommendation.AuthoredBy = authoredBy
	a.Recommendation.UpdatedAt = now
	a.UpdatedAt = now
	return nil
}

// CanAttachDecision checks the preconditions for decision creation.
func (a *Audit) CanAttachDecision() error {
	if a.Decision != nil {
		return dErrors.New(dErrors.CodeConflict, "a decision already exists for this audit")
	}
	if a.Status != StatusSubmittedToCB {
		return dErrors.New(dErrors.CodeInvariantViolation, "a decision can only be made while the audit is submitted to the certification body")
	}
	if a.Recommendation == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "a decision requires a recommendation")
	}
	return nil
}

// AttachDecision records the certification body's binding outcome. The caller
// drives the status transition through the workflow machine in the same save.
func (a *Audit) AttachDecision(value OutcomeValue, certificate CertificateMetadata, issuedBy id.ActorID, now time.Time) error {
	if err := a.CanAttachDecision(); err != nil {
		return err
	}
	if !value.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown outcome value "+string(value))
	}
	a.Decision = &Decision{
		Value:       value,
		Certificate: certificate,
		IssuedBy:    issuedBy,
		CreatedAt:   now,
	}
	a.UpdatedAt = now
	return nil
}

// Clone returns a deep copy of the aggregate. Stores hand out clones so no
// caller ever mutates shared state outside the save path.
func (a *Audit) Clone() *Audit {
	clone := *a
	clone.Certifications = append([]Certification(nil), a.Certifications...)
	clone.Sites = append([]id.SiteID(nil), a.Sites...)
	clone.TeamMemberIDs = append([]id.ActorID(nil), a.TeamMemberIDs...)
	clone.Findings = make([]Finding, len(a.Findings))
	for i := range a.Findings {
		clone.Findings[i] = a.Findings[i]
		if a.Findings[i].Response != nil {
			response := *a.Findings[i].Response
			clone.Findings[i].Response = &response
		}
	}
	if a.Recommendation != nil {
		recommendation := *a.Recommendation
		clone.Recommendation = &recommendation
	}
	if a.Decision != nil {
		decision := *a.Decision
		clone.Decision = &decision
	}
	if a.Documentation.Complete != nil {
		clone.Documentation.Complete = make(map[DocumentationSection]bool, len(a.Documentation.Complete))
		for section, done := range a.Documentation.Complete {
			clone.Documentation.Complete[section] = done
		}
	}
	return &clone
}

// IsTeamMember reports whether the actor is on the audit team.
func (a *Audit) IsTeamMember(actorID id.ActorID) bool {
	for _, member := range a.TeamMemberIDs {
		if member == actorID {
			return true
		}
	}
	return false
}
