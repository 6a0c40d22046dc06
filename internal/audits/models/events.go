package models

import (
	"time"

	id "attest/pkg/domain"
)

// Event types emitted by the audits service. The status change event lives in
// internal/workflow next to the machine that emits it.
const (
	EventTypeAuditCreated            = "audit.created"
	EventTypeDocumentationUpdated    = "audit.documentation_updated"
	EventTypeFindingRecorded         = "audit.finding_recorded"
	EventTypeFindingUpdated          = "audit.finding_updated"
	EventTypeResponseRecorded        = "audit.finding_response_recorded"
	EventTypeRecommendationSubmitted = "audit.recommendation_submitted"
	EventTypeDecisionIssued          = "audit.decision_issued"
)

// AuditCreated is emitted once a new audit is persisted.
type AuditCreated struct {
	AuditID        id.AuditID        `json:"audit_id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	LeadAuditorID  id.ActorID        `json:"lead_auditor_id"`
	ActorID        id.ActorID        `json:"actor_id"`
	Timestamp      time.Time         `json:"timestamp"`
}

// DocumentationUpdated is emitted when a report section is marked complete.
type DocumentationUpdated struct {
	AuditID   id.AuditID           `json:"audit_id"`
	Section   DocumentationSection `json:"section"`
	ActorID   id.ActorID           `json:"actor_id"`
	Timestamp time.Time            `json:"timestamp"`
}

// FindingRecorded is emitted when a finding is added to an audit.
type FindingRecorded struct {
	AuditID   id.AuditID   `json:"audit_id"`
	FindingID id.FindingID `json:"finding_id"`
	Type      FindingType  `json:"type"`
	Severity  Severity     `json:"severity,omitempty"`
	Clause    ClauseRef    `json:"clause"`
	ActorID   id.ActorID   `json:"actor_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// FindingUpdated is emitted when a finding's description or severity changes.
type FindingUpdated struct {
	AuditID   id.AuditID   `json:"audit_id"`
	FindingID id.FindingID `json:"finding_id"`
	ActorID   id.ActorID   `json:"actor_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// ResponseRecorded is emitted when a client response lands on a finding.
type ResponseRecorded struct {
	AuditID   id.AuditID   `json:"audit_id"`
	FindingID id.FindingID `json:"finding_id"`
	ActorID   id.ActorID   `json:"actor_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// RecommendationSubmitted is emitted when the lead auditor writes or replaces
// the recommendation.
type RecommendationSubmitted struct {
	AuditID   id.AuditID   `json:"audit_id"`
	Value     OutcomeValue `json:"value"`
	ActorID   id.ActorID   `json:"actor_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// DecisionIssued is emitted alongside the status change when the certification
// body records its binding outcome.
type DecisionIssued struct {
	AuditID           id.AuditID   `json:"audit_id"`
	Value             OutcomeValue `json:"value"`
	CertificateNumber string       `json:"certificate_number,omitempty"`
	ActorID           id.ActorID   `json:"actor_id"`
	Timestamp         time.Time    `json:"timestamp"`
}
