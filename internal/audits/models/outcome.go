package models

import (
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// OutcomeValue is the proposed or decided result of a certification audit.
// Recommendations and decisions share the same value set.
type OutcomeValue string

const (
	OutcomeCertify               OutcomeValue = "certify"
	OutcomeCertifyWithConditions OutcomeValue = "certify_with_conditions"
	OutcomeDeny                  OutcomeValue = "deny"
)

// Valid reports whether v is one of the defined outcome values.
func (v OutcomeValue) Valid() bool {
	switch v {
	case OutcomeCertify, OutcomeCertifyWithConditions, OutcomeDeny:
		return true
	}
	return false
}

// ParseOutcomeValue validates a raw outcome string from a trust boundary.
func ParseOutcomeValue(raw string) (OutcomeValue, error) {
	v := OutcomeValue(raw)
	if !v.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown outcome value "+raw)
	}
	return v, nil
}

// Recommendation is the lead auditor's proposed outcome. There is at most one
// per audit, and it becomes immutable once a decision references it.
type Recommendation struct {
	Value         OutcomeValue `json:"value"`
	Justification string       `json:"justification"`
	AuthoredBy    id.ActorID   `json:"authored_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CertificateMetadata travels with a decision; empty for denials.
type CertificateMetadata struct {
	CertificateNumber string    `json:"certificate_number,omitempty"`
	Scope             string    `json:"scope,omitempty"`
	ValidUntil        time.Time `json:"valid_until,omitzero"`
}

// Decision is the certification body's binding outcome, created exactly once.
// Its creation drives the transition into the decided status.
type Decision struct {
	Value       OutcomeValue        `json:"value"`
	Certificate CertificateMetadata `json:"certificate"`
	IssuedBy    id.ActorID          `json:"issued_by"`
	CreatedAt   time.Time           `json:"created_at"`
}
