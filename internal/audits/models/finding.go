package models

import (
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// FindingType classifies a finding recorded against an audit.
type FindingType string

const (
	FindingNonconformity FindingType = "nonconformity"
	FindingObservation   FindingType = "observation"
	FindingOpportunity   FindingType = "opportunity_for_improvement"
)

// Severity applies to nonconformities only.
type Severity string

const (
	SeverityMajor Severity = "major"
	SeverityMinor Severity = "minor"
)

// ClauseRef points at a clause of a certification standard, e.g.
// {Standard: "ISO 9001", Clause: "7.1.2"}.
type ClauseRef struct {
	Standard string `json:"standard"`
	Clause   string `json:"clause"`
}

func (c ClauseRef) String() string {
	return c.Standard + " " + c.Clause
}

// FindingResponse is the client's documented answer to a finding. Every major
// nonconformity needs one before the audit can leave client review.
type FindingResponse struct {
	Text        string     `json:"text"`
	RespondedBy id.ActorID `json:"responded_by"`
	RespondedAt time.Time  `json:"responded_at"`
}

// Finding is owned by exactly one audit and carries no permission grants of
// its own; authorization always decomposes to the owning audit.
type Finding struct {
	ID          id.FindingID     `json:"id"`
	Type        FindingType      `json:"type"`
	Severity    Severity         `json:"severity,omitempty"`
	Clause      ClauseRef        `json:"clause"`
	Description string           `json:"description"`
	Response    *FindingResponse `json:"response,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// RequiresResponse reports whether the finding blocks progression past client
// review while it has no response.
func (f *Finding) RequiresResponse() bool {
	return f.Type == FindingNonconformity && f.Severity == SeverityMajor
}

// HasResponse reports whether a non-empty response is recorded.
func (f *Finding) HasResponse() bool {
	return f.Response != nil && f.Response.Text != ""
}

// NewFinding validates and constructs a finding. Severity is mandatory for
// nonconformities and must be absent on other finding types.
func NewFinding(findingID id.FindingID, ftype FindingType, severity Severity, clause ClauseRef, description string, now time.Time) (*Finding, error) {
	switch ftype {
	case FindingNonconformity:
		if severity != SeverityMajor && severity != SeverityMinor {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "nonconformity requires a major or minor severity")
		}
	case FindingObservation, FindingOpportunity:
		if severity != "" {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "severity applies to nonconformities only")
		}
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown finding type "+string(ftype))
	}
	if clause.Standard == "" || clause.Clause == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "finding requires a standard clause reference")
	}
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "finding description cannot be empty")
	}
	return &Finding{
		ID:          findingID,
		Type:        ftype,
		Severity:    severity,
		Clause:      clause,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
