package models

import (
	dErrors "attest/pkg/domain-errors"
)

// AuditStatus is the lifecycle state of an audit. Transitions happen only
// through the workflow machine; nothing else assigns Status directly.
type AuditStatus string

const (
	StatusDraft         AuditStatus = "draft"
	StatusClientReview  AuditStatus = "client_review"
	StatusSubmittedToCB AuditStatus = "submitted_to_cb"
	StatusDecided       AuditStatus = "decided"
)

// IsTerminal reports whether the status has no outgoing transitions.
func (s AuditStatus) IsTerminal() bool {
	return s == StatusDecided
}

// Valid reports whether s is one of the defined lifecycle states.
func (s AuditStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusClientReview, StatusSubmittedToCB, StatusDecided:
		return true
	}
	return false
}

// ParseAuditStatus validates a raw status string from a trust boundary.
func ParseAuditStatus(raw string) (AuditStatus, error) {
	s := AuditStatus(raw)
	if !s.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown audit status "+raw)
	}
	return s, nil
}
