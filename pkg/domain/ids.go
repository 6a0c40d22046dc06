// Package domain defines typed identifiers shared across modules.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-type assignment (an ActorID can never be passed where an AuditID is
// expected). Parse functions enforce the trust-boundary invariant that IDs are
// valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "attest/pkg/domain-errors"
)

type (
	// AuditID identifies one certification audit aggregate.
	AuditID uuid.UUID
	// ActorID identifies an authenticated actor.
	ActorID uuid.UUID
	// OrganizationID identifies the tenant boundary an audit belongs to.
	OrganizationID uuid.UUID
	// FindingID identifies a finding within an audit.
	FindingID uuid.UUID
	// CertificationID identifies a certification (standard) under assessment.
	CertificationID uuid.UUID
	// SiteID identifies an audited site.
	SiteID uuid.UUID
)

func (id AuditID) String() string         { return uuid.UUID(id).String() }
func (id ActorID) String() string         { return uuid.UUID(id).String() }
func (id OrganizationID) String() string  { return uuid.UUID(id).String() }
func (id FindingID) String() string       { return uuid.UUID(id).String() }
func (id CertificationID) String() string { return uuid.UUID(id).String() }
func (id SiteID) String() string          { return uuid.UUID(id).String() }

func (id AuditID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id FindingID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CertificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SiteID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }

// NewAuditID returns a fresh random audit ID.
func NewAuditID() AuditID { return AuditID(uuid.New()) }

// NewFindingID returns a fresh random finding ID.
func NewFindingID() FindingID { return FindingID(uuid.New()) }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseAuditID validates and converts a raw string into an AuditID.
func ParseAuditID(raw string) (AuditID, error) {
	parsed, err := parseUUID(raw, "audit")
	if err != nil {
		return AuditID{}, err
	}
	return AuditID(parsed), nil
}

// ParseActorID validates and converts a raw string into an ActorID.
func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parseUUID(raw, "actor")
	if err != nil {
		return ActorID{}, err
	}
	return ActorID(parsed), nil
}

// ParseOrganizationID validates and converts a raw string into an OrganizationID.
func ParseOrganizationID(raw string) (OrganizationID, error) {
	parsed, err := parseUUID(raw, "organization")
	if err != nil {
		return OrganizationID{}, err
	}
	return OrganizationID(parsed), nil
}

// ParseFindingID validates and converts a raw string into a FindingID.
func ParseFindingID(raw string) (FindingID, error) {
	parsed, err := parseUUID(raw, "finding")
	if err != nil {
		return FindingID{}, err
	}
	return FindingID(parsed), nil
}
