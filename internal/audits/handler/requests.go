package handler

import (
	"github.com/google/uuid"

	"attest/internal/audits/models"
	"attest/internal/audits/service"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// createAuditRequest is the wire form of audit creation.
type createAuditRequest struct {
	OrganizationID string                 `json:"organization_id"`
	LeadAuditorID  string                 `json:"lead_auditor_id,omitempty"`
	Certifications []certificationRequest `json:"certifications"`
	Sites          []string               `json:"sites,omitempty"`
	TeamMemberIDs  []string               `json:"team_member_ids,omitempty"`
}

type certificationRequest struct {
	Standard string `json:"standard"`
}

func (r createAuditRequest) toDomain() (service.CreateAuditRequest, error) {
	var out service.CreateAuditRequest

	orgID, err := id.ParseOrganizationID(r.OrganizationID)
	if err != nil {
		return out, err
	}
	out.OrganizationID = orgID

	if r.LeadAuditorID != "" {
		leadID, err := id.ParseActorID(r.LeadAuditorID)
		if err != nil {
			return out, err
		}
		out.LeadAuditorID = leadID
	}

	for _, cert := range r.Certifications {
		if cert.Standard == "" {
			return out, dErrors.New(dErrors.CodeInvalidInput, "certification standard is required")
		}
		out.Certifications = append(out.Certifications, models.Certification{
			ID:       id.CertificationID(uuid.New()),
			Standard: cert.Standard,
		})
	}

	for _, raw := range r.Sites {
		siteID, err := uuid.Parse(raw)
		if err != nil {
			return out, dErrors.New(dErrors.CodeInvalidInput, "invalid site id "+raw)
		}
		out.Sites = append(out.Sites, id.SiteID(siteID))
	}

	for _, raw := range r.TeamMemberIDs {
		memberID, err := id.ParseActorID(raw)
		if err != nil {
			return out, err
		}
		out.TeamMemberIDs = append(out.TeamMemberIDs, memberID)
	}
	return out, nil
}

// transitionRequest is the wire form of a status change.
type transitionRequest struct {
	TargetStatus string `json:"target_status"`
	Note         string `json:"note,omitempty"`
}

// findingRequest is the wire form of finding creation.
type findingRequest struct {
	Type        string          `json:"type"`
	Severity    string          `json:"severity,omitempty"`
	Clause      clauseRefFields `json:"clause"`
	Description string          `json:"description"`
}

type clauseRefFields struct {
	Standard string `json:"standard"`
	Clause   string `json:"clause"`
}

func (r findingRequest) toDomain() service.AddFindingRequest {
	return service.AddFindingRequest{
		Type:        models.FindingType(r.Type),
		Severity:    models.Severity(r.Severity),
		Clause:      models.ClauseRef{Standard: r.Clause.Standard, Clause: r.Clause.Clause},
		Description: r.Description,
	}
}

// updateFindingRequest is the wire form of a finding edit. Absent fields stay
// unchanged.
type updateFindingRequest struct {
	Description *string `json:"description,omitempty"`
	Severity    *string `json:"severity,omitempty"`
}

func (r updateFindingRequest) toDomain() service.UpdateFindingRequest {
	out := service.UpdateFindingRequest{Description: r.Description}
	if r.Severity != nil {
		severity := models.Severity(*r.Severity)
		out.Severity = &severity
	}
	return out
}

// responseRequest is the wire form of a finding response.
type responseRequest struct {
	Text string `json:"text"`
}

// recommendationRequest is the wire form of the lead auditor's recommendation.
type recommendationRequest struct {
	Value         string `json:"value"`
	Justification string `json:"justification"`
}

// decisionRequest is the wire form of the certification body's decision.
type decisionRequest struct {
	Value       string            `json:"value"`
	Certificate certificateFields `json:"certificate"`
	Note        string            `json:"note,omitempty"`
}

type certificateFields struct {
	CertificateNumber string `json:"certificate_number,omitempty"`
	Scope             string `json:"scope,omitempty"`
	ValidUntil        string `json:"valid_until,omitempty"`
}
