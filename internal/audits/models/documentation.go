package models

import (
	dErrors "attest/pkg/domain-errors"
)

// DocumentationSection names one of the report sections that must be marked
// complete before an audit leaves draft.
type DocumentationSection string

const (
	SectionOrganizationChanges DocumentationSection = "organization_changes_review"
	SectionPlanReview          DocumentationSection = "plan_review"
	SectionSummary             DocumentationSection = "summary"
)

// RequiredSections lists every section in a fixed order so violation lists are
// deterministic.
var RequiredSections = []DocumentationSection{
	SectionOrganizationChanges,
	SectionPlanReview,
	SectionSummary,
}

// ParseDocumentationSection validates a raw section name from a trust boundary.
func ParseDocumentationSection(raw string) (DocumentationSection, error) {
	s := DocumentationSection(raw)
	for _, known := range RequiredSections {
		if s == known {
			return s, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown documentation section "+raw)
}

// Documentation tracks completion of the required report sections.
type Documentation struct {
	Complete map[DocumentationSection]bool `json:"complete"`
}

// NewDocumentation returns a tracker with every section incomplete.
func NewDocumentation() Documentation {
	return Documentation{Complete: make(map[DocumentationSection]bool, len(RequiredSections))}
}

// MarkComplete records a section as complete.
func (d *Documentation) MarkComplete(section DocumentationSection) {
	if d.Complete == nil {
		d.Complete = make(map[DocumentationSection]bool, len(RequiredSections))
	}
	d.Complete[section] = true
}

// IsComplete reports whether every required section is marked complete.
func (d *Documentation) IsComplete() bool {
	return len(d.IncompleteSections()) == 0
}

// IncompleteSections returns the missing sections in RequiredSections order.
func (d *Documentation) IncompleteSections() []DocumentationSection {
	var missing []DocumentationSection
	for _, section := range RequiredSections {
		if !d.Complete[section] {
			missing = append(missing, section)
		}
	}
	return missing
}
