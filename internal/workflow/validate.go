package workflow

import (
	"attest/internal/audits/models"
	dErrors "attest/pkg/domain-errors"
)

// Violation codes for transition validation. Each violation also carries the
// offending section or clause in its Field so callers can render failures
// individually.
const (
	ViolationIncompleteDocumentation      = "incomplete_documentation"
	ViolationUnansweredMajorNonconformity = "unanswered_major_nonconformity"
	ViolationMissingRecommendation        = "missing_recommendation"
)

// Validate runs the domain precondition rules for the from→to edge and
// returns every violation found in one pass. It never consults the actor:
// permission and validation are orthogonal concerns checked independently.
// Edges without rules (the rollback edge) return nil.
func Validate(from, to models.AuditStatus, audit *models.Audit) []dErrors.Violation {
	rule, ok := transitions[edge{from: from, to: to}]
	if !ok || rule.validate == nil {
		return nil
	}
	return rule.validate(audit)
}

// validateDocumentationComplete gates draft→client_review: every required
// report section must be marked complete. One violation per missing section.
func validateDocumentationComplete(audit *models.Audit) []dErrors.Violation {
	var violations []dErrors.Violation
	for _, section := range audit.Documentation.IncompleteSections() {
		violations = append(violations, dErrors.Violation{
			Code:   ViolationIncompleteDocumentation,
			Field:  string(section),
			Detail: "documentation section " + string(section) + " is not complete",
		})
	}
	return violations
}

// validateMajorNonconformitiesAnswered gates client_review→submitted_to_cb:
// every major nonconformity needs a documented response. All offenders are
// reported together, identified by clause.
func validateMajorNonconformitiesAnswered(audit *models.Audit) []dErrors.Violation {
	var violations []dErrors.Violation
	for _, finding := range audit.UnansweredMajorNonconformities() {
		violations = append(violations, dErrors.Violation{
			Code:   ViolationUnansweredMajorNonconformity,
			Field:  finding.Clause.String(),
			Detail: "major nonconformity for clause " + finding.Clause.String() + " has no response",
		})
	}
	return violations
}

// validateRecommendationExists gates submitted_to_cb→decided.
func validateRecommendationExists(audit *models.Audit) []dErrors.Violation {
	if audit.Recommendation != nil {
		return nil
	}
	return []dErrors.Violation{{
		Code:   ViolationMissingRecommendation,
		Detail: "a recommendation must exist before a decision can be made",
	}}
}
