// Package authz is the permission predicate evaluator.
//
// Evaluate is pure, side-effect free, and total over the defined action set.
// Predicates compose as a logical OR of role-scoped grants checked in a fixed
// precedence order; the first matching grant short-circuits:
//
//  1. cb_admin: view, edit, delete, make_decision anywhere, plus the
//     transitions the grant table scopes to cb_admin
//  2. resource ownership: the audit's lead auditor (view, edit,
//     create_finding, create_recommendation, lead-scoped transitions) and
//     assigned team members (view, create_finding)
//  3. organization membership: view only, never edit/delete/make_decision
//  4. default deny
//
// Sub-resources (findings, recommendation, decision) carry no grants of their
// own: every compound check decomposes to the owning audit's Resource first.
package authz

import (
	"attest/internal/audits/models"
	id "attest/pkg/domain"
)

// Role tags an authenticated identity. An actor's relationship to a specific
// audit (assigned lead, team member, organization member) is evaluated at
// check time against the Resource, never cached on the role.
type Role string

const (
	RoleCBAdmin     Role = "cb_admin"
	RoleLeadAuditor Role = "lead_auditor"
	RoleAuditor     Role = "auditor"
	RoleClientAdmin Role = "client_admin"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCBAdmin, RoleLeadAuditor, RoleAuditor, RoleClientAdmin:
		return true
	}
	return false
}

// Actor is a role-tagged identity as supplied by the authentication layer.
type Actor struct {
	ID             id.ActorID
	Role           Role
	OrganizationID id.OrganizationID
}

// ActionKind enumerates the checkable actions.
type ActionKind string

const (
	KindView                 ActionKind = "view"
	KindEdit                 ActionKind = "edit"
	KindDelete               ActionKind = "delete"
	KindCreateFinding        ActionKind = "create_finding"
	KindCreateRecommendation ActionKind = "create_recommendation"
	KindMakeDecision         ActionKind = "make_decision"
	KindTransition           ActionKind = "transition"
)

// Action is what the actor wants to do. From/To are set for transitions only.
type Action struct {
	Kind ActionKind
	From models.AuditStatus
	To   models.AuditStatus
}

var (
	ActionView                 = Action{Kind: KindView}
	ActionEdit                 = Action{Kind: KindEdit}
	ActionDelete               = Action{Kind: KindDelete}
	ActionCreateFinding        = Action{Kind: KindCreateFinding}
	ActionCreateRecommendation = Action{Kind: KindCreateRecommendation}
	ActionMakeDecision         = Action{Kind: KindMakeDecision}
)

// Transition builds the action for a from→to status change.
func Transition(from, to models.AuditStatus) Action {
	return Action{Kind: KindTransition, From: from, To: to}
}

// Resource is the permission-relevant view of an audit. Checks against a
// finding or any other sub-resource must build the owning audit's Resource.
type Resource struct {
	AuditID        id.AuditID
	OrganizationID id.OrganizationID
	LeadAuditorID  id.ActorID
	TeamMemberIDs  []id.ActorID
}

// AuditResource projects an audit aggregate onto its permission view.
func AuditResource(a *models.Audit) Resource {
	return Resource{
		AuditID:        a.ID,
		OrganizationID: a.OrganizationID,
		LeadAuditorID:  a.LeadAuditorID,
		TeamMemberIDs:  a.TeamMemberIDs,
	}
}

// FindingResource resolves a finding to the Resource of its owning audit.
// Findings carry no independent grants, so this indirection is the only way
// to check finding-level actions.
func FindingResource(owner *models.Audit) Resource {
	return AuditResource(owner)
}

// transitionGrants scopes each legal edge to the roles that may drive it.
// The workflow machine's transition table binds each edge to its validation
// rules; this table binds the same edges to their permission grants.
var transitionGrants = map[Action][]Role{
	Transition(models.StatusDraft, models.StatusClientReview):         {RoleLeadAuditor, RoleCBAdmin},
	Transition(models.StatusClientReview, models.StatusSubmittedToCB): {RoleLeadAuditor, RoleCBAdmin},
	Transition(models.StatusClientReview, models.StatusDraft):         {RoleLeadAuditor, RoleCBAdmin},
	Transition(models.StatusSubmittedToCB, models.StatusDecided):      {RoleCBAdmin},
}

// Evaluate answers "may this actor perform this action on this resource".
// It never consults audit content beyond the Resource projection; domain
// validation is a separate, orthogonal concern.
func Evaluate(actor Actor, action Action, res Resource) bool {
	// 1. cb_admin grant.
	if actor.Role == RoleCBAdmin {
		switch action.Kind {
		case KindView, KindEdit, KindDelete, KindMakeDecision:
			return true
		case KindTransition:
			return transitionAllowed(action, RoleCBAdmin)
		}
		// cb_admin holds no authoring grants; fall through to lower tiers in
		// case the admin also owns the resource.
	}

	// 2. resource-specific ownership.
	if actor.ID == res.LeadAuditorID {
		switch action.Kind {
		case KindView, KindEdit, KindCreateFinding, KindCreateRecommendation:
			return true
		case KindTransition:
			return transitionAllowed(action, RoleLeadAuditor)
		}
	}
	if isTeamMember(actor.ID, res.TeamMemberIDs) {
		switch action.Kind {
		case KindView, KindCreateFinding:
			return true
		}
	}

	// 3. organization membership: read-only visibility inside the tenant.
	if !actor.OrganizationID.IsNil() && actor.OrganizationID == res.OrganizationID {
		if action.Kind == KindView {
			return true
		}
	}

	// 4. default deny.
	return false
}

// TransitionRoles exposes the grant table for cross-checking against the
// workflow machine's transition table in tests.
func TransitionRoles(from, to models.AuditStatus) ([]Role, bool) {
	roles, ok := transitionGrants[Transition(from, to)]
	return roles, ok
}

func transitionAllowed(action Action, role Role) bool {
	for _, granted := range transitionGrants[action] {
		if granted == role {
			return true
		}
	}
	return false
}

func isTeamMember(actorID id.ActorID, members []id.ActorID) bool {
	for _, member := range members {
		if member == actorID {
			return true
		}
	}
	return false
}
