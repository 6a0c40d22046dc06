// Package workflow is the audit lifecycle state machine.
//
// The transition table is the single source of truth for legal edges; any new
// edge must be added here together with its validation binding, and to the
// permission grant table in internal/authz. Transitions run permission checks
// first, then validation, then a compare-and-swap save; the StatusChanged
// event is emitted strictly after confirmed persistence.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attest/internal/audits/models"
	"attest/internal/authz"
	workflowmetrics "attest/internal/workflow/metrics"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// EventTypeStatusChanged is the one structural event contract external
// consumers may rely on.
const EventTypeStatusChanged = "audit.status_changed"

// StatusChanged is emitted after a transition has been persisted.
type StatusChanged struct {
	AuditID   id.AuditID         `json:"audit_id"`
	From      models.AuditStatus `json:"from"`
	To        models.AuditStatus `json:"to"`
	ActorID   id.ActorID         `json:"actor_id"`
	Note      string             `json:"note,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Repository is the persistence contract the machine depends on. Save must
// fail with sentinel.ErrVersionConflict when expectedVersion is stale.
type Repository interface {
	Load(ctx context.Context, auditID id.AuditID) (*models.Audit, uint64, error)
	Save(ctx context.Context, audit *models.Audit, expectedVersion uint64) error
}

// Dispatcher is the event emission contract (see internal/events).
type Dispatcher interface {
	Emit(ctx context.Context, eventType string, payload any)
}

type edge struct {
	from models.AuditStatus
	to   models.AuditStatus
}

type rule struct {
	validate func(*models.Audit) []dErrors.Violation
}

// transitions is the exhaustive table of legal edges. Any pair not listed is
// illegal. decided is terminal; client_review→draft is the one designed
// rollback loop and carries no validation gate.
var transitions = map[edge]rule{
	{from: models.StatusDraft, to: models.StatusClientReview}:         {validate: validateDocumentationComplete},
	{from: models.StatusClientReview, to: models.StatusSubmittedToCB}: {validate: validateMajorNonconformitiesAnswered},
	{from: models.StatusClientReview, to: models.StatusDraft}:         {},
	{from: models.StatusSubmittedToCB, to: models.StatusDecided}:      {validate: validateRecommendationExists},
}

// Edges returns the transition table's edges for cross-checking against the
// permission grant table in tests.
func Edges() [][2]models.AuditStatus {
	var out [][2]models.AuditStatus
	for e := range transitions {
		out = append(out, [2]models.AuditStatus{e.from, e.to})
	}
	return out
}

// TransitionRequest carries everything one attempt needs. Apply, when set, is
// an extra aggregate mutation executed after all checks pass and before the
// save, so callers like decision creation land their write and the status
// change in a single compare-and-swap.
type TransitionRequest struct {
	AuditID id.AuditID
	Target  models.AuditStatus
	Actor   authz.Actor
	Note    string
	Apply   func(*models.Audit) error
}

// Result is returned on a successful transition.
type Result struct {
	Audit *models.Audit
	Event StatusChanged
}

// Machine orchestrates transitions. It holds no per-request state; all
// mutable state lives in the aggregate behind the Repository.
type Machine struct {
	repo       Repository
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *workflowmetrics.Metrics
	tracer     trace.Tracer
}

// Option configures optional machine dependencies.
type Option func(*Machine)

// WithMetrics attaches prometheus metrics to the machine.
func WithMetrics(m *workflowmetrics.Metrics) Option {
	return func(machine *Machine) { machine.metrics = m }
}

// New constructs the workflow machine.
func New(repo Repository, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Machine {
	m := &Machine{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		tracer:     otel.Tracer("attest/workflow"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attempt runs one transition attempt end to end.
//
// Failure semantics: invalid_transition, forbidden, and validation_failed are
// local, non-retryable rejections. version_conflict means another writer won
// the race; the caller may reload and decide whether to retry. The machine
// itself never retries.
func (m *Machine) Attempt(ctx context.Context, req TransitionRequest) (*Result, error) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "workflow.Attempt", trace.WithAttributes(
		attribute.String("audit.id", req.AuditID.String()),
		attribute.String("transition.target", string(req.Target)),
	))
	defer span.End()

	result, err := m.attempt(ctx, req)
	m.observe(req, result, err, start)
	return result, err
}

func (m *Machine) attempt(ctx context.Context, req TransitionRequest) (*Result, error) {
	audit, version, err := m.repo.Load(ctx, req.AuditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "audit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit")
	}
	from := audit.Status

	// 1. Edge check against the table; unknown edges fail regardless of
	// actor or audit content.
	rule, ok := transitions[edge{from: from, to: req.Target}]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("no transition from %s to %s", from, req.Target))
	}

	// 2. Permission, scoped to this exact edge.
	if !authz.Evaluate(req.Actor, authz.Transition(from, req.Target), authz.AuditResource(audit)) {
		return nil, dErrors.New(dErrors.CodeForbidden,
			fmt.Sprintf("actor is not permitted to move this audit from %s to %s", from, req.Target))
	}

	// 3. Validation; every violation is reported, none swallowed.
	if rule.validate != nil {
		if violations := rule.validate(audit); len(violations) > 0 {
			return nil, dErrors.NewValidation(
				fmt.Sprintf("transition from %s to %s blocked by %d violation(s)", from, req.Target, len(violations)),
				violations)
		}
	}

	// 4. Mutate and persist as one atomic unit.
	if req.Apply != nil {
		if err := req.Apply(audit); err != nil {
			return nil, err
		}
	}
	now := requestcontext.Now(ctx)
	audit.ApplyStatus(req.Target, now)

	if err := m.repo.Save(ctx, audit, version); err != nil {
		if errors.Is(err, sentinel.ErrVersionConflict) {
			return nil, dErrors.New(dErrors.CodeVersionConflict,
				"audit was modified concurrently; reload and retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save audit")
	}

	// 5. Emit only after the save is confirmed. Handler failures are the
	// dispatcher's problem; the transition has already succeeded.
	event := StatusChanged{
		AuditID:   audit.ID,
		From:      from,
		To:        req.Target,
		ActorID:   req.Actor.ID,
		Note:      req.Note,
		Timestamp: now,
	}
	m.dispatcher.Emit(ctx, EventTypeStatusChanged, event)

	m.logger.InfoContext(ctx, "audit status changed",
		"audit_id", audit.ID,
		"from", from,
		"to", req.Target,
		"actor_id", req.Actor.ID,
	)
	return &Result{Audit: audit, Event: event}, nil
}

func (m *Machine) observe(req TransitionRequest, result *Result, err error, start time.Time) {
	if m.metrics == nil {
		return
	}
	outcome := "success"
	from := ""
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	if result != nil {
		from = string(result.Event.From)
	}
	m.metrics.ObserveTransition(from, string(req.Target), outcome, start)
}
