package trail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"attest/internal/audits/models"
	"attest/internal/events"
	"attest/internal/workflow"
	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
)

// Feed is the optional fast-path sink for recent entries (see RedisFeed).
type Feed interface {
	Push(ctx context.Context, entry Entry) error
}

// Recorder turns domain events into trail entries. One handler per event type
// is registered on the dispatcher during wiring; each appends to the store and
// pushes to the feed. Feed failures are logged and swallowed: the store is the
// source of truth.
type Recorder struct {
	store  Store
	feed   Feed
	logger *slog.Logger
}

// NewRecorder builds a Recorder. feed may be nil.
func NewRecorder(store Store, feed Feed, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, feed: feed, logger: logger}
}

// Registrar is the subset of the dispatcher the recorder needs.
type Registrar interface {
	Register(eventType string, h events.Handler)
}

// RecordedEventTypes lists every event type the recorder subscribes to.
func RecordedEventTypes() []string {
	return []string{
		models.EventTypeAuditCreated,
		models.EventTypeDocumentationUpdated,
		models.EventTypeFindingRecorded,
		models.EventTypeFindingUpdated,
		models.EventTypeResponseRecorded,
		models.EventTypeRecommendationSubmitted,
		models.EventTypeDecisionIssued,
		workflow.EventTypeStatusChanged,
	}
}

// Subscribe registers the recorder for every recorded event type.
func (r *Recorder) Subscribe(reg Registrar) {
	for _, eventType := range RecordedEventTypes() {
		et := eventType
		reg.Register(et, func(ctx context.Context, payload any) error {
			return r.record(ctx, et, payload)
		})
	}
}

func (r *Recorder) record(ctx context.Context, eventType string, payload any) error {
	auditID, actorID, ok := identify(payload)
	if !ok {
		return fmt.Errorf("unrecognized payload %T for event %s", payload, eventType)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for event %s: %w", eventType, err)
	}

	entry := Entry{
		ID:         uuid.New(),
		AuditID:    auditID,
		EventType:  eventType,
		ActorID:    actorID,
		Payload:    raw,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append trail entry: %w", err)
	}
	if r.feed != nil {
		if err := r.feed.Push(ctx, entry); err != nil {
			r.logger.WarnContext(ctx, "trail feed push failed",
				"audit_id", entry.AuditID,
				"event_type", eventType,
				"error", err,
			)
		}
	}
	return nil
}

// identify extracts the audit and actor references from a known payload type.
func identify(payload any) (id.AuditID, id.ActorID, bool) {
	switch p := payload.(type) {
	case models.AuditCreated:
		return p.AuditID, p.ActorID, true
	case models.DocumentationUpdated:
		return p.AuditID, p.ActorID, true
	case models.FindingRecorded:
		return p.AuditID, p.ActorID, true
	case models.FindingUpdated:
		return p.AuditID, p.ActorID, true
	case models.ResponseRecorded:
		return p.AuditID, p.ActorID, true
	case models.RecommendationSubmitted:
		return p.AuditID, p.ActorID, true
	case models.DecisionIssued:
		return p.AuditID, p.ActorID, true
	case workflow.StatusChanged:
		return p.AuditID, p.ActorID, true
	}
	return id.AuditID{}, id.ActorID{}, false
}
