package trail_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attest/internal/audits/models"
	"attest/internal/events"
	"attest/internal/trail"
	"attest/internal/workflow"
	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
)

type capturingFeed struct {
	pushed []trail.Entry
	err    error
}

func (f *capturingFeed) Push(_ context.Context, entry trail.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, entry)
	return nil
}

type RecorderSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RecorderSuite) TestRecordsEveryEventType() {
	store := trail.NewInMemory()
	feed := &capturingFeed{}
	dispatcher := events.NewDispatcher(s.logger)
	trail.NewRecorder(store, feed, s.logger).Subscribe(dispatcher)

	auditID := id.NewAuditID()
	actorID := id.ActorID(uuid.New())
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "Firefox/142.0 (Linux)")
	ctx = requestcontext.WithTime(ctx, now)

	payloads := map[string]any{
		models.EventTypeAuditCreated:            models.AuditCreated{AuditID: auditID, ActorID: actorID, Timestamp: now},
		models.EventTypeDocumentationUpdated:    models.DocumentationUpdated{AuditID: auditID, ActorID: actorID, Timestamp: now},
		models.EventTypeFindingRecorded:         models.FindingRecorded{AuditID: auditID, ActorID: actorID, Timestamp: now},
		models.EventTypeFindingUpdated:          models.FindingUpdated{AuditID: auditID, ActorID: actorID, Timestamp: now},
		models.EventTypeResponseRecorded:        models.ResponseRecorded{AuditID: auditID, ActorID: actorID, Timestamp: now},
		models.EventTypeRecommendationSubmitted: models.RecommendationSubmitted{AuditID: auditID, ActorID: actorID, Timestamp: now},
		models.EventTypeDecisionIssued:          models.DecisionIssued{AuditID: auditID, ActorID: actorID, Timestamp: now},
		workflow.EventTypeStatusChanged: workflow.StatusChanged{
			AuditID: auditID, ActorID: actorID,
			From: models.StatusDraft, To: models.StatusClientReview,
			Timestamp: now,
		},
	}
	for _, eventType := range trail.RecordedEventTypes() {
		payload, ok := payloads[eventType]
		s.Require().True(ok, "no sample payload for %s", eventType)
		dispatcher.Emit(ctx, eventType, payload)
	}

	entries, err := store.ListByAudit(context.Background(), auditID, 100)
	s.Require().NoError(err)
	s.Len(entries, len(trail.RecordedEventTypes()))
	s.Len(feed.pushed, len(trail.RecordedEventTypes()))

	for _, entry := range entries {
		s.Equal(auditID, entry.AuditID)
		s.Equal(actorID, entry.ActorID)
		s.Equal("req-123", entry.RequestID)
		s.Equal("203.0.113.9", entry.ClientIP)
		s.Equal("Firefox/142.0 (Linux)", entry.UserAgent)
		s.Equal(now, entry.OccurredAt)
		s.Nil(entry.PublishedAt)
		s.NotEmpty(entry.Payload)
	}
}

func (s *RecorderSuite) TestStatusChangePayloadSurvivesRoundTrip() {
	store := trail.NewInMemory()
	dispatcher := events.NewDispatcher(s.logger)
	trail.NewRecorder(store, nil, s.logger).Subscribe(dispatcher)

	event := workflow.StatusChanged{
		AuditID: id.NewAuditID(),
		From:    models.StatusClientReview,
		To:      models.StatusSubmittedToCB,
		ActorID: id.ActorID(uuid.New()),
		Note:    "responses complete",
	}
	dispatcher.Emit(context.Background(), workflow.EventTypeStatusChanged, event)

	entries, err := store.ListByAudit(context.Background(), event.AuditID, 1)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	var decoded workflow.StatusChanged
	s.Require().NoError(json.Unmarshal(entries[0].Payload, &decoded))
	s.Equal(event.From, decoded.From)
	s.Equal(event.To, decoded.To)
	s.Equal(event.Note, decoded.Note)
}

func (s *RecorderSuite) TestFeedFailureDoesNotBlockAppend() {
	store := trail.NewInMemory()
	feed := &capturingFeed{err: errors.New("redis down")}
	dispatcher := events.NewDispatcher(s.logger)
	trail.NewRecorder(store, feed, s.logger).Subscribe(dispatcher)

	auditID := id.NewAuditID()
	dispatcher.Emit(context.Background(), models.EventTypeAuditCreated,
		models.AuditCreated{AuditID: auditID, ActorID: id.ActorID(uuid.New())})

	entries, err := store.ListByAudit(context.Background(), auditID, 10)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Empty(feed.pushed)
}

func (s *RecorderSuite) TestUnrecognizedPayloadIsRejected() {
	store := trail.NewInMemory()
	recorder := trail.NewRecorder(store, nil, s.logger)

	registrar := &captureRegistrar{handlers: map[string]events.Handler{}}
	recorder.Subscribe(registrar)

	handler := registrar.handlers[models.EventTypeAuditCreated]
	s.Require().NotNil(handler)
	err := handler(context.Background(), "not an event payload")
	s.Error(err)

	entries, err := store.ListByAudit(context.Background(), id.NewAuditID(), 10)
	s.Require().NoError(err)
	s.Empty(entries)
}

type captureRegistrar struct {
	handlers map[string]events.Handler
}

func (r *captureRegistrar) Register(eventType string, h events.Handler) {
	r.handlers[eventType] = h
}
