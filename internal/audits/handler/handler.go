// Package handler exposes the audit HTTP surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attest/internal/audits/models"
	"attest/internal/audits/service"
	"attest/internal/authz"
	"attest/internal/platform/middleware"
	"attest/internal/workflow"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the audit operations the handler depends on.
type Service interface {
	CreateAudit(ctx context.Context, actor authz.Actor, req service.CreateAuditRequest) (*models.Audit, error)
	GetAudit(ctx context.Context, actor authz.Actor, auditID id.AuditID) (*models.Audit, error)
	Transition(ctx context.Context, actor authz.Actor, auditID id.AuditID, target models.AuditStatus, note string) (*workflow.Result, error)
	CompleteDocumentationSection(ctx context.Context, actor authz.Actor, auditID id.AuditID, section models.DocumentationSection) (*models.Audit, error)
	AddFinding(ctx context.Context, actor authz.Actor, auditID id.AuditID, req service.AddFindingRequest) (*models.Finding, error)
	UpdateFinding(ctx context.Context, actor authz.Actor, auditID id.AuditID, findingID id.FindingID, req service.UpdateFindingRequest) (*models.Finding, error)
	RespondToFinding(ctx context.Context, actor authz.Actor, auditID id.AuditID, findingID id.FindingID, text string) (*models.Finding, error)
	SetRecommendation(ctx context.Context, actor authz.Actor, auditID id.AuditID, value models.OutcomeValue, justification string) (*models.Audit, error)
	CreateDecision(ctx context.Context, actor authz.Actor, auditID id.AuditID, value models.OutcomeValue, certificate models.CertificateMetadata, note string) (*workflow.Result, error)
}

// Handler handles audit endpoints.
type Handler struct {
	logger    *slog.Logger
	audits    Service
	validator middleware.TokenValidator
}

// New creates an audit Handler.
func New(audits Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		audits:    audits,
		validator: validator,
	}
}

// Register mounts the audit routes. The caller's router already carries the
// common middleware chain; this adds authentication for the audit surface.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Post("/audits", h.handleCreateAudit)
		r.Get("/audits/{auditID}", h.handleGetAudit)
		r.Post("/audits/{auditID}/transition", h.handleTransition)
		r.Put("/audits/{auditID}/documentation/{section}", h.handleCompleteSection)
		r.Post("/audits/{auditID}/findings", h.handleAddFinding)
		r.Patch("/audits/{auditID}/findings/{findingID}", h.handleUpdateFinding)
		r.Post("/audits/{auditID}/findings/{findingID}/response", h.handleRespondToFinding)
		r.Post("/audits/{auditID}/recommendation", h.handleSetRecommendation)
		r.Post("/audits/{auditID}/decision", h.handleCreateDecision)
	})
}

// actor pulls the authenticated actor set by RequireAuth. A missing actor is a
// wiring bug, not a client error.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "actor missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return authz.Actor{}, false
	}
	return actor, true
}

func (h *Handler) auditID(w http.ResponseWriter, r *http.Request) (id.AuditID, bool) {
	auditID, err := id.ParseAuditID(chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AuditID{}, false
	}
	return auditID, true
}

func (h *Handler) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[createAuditRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	domainReq, err := req.toDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit, err := h.audits.CreateAudit(ctx, actor, domainReq)
	if err != nil {
		h.writeServiceError(w, r, "create audit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, audit)
}

func (h *Handler) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}

	audit, err := h.audits.GetAudit(r.Context(), actor, auditID)
	if err != nil {
		h.writeServiceError(w, r, "get audit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, audit)
}

// transitionResponse returns the updated audit together with the emitted
// event so callers can see exactly what happened.
type transitionResponse struct {
	Audit *models.Audit          `json:"audit"`
	Event workflow.StatusChanged `json:"event"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[transitionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	target, err := models.ParseAuditStatus(req.TargetStatus)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.audits.Transition(ctx, actor, auditID, target, req.Note)
	if err != nil {
		h.writeServiceError(w, r, "transition audit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, transitionResponse{Audit: result.Audit, Event: result.Event})
}

func (h *Handler) handleCompleteSection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	section, err := models.ParseDocumentationSection(chi.URLParam(r, "section"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit, err := h.audits.CompleteDocumentationSection(r.Context(), actor, auditID, section)
	if err != nil {
		h.writeServiceError(w, r, "complete documentation section", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, audit)
}

func (h *Handler) handleAddFinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[findingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	finding, err := h.audits.AddFinding(ctx, actor, auditID, req.toDomain())
	if err != nil {
		h.writeServiceError(w, r, "add finding", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, finding)
}

func (h *Handler) handleUpdateFinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	findingID, err := id.ParseFindingID(chi.URLParam(r, "findingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateFindingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	finding, err := h.audits.UpdateFinding(ctx, actor, auditID, findingID, req.toDomain())
	if err != nil {
		h.writeServiceError(w, r, "update finding", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, finding)
}

func (h *Handler) handleRespondToFinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	findingID, err := id.ParseFindingID(chi.URLParam(r, "findingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[responseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	finding, err := h.audits.RespondToFinding(ctx, actor, auditID, findingID, req.Text)
	if err != nil {
		h.writeServiceError(w, r, "respond to finding", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, finding)
}

func (h *Handler) handleSetRecommendation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[recommendationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	value, err := models.ParseOutcomeValue(req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit, err := h.audits.SetRecommendation(ctx, actor, auditID, value, req.Justification)
	if err != nil {
		h.writeServiceError(w, r, "set recommendation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, audit)
}

func (h *Handler) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	auditID, ok := h.auditID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[decisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	value, err := models.ParseOutcomeValue(req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certificate := models.CertificateMetadata{
		CertificateNumber: req.Certificate.CertificateNumber,
		Scope:             req.Certificate.Scope,
	}
	if req.Certificate.ValidUntil != "" {
		validUntil, err := time.Parse(time.RFC3339, req.Certificate.ValidUntil)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "valid_until must be RFC 3339"))
			return
		}
		certificate.ValidUntil = validUntil
	}

	result, err := h.audits.CreateDecision(ctx, actor, auditID, value, certificate, req.Note)
	if err != nil {
		h.writeServiceError(w, r, "create decision", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, transitionResponse{Audit: result.Audit, Event: result.Event})
}

// writeServiceError logs internals at error level and expected rejections at
// warn, then writes the standard envelope.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
