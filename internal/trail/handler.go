package trail

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attest/internal/audits/models"
	"attest/internal/authz"
	"attest/internal/platform/middleware"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

const defaultFeedLimit = 20

// AuditViewer checks view permission by delegating to the audits service,
// which already enforces the authorization rules.
type AuditViewer interface {
	GetAudit(ctx context.Context, actor authz.Actor, auditID id.AuditID) (*models.Audit, error)
}

// RecentReader is the fast-path feed (see RedisFeed).
type RecentReader interface {
	Recent(ctx context.Context, auditID id.AuditID, limit int) ([]Entry, error)
}

// Handler serves the per-audit activity feed. Reads prefer the Redis feed and
// fall back to the store on a miss or error.
type Handler struct {
	logger    *slog.Logger
	audits    AuditViewer
	store     Store
	feed      RecentReader
	validator middleware.TokenValidator
}

// NewHandler creates the activity feed handler. feed may be nil.
func NewHandler(audits AuditViewer, store Store, feed RecentReader, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		audits:    audits,
		store:     store,
		feed:      feed,
		validator: validator,
	}
}

// Register mounts the activity route.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/audits/{auditID}/activity", h.handleActivity)
	})
}

type activityResponse struct {
	Entries []Entry `json:"entries"`
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "actor missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	auditID, err := id.ParseAuditID(chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The view check rides on the audits service so the two surfaces can never
	// disagree about visibility.
	if _, err := h.audits.GetAudit(ctx, actor, auditID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 200"))
			return
		}
		limit = parsed
	}

	entries, err := h.recent(ctx, auditID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read activity trail",
			"audit_id", auditID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read activity"))
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, activityResponse{Entries: entries})
}

func (h *Handler) recent(ctx context.Context, auditID id.AuditID, limit int) ([]Entry, error) {
	if h.feed != nil {
		entries, err := h.feed.Recent(ctx, auditID, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			h.logger.WarnContext(ctx, "trail feed read failed, falling back to store",
				"audit_id", auditID,
				"error", err,
			)
		}
	}
	return h.store.ListByAudit(ctx, auditID, limit)
}
