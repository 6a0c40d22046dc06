package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"attest/internal/authz"
	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
)

// TokenValidator parses a bearer token into an actor.
type TokenValidator interface {
	ValidateToken(tokenString string) (authz.Actor, error)
}

type contextKeyActor struct{}

// ContextKeyActor is exported for tests that build contexts directly.
var ContextKeyActor = contextKeyActor{}

// GetActor retrieves the authenticated actor from the context.
func GetActor(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(authz.Actor)
	return actor, ok
}

// WithActor injects an actor into the context.
func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAuth validates the Authorization bearer token and places the actor in
// the request context. Requests without a valid token never reach the handler.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(ctx, actor)))
		})
	}
}

// HMACValidator validates HS256 tokens carrying the actor claims.
type HMACValidator struct {
	key []byte
}

// NewHMACValidator builds a validator over the shared signing key.
func NewHMACValidator(key string) *HMACValidator {
	return &HMACValidator{key: []byte(key)}
}

type actorClaims struct {
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies the token, returning the embedded actor.
func (v *HMACValidator) ValidateToken(tokenString string) (authz.Actor, error) {
	var claims actorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return authz.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return authz.Actor{}, fmt.Errorf("invalid token")
	}

	actorID, err := id.ParseActorID(claims.Subject)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("token subject: %w", err)
	}
	role := authz.Role(claims.Role)
	if !role.Valid() {
		return authz.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	actor := authz.Actor{ID: actorID, Role: role}
	if claims.OrganizationID != "" {
		orgID, err := id.ParseOrganizationID(claims.OrganizationID)
		if err != nil {
			return authz.Actor{}, fmt.Errorf("token organization: %w", err)
		}
		actor.OrganizationID = orgID
	}
	return actor, nil
}
