package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	httpapi "attest/internal/http"
	"attest/internal/platform/metrics"
	"attest/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pingHandler struct{}

func (pingHandler) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "a router with healthy dependencies", func(t *testing.T) {
		checks := map[string]httpapi.HealthCheck{
			"postgres": func(context.Context) error { return nil },
		}
		router := httpapi.NewRouter(discardLogger(), metrics.New(), checks, pingHandler{})

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it should report ok", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
				var body struct {
					Status string            `json:"status"`
					Checks map[string]string `json:"checks"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode health response: %v", err)
				}
				if body.Status != "ok" || body.Checks["postgres"] != "ok" {
					t.Fatalf("unexpected health response: %+v", body)
				}
			})
		})

		testutil.When(t, "calling a mounted handler route", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

			testutil.Then(t, "it should be reachable", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it should expose prometheus metrics", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "calling an unknown route", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

			testutil.Then(t, "it should respond with not found", func(t *testing.T) {
				if rec.Code != http.StatusNotFound {
					t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
				}
			})
		})
	})

	testutil.Given(t, "a router with a failing dependency", func(t *testing.T) {
		checks := map[string]httpapi.HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}
		router := httpapi.NewRouter(discardLogger(), nil, checks)

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it should report degraded with the failing check", func(t *testing.T) {
				if rec.Code != http.StatusServiceUnavailable {
					t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
				}
				var body struct {
					Status string            `json:"status"`
					Checks map[string]string `json:"checks"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode health response: %v", err)
				}
				if body.Status != "degraded" || body.Checks["postgres"] != "ok" || body.Checks["redis"] == "ok" {
					t.Fatalf("unexpected health response: %+v", body)
				}
			})
		})
	})
}
