package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/core/ports"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body readinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("liveness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	ok := ports.PingFunc(func(context.Context) error { return nil })
	rec, body := serve(t, NewHealthDependenciesHandler(map[string]ports.Pinger{"postgres": ok, "redis": ok}).Readiness)

	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("got %d %q, want 200 ok", rec.Code, body.Status)
	}
	if len(body.Dependencies) != 2 {
		t.Fatalf("dependencies = %v", body.Dependencies)
	}
}

func TestReadiness_OneDown(t *testing.T) {
	deps := map[string]ports.Pinger{
		"postgres": ports.PingFunc(func(context.Context) error { return nil }),
		"redis":    ports.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}
	rec, body := serve(t, NewHealthDependenciesHandler(deps).Readiness)

	if rec.Code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Fatalf("got %d %q, want 503 degraded", rec.Code, body.Status)
	}
	if got := body.Dependencies["redis"]; got.Status != "unhealthy" || got.Error != "connection refused" {
		t.Fatalf("redis = %+v", got)
	}
	if body.Dependencies["postgres"].Status != "ok" {
		t.Fatalf("postgres = %+v", body.Dependencies["postgres"])
	}
}

func TestReadiness_NoDependencies(t *testing.T) {
	rec, body := serve(t, NewHealthDependenciesHandler(nil).Readiness)
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("got %d %q", rec.Code, body.Status)
	}
}
