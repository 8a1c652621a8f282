package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/upsurge/campaign-lab/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		Env:                    "test",
		JWTSecret:              "test-secret",
		AllowedOrigins:         []string{"http://localhost:3000"},
		OptimizerInterval:      time.Hour,
		AlertSuppressionWindow: 24 * time.Hour,
		OutboxBuffer:           8,
	}

	// No route exercised here reaches the database.
	db := sqlx.NewDb(nil, "postgres")
	a, err := assemble(context.Background(), cfg, db, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	t.Cleanup(a.Outbox.Close)
	return a
}

func TestRouterHealth(t *testing.T) {
	a := newTestApp(t)

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"campaign-lab"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRouterMetrics(t *testing.T) {
	a := newTestApp(t)
	router := a.Router()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "campaign_lab_") {
		t.Fatalf("expected campaign lab metrics, got %s", rr.Body.String())
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	a := newTestApp(t)
	router := a.Router()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/campaigns"},
		{http.MethodPost, "/api/v1/campaigns/1/variants/generate"},
		{http.MethodPost, "/api/v1/campaigns/1/optimize"},
		{http.MethodPost, "/api/v1/variants/5/deploy"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/activity"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(p.method, p.path, nil))
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rr.Code)
			}
		})
	}
}

func TestRouterMountsCampaignScopedRoutes(t *testing.T) {
	a := newTestApp(t)
	router := a.Router()

	token, err := a.JWT.GenerateAccessToken(7, "user")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	// A malformed campaign id is rejected by each handler before any lookup.
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/campaigns/abc"},
		{http.MethodGet, "/api/v1/campaigns/abc/rate-limit"},
		{http.MethodPost, "/api/v1/campaigns/abc/variants/generate"},
		{http.MethodGet, "/api/v1/campaigns/abc/winner"},
		{http.MethodPost, "/api/v1/campaigns/abc/optimize"},
		{http.MethodGet, "/api/v1/campaigns/abc/underperformers"},
		{http.MethodPost, "/api/v1/variants/abc/approve"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req := httptest.NewRequest(p.method, p.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}
