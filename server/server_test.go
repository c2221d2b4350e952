package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rcsb/chemref-api/health"
	"github.com/rcsb/chemref-api/registry"
)

func TestNewServerRoutes(t *testing.T) {
	reg := registry.NewRegistry()
	srv := NewServer(testConfig(), reg, health.NewHealthChecker(reg))

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}

	// With no providers registered the service is unhealthy but routed
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 with no providers, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sources", nil)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /sources, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown route, got %d", rec.Code)
	}
}
