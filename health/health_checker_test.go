package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/registry"
)

type fakeProvider struct {
	name    string
	ok      bool
	stale   bool
	state   string
	records int
}

func (f *fakeProvider) Name() string               { return f.name }
func (f *fakeProvider) Lookup(string) (any, error) { return nil, nil }
func (f *fakeProvider) Reload() error              { return nil }
func (f *fakeProvider) TestCache() bool            { return f.ok }
func (f *fakeProvider) State() string              { return f.state }
func (f *fakeProvider) Stale() bool                { return f.stale }
func (f *fakeProvider) Count() int                 { return f.records }

var _ interfaces.Provider = (*fakeProvider)(nil)

func healthyProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, ok: true, state: "serving", records: 100}
}

func TestHealthCheckHealthy(t *testing.T) {
	reg := registry.NewRegistry(healthyProvider("atc"), healthyProvider("chembl"))
	reg.MarkRefreshed()

	checker := NewHealthChecker(reg)

	status, data, httpStatus := checker.HealthCheck()
	if status != "healthy" {
		t.Errorf("Expected healthy, got %s", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("Expected 200, got %d", httpStatus)
	}

	sources, ok := data["sources"].(map[string]any)
	if !ok {
		t.Fatal("Expected per-source data in the response")
	}
	if len(sources) != 2 {
		t.Errorf("Expected 2 sources, got %d", len(sources))
	}
}

func TestHealthCheckNoProviders(t *testing.T) {
	reg := registry.NewRegistry()
	checker := NewHealthChecker(reg)

	status, _, httpStatus := checker.HealthCheck()
	if status != "unhealthy" {
		t.Errorf("Expected unhealthy with no providers, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", httpStatus)
	}
}

func TestHealthCheckAllProvidersFailing(t *testing.T) {
	failing := &fakeProvider{name: "atc", ok: false, state: "unavailable"}
	reg := registry.NewRegistry(failing)
	reg.MarkRefreshed()

	checker := NewHealthChecker(reg)

	status, _, httpStatus := checker.HealthCheck()
	if status != "unhealthy" {
		t.Errorf("Expected unhealthy when no provider passes, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", httpStatus)
	}
}

func TestHealthCheckDegradedOnPartialFailure(t *testing.T) {
	failing := &fakeProvider{name: "resid", ok: false, state: "unavailable"}
	reg := registry.NewRegistry(healthyProvider("atc"), failing)
	reg.MarkRefreshed()

	checker := NewHealthChecker(reg)

	status, _, httpStatus := checker.HealthCheck()
	if status != "degraded" {
		t.Errorf("Expected degraded on partial failure, got %s", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", httpStatus)
	}
}

func TestHealthCheckDegradedOnStaleData(t *testing.T) {
	stale := &fakeProvider{name: "atc", ok: true, stale: true, state: "serving", records: 100}
	reg := registry.NewRegistry(stale)
	reg.MarkRefreshed()

	checker := NewHealthChecker(reg)

	status, _, _ := checker.HealthCheck()
	if status != "degraded" {
		t.Errorf("Expected degraded on stale data, got %s", status)
	}
}

func TestCalculateNextRefresh(t *testing.T) {
	checker := NewHealthChecker(registry.NewRegistry())

	next := checker.CalculateNextRefresh()
	now := time.Now()

	if !next.After(now) {
		t.Errorf("Expected next refresh in the future, got %v", next)
	}
	if next.Sub(now) > 24*time.Hour {
		t.Errorf("Expected next refresh within 24 hours, got %v away", next.Sub(now))
	}
	if next.Hour() != refreshHour || next.Minute() != 0 {
		t.Errorf("Expected next refresh at %02d:00, got %v", refreshHour, next)
	}
}
