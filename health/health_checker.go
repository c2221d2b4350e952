// Package health provides health checking over the provider registry.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/rcsb/chemref-api/interfaces"
)

// refreshHour is the daily scheduled refresh time (06:00 local).
const refreshHour = 6

// HealthCheckerImpl implements the interfaces.HealthChecker interface.
type HealthCheckerImpl struct {
	registry interfaces.ProviderRegistry
}

// NewHealthChecker creates a health checker with injected dependencies.
func NewHealthChecker(registry interfaces.ProviderRegistry) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		registry: registry,
	}
}

// HealthCheck aggregates provider states into a single status.
// Used by the /health HTTP endpoint.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	providers := h.registry.All()
	lastRefreshed := h.registry.GetLastRefreshed()
	isRefreshing := h.registry.IsRefreshing()

	dataAge := time.Since(lastRefreshed)

	healthy := 0
	staleCount := 0
	unavailable := 0
	sourceData := make(map[string]any, len(providers))
	for _, p := range providers {
		ok := p.TestCache()
		if ok {
			healthy++
		}
		if p.Stale() {
			staleCount++
		}
		if p.State() == "unavailable" {
			unavailable++
		}

		sourceData[p.Name()] = map[string]any{
			"state":   p.State(),
			"stale":   p.Stale(),
			"records": p.Count(),
			"ok":      ok,
		}
	}

	switch {
	case len(providers) == 0 || healthy == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case unavailable > 0 || healthy < len(providers):
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case staleCount > 0:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case !lastRefreshed.IsZero() && dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_refreshed": lastRefreshed.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"sources":        sourceData,
		"is_refreshing":  isRefreshing,
		"next_refresh":   h.CalculateNextRefresh().Format(time.RFC3339),
	}

	return status, data, httpStatus
}

// CalculateNextRefresh returns the next scheduled refresh time.
func (h *HealthCheckerImpl) CalculateNextRefresh() time.Time {
	now := time.Now()

	todayRefresh := time.Date(now.Year(), now.Month(), now.Day(), refreshHour, 0, 0, 0, now.Location())
	if now.Before(todayRefresh) {
		return todayRefresh
	}

	return todayRefresh.AddDate(0, 0, 1)
}
