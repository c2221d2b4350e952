// Package handlers provides HTTP request handlers for the reference-data API
// endpoints. This file implements the HTTPHandler interface with dependency
// injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rcsb/chemref-api/atctree"
	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/provider"
	"github.com/rcsb/chemref-api/sources/entities"
	"github.com/rcsb/chemref-api/validation"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	registry      interfaces.ProviderRegistry
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(registry interfaces.ProviderRegistry, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		registry:      registry,
		healthChecker: healthChecker,
	}
}

// HealthResponseImpl defines the structure for consistent JSON ordering
type HealthResponseImpl struct {
	Status        string         `json:"status"`
	LastRefreshed string         `json:"last_refreshed"`
	DataAgeHours  float64        `json:"data_age_hours"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// SourceStatus is one entry of the source listing endpoint.
type SourceStatus struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Stale   bool   `json:"stale"`
	Records int    `json:"records"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// formatUptimeHuman formats duration into a human-readable string
func (h *HTTPHandlerImpl) formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// ListSources returns the status of every registered source
func (h *HTTPHandlerImpl) ListSources(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()

	statuses := make([]SourceStatus, 0, len(names))
	for _, name := range names {
		p, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		statuses = append(statuses, SourceStatus{
			Name:    p.Name(),
			State:   p.State(),
			Stale:   p.Stale(),
			Records: p.Count(),
		})
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"sources":        statuses,
		"last_refreshed": h.registry.GetLastRefreshed().Format(time.RFC3339),
	})
}

// LookupIdentifier resolves one identifier against one source
func (h *HTTPHandlerImpl) LookupIdentifier(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if err := validation.ValidateSourceName(source); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := pathParam(r, "id")
	if err := validation.ValidateIdentifier(id); err != nil {
		logging.Warn("Unusual user input", "source", source, "id", id)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.registry.Get(source)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Unknown source: "+source)
		return
	}

	record, err := p.Lookup(id)
	if err != nil {
		h.respondLookupError(w, source, id, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"source": source,
		"id":     id,
		"record": record,
	})
}

// AtcLineage returns the ancestor lineage of one ATC code
func (h *HTTPHandlerImpl) AtcLineage(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := validation.ValidateIdentifier(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := atctree.NormalizeATC(id)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.registry.Get("atc")
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "ATC source is not registered")
		return
	}

	record, err := p.Lookup(code)
	if err != nil {
		h.respondLookupError(w, "atc", code, err)
		return
	}

	node, ok := record.(entities.AtcNode)
	if !ok {
		logging.Error("Unexpected record type for ATC source", "id", code)
		h.RespondWithError(w, http.StatusInternalServerError, "Unexpected record type")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, node)
}

// ReloadSource forces a refetch of one source
func (h *HTTPHandlerImpl) ReloadSource(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if err := validation.ValidateSourceName(source); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.registry.Get(source)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Unknown source: "+source)
		return
	}

	if !h.registry.BeginRefresh() {
		h.RespondWithError(w, http.StatusConflict, "A refresh is already in progress")
		return
	}
	defer h.registry.EndRefresh()

	start := time.Now()
	if err := p.Reload(); err != nil {
		logging.Error("Manual reload failed", "source", source, "error", err)
		h.RespondWithError(w, http.StatusBadGateway, "Reload failed: "+err.Error())
		return
	}

	logging.Info("Manual reload completed", "source", source, "duration", time.Since(start).String())

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"source":  source,
		"state":   p.State(),
		"records": p.Count(),
		"stale":   p.Stale(),
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// Get memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.registry.GetServerStartTime())

	status, data, httpStatus := h.healthChecker.HealthCheck()
	lastRefreshed := h.registry.GetLastRefreshed()

	response := HealthResponseImpl{
		Status:        status,
		LastRefreshed: lastRefreshed.Format(time.RFC3339),
		DataAgeHours:  time.Since(lastRefreshed).Hours(),
		Uptime:        h.formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}

// pathParam returns a URL parameter with percent-encoding undone, so
// URI-form identifiers with encoded slashes resolve. Chi leaves encoded
// segments as-is.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// respondLookupError maps provider errors to HTTP status codes
func (h *HTTPHandlerImpl) respondLookupError(w http.ResponseWriter, source, id string, err error) {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Identifier %q not found in source %q", id, source))
	case errors.Is(err, provider.ErrUnavailable):
		h.RespondWithError(w, http.StatusServiceUnavailable, fmt.Sprintf("Source %q is unavailable", source))
	default:
		logging.Error("Lookup failed", "source", source, "id", id, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Lookup failed")
	}
}
