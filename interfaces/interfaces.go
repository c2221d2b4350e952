// Package interfaces defines the core abstractions of the chemref API to
// keep the provider, registry, scheduling and HTTP layers independently
// testable.
package interfaces

import "time"

// Provider is the uniform, non-generic view of one dataset provider owning
// the fetch/cache/serve lifecycle for a single external resource.
type Provider interface {
	// Name returns the logical resource name (also the stash artifact name).
	Name() string

	// Lookup returns the record for an identifier, loading the mapping on
	// first use this session.
	Lookup(id string) (any, error)

	// Reload forces a fetch+parse+cache cycle regardless of freshness.
	Reload() error

	// TestCache reports whether the in-memory mapping is non-empty and
	// minimally well-formed. It never panics and never returns an error.
	TestCache() bool

	// State returns the lifecycle state for observability.
	State() string

	// Stale reports whether the provider is serving expired cached data
	// because the last fetch failed.
	Stale() bool

	// Count returns the number of records currently held in memory.
	Count() int
}

// ProviderRegistry is the read side of the provider collection with
// refresh-cycle coordination.
type ProviderRegistry interface {
	Get(name string) (Provider, bool)
	Names() []string
	All() []Provider
	GetLastRefreshed() time.Time
	IsRefreshing() bool
	BeginRefresh() bool
	EndRefresh()
	MarkRefreshed()
	GetServerStartTime() time.Time
}

// Scheduler manages periodic provider refreshes and staleness monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports aggregate system health for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
	CalculateNextRefresh() time.Time
}
