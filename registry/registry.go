// Package registry provides thread-safe access to the set of dataset
// providers. The provider map is swapped through atomic pointers so HTTP
// reads never race against scheduled refresh cycles, and a CAS flag keeps
// refresh cycles from overlapping.
package registry

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/logging"
)

// Compile-time check to ensure Registry implements ProviderRegistry
var _ interfaces.ProviderRegistry = (*Registry)(nil)

// Registry holds the providers with atomic pointers for race-free reads.
type Registry struct {
	providers       atomic.Value // map[string]interfaces.Provider
	lastRefreshed   atomic.Value // time.Time
	refreshing      atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewRegistry creates a registry over the given providers, keyed by name.
func NewRegistry(providers ...interfaces.Provider) *Registry {
	byName := make(map[string]interfaces.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	r := &Registry{}
	r.providers.Store(byName)
	r.lastRefreshed.Store(time.Time{})
	r.serverStartTime.Store(time.Now())
	return r
}

func (r *Registry) providerMap() map[string]interfaces.Provider {
	if v := r.providers.Load(); v != nil {
		if byName, ok := v.(map[string]interfaces.Provider); ok {
			return byName
		}
	}

	logging.Warn("Provider map is empty or invalid")
	return make(map[string]interfaces.Provider)
}

// Get returns the provider registered under the given source name.
func (r *Registry) Get(name string) (interfaces.Provider, bool) {
	p, ok := r.providerMap()[name]
	return p, ok
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	byName := r.providerMap()
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the providers in name-sorted order.
func (r *Registry) All() []interfaces.Provider {
	byName := r.providerMap()
	providers := make([]interfaces.Provider, 0, len(byName))
	for _, name := range r.Names() {
		providers = append(providers, byName[name])
	}
	return providers
}

// GetLastRefreshed returns the timestamp of the last completed refresh cycle.
func (r *Registry) GetLastRefreshed() time.Time {
	if v := r.lastRefreshed.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the last refreshed value")
	return time.Time{}
}

// MarkRefreshed records the completion of a refresh cycle.
func (r *Registry) MarkRefreshed() {
	r.lastRefreshed.Store(time.Now())
}

// IsRefreshing returns true if a refresh cycle is currently in progress.
func (r *Registry) IsRefreshing() bool {
	return r.refreshing.Load()
}

// BeginRefresh marks the start of a refresh cycle. Returns false when
// another cycle is already running.
func (r *Registry) BeginRefresh() bool {
	return r.refreshing.CompareAndSwap(false, true)
}

// EndRefresh marks the end of a refresh cycle.
func (r *Registry) EndRefresh() {
	r.refreshing.Store(false)
}

// GetServerStartTime returns the process start time.
func (r *Registry) GetServerStartTime() time.Time {
	if v := r.serverStartTime.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}
