// Package provider implements the shared fetch→parse→cache→serve lifecycle
// used by every dataset provider. A provider composes a resource descriptor
// with a source-specific parse strategy; there is no subclassing, the
// per-source behavior is entirely the ParseFunc.
//
// Failure policy: a failed fetch falls back to the stash, stale or not —
// staleness is preferred over unavailability. Only when no fetch succeeds and
// no artifact exists does the provider become terminally unavailable. A
// corrupt artifact is treated as missing and refetched. A parse failure on a
// successful fetch surfaces to the caller, since it signals an upstream
// format change that needs investigation rather than a retry.
package provider

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rcsb/chemref-api/fetch"
	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/metrics"
	"github.com/rcsb/chemref-api/stash"
)

var (
	// ErrNotFound is returned by Get for an identifier absent from the mapping.
	ErrNotFound = errors.New("provider: identifier not found")

	// ErrUnavailable is returned once no fetch succeeded and no cached
	// artifact exists. Terminal for the session.
	ErrUnavailable = errors.New("provider: unavailable")
)

// State is the provider lifecycle state, exported for health reporting.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateFetching      State = "fetching"
	StateParsing       State = "parsing"
	StateServing       State = "serving"
	StateUnavailable   State = "unavailable"
)

// Resource describes one external dataset: where to fetch it, where the raw
// payload lands, and how long a cached mapping stays fresh. Immutable per
// provider instance.
type Resource struct {
	// Name is the logical resource name; it keys the stash artifact.
	Name string

	// URL is the primary download source.
	URL string

	// Fallbacks are tried in order after the primary fails.
	Fallbacks []string

	// RawFile is the file name of the fetched payload under the work directory.
	RawFile string

	// MaxAge bounds stash freshness.
	MaxAge time.Duration

	// MinCount is the smallest mapping size TestCache accepts as well-formed.
	MinCount int
}

// ParseFunc transforms a fetched raw payload into the normalized mapping.
type ParseFunc[T any] func(rawPath string) (map[string]T, error)

// Provider owns the fetch/cache/serve lifecycle for one resource. Reads see
// an immutable mapping snapshot guarded by mu; a served mapping is never
// mutated, only replaced. Load cycles are serialized by loadMu, held across
// fetch and parse without blocking readers, so concurrent first reads and
// scheduled reloads trigger a single fetch.
type Provider[T any] struct {
	res     Resource
	store   *stash.Store
	fetcher *fetch.Fetcher
	workDir string
	parse   ParseFunc[T]

	loadMu sync.Mutex

	mu      sync.RWMutex
	mapping map[string]T
	state   State
	stale   bool
}

var _ interfaces.Provider = (*Provider[any])(nil)

// New composes a provider from a resource descriptor and a parse strategy.
// Raw downloads land under workDir/<resource name>/.
func New[T any](res Resource, store *stash.Store, fetcher *fetch.Fetcher, workDir string, parse ParseFunc[T]) *Provider[T] {
	return &Provider[T]{
		res:     res,
		store:   store,
		fetcher: fetcher,
		workDir: workDir,
		parse:   parse,
		state:   StateUninitialized,
	}
}

// Name returns the logical resource name.
func (p *Provider[T]) Name() string {
	return p.res.Name
}

// State returns the lifecycle state.
func (p *Provider[T]) State() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return string(p.state)
}

// Stale reports whether the provider serves expired cached data.
func (p *Provider[T]) Stale() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stale
}

// Count returns the size of the in-memory mapping without triggering a load.
func (p *Provider[T]) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.mapping)
}

// snapshot returns the served mapping and state without blocking writers.
func (p *Provider[T]) snapshot() (map[string]T, State) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mapping, p.state
}

func (p *Provider[T]) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Get returns the record for an identifier, loading the mapping on first use.
func (p *Provider[T]) Get(id string) (T, error) {
	var zero T

	mapping, state := p.snapshot()
	if state == StateUnavailable {
		return zero, fmt.Errorf("%w: %s", ErrUnavailable, p.res.Name)
	}

	if mapping == nil {
		if err := p.load(false); err != nil {
			return zero, err
		}
		mapping, _ = p.snapshot()
	}

	record, ok := mapping[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, p.res.Name, id)
	}

	return record, nil
}

// Lookup adapts Get to the non-generic interfaces.Provider view.
func (p *Provider[T]) Lookup(id string) (any, error) {
	record, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Mapping returns the full in-memory mapping, loading it on first use. The
// returned map is a shared snapshot and must not be mutated.
func (p *Provider[T]) Mapping() (map[string]T, error) {
	mapping, state := p.snapshot()
	if state == StateUnavailable {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, p.res.Name)
	}

	if mapping == nil {
		if err := p.load(false); err != nil {
			return nil, err
		}
		mapping, _ = p.snapshot()
	}

	return mapping, nil
}

// Reload forces a fetch+parse+cache cycle regardless of stash freshness.
func (p *Provider[T]) Reload() error {
	return p.load(true)
}

// TestCache reports whether the mapping is loaded and minimally well-formed.
// It never panics; any internal failure reads as false. An unavailable
// provider reads as false without touching the network, so health probes do
// not re-run the failed fetch every request.
func (p *Provider[T]) TestCache() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("TestCache recovered from panic", "source", p.res.Name, "panic", r)
			ok = false
		}
	}()

	mapping, state := p.snapshot()
	if state == StateUnavailable {
		return false
	}

	if mapping == nil {
		if err := p.load(false); err != nil {
			return false
		}
		mapping, _ = p.snapshot()
	}

	minCount := p.res.MinCount
	if minCount < 1 {
		minCount = 1
	}

	return len(mapping) >= minCount
}

// load drives the lifecycle. With force unset a fresh stash artifact is
// served directly; otherwise the remote source is fetched, parsed, written
// back to the stash and served.
func (p *Provider[T]) load(force bool) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	if !force {
		// Another caller may have finished the load while this one waited.
		mapping, state := p.snapshot()
		if state == StateUnavailable {
			return fmt.Errorf("%w: %s", ErrUnavailable, p.res.Name)
		}
		if mapping != nil {
			return nil
		}

		if p.store.IsFresh(p.res.Name, p.res.MaxAge) {
			mapping, err := stash.Read[T](p.store, p.res.Name)
			if err == nil {
				metrics.CacheHitsTotal.WithLabelValues(p.res.Name).Inc()
				p.serve(mapping, false)
				return nil
			}

			if errors.Is(err, stash.ErrCorruptCache) {
				logging.Warn("Corrupt stash artifact, refetching", "source", p.res.Name, "error", err)
				if err := p.store.Invalidate(p.res.Name); err != nil {
					logging.Warn("Failed to invalidate corrupt artifact", "source", p.res.Name, "error", err)
				}
			} else {
				logging.Warn("Failed to read stash artifact, refetching", "source", p.res.Name, "error", err)
			}
		}
	}

	metrics.CacheMissesTotal.WithLabelValues(p.res.Name).Inc()

	p.setState(StateFetching)
	rawPath := filepath.Join(p.workDir, p.res.Name, p.res.RawFile)
	if err := p.fetcher.Fetch(p.res.URL, p.res.Fallbacks, rawPath); err != nil {
		metrics.FetchAttemptsTotal.WithLabelValues(p.res.Name, "failure").Inc()
		return p.recoverFromStash(err)
	}
	metrics.FetchAttemptsTotal.WithLabelValues(p.res.Name, "success").Inc()

	p.setState(StateParsing)
	mapping, err := p.parse(rawPath)
	if err != nil {
		// Upstream format drift: surface, do not mask with stale data.
		p.mu.Lock()
		if p.mapping == nil {
			p.state = StateUninitialized
		} else {
			p.state = StateServing
		}
		p.mu.Unlock()
		return fmt.Errorf("failed to parse %s: %w", p.res.Name, err)
	}

	if err := stash.Write(p.store, p.res.Name, mapping); err != nil {
		// The fresh mapping is still good; serve it and leave the old
		// artifact in place.
		logging.Error("Failed to write stash artifact", "source", p.res.Name, "error", err)
	}

	p.serve(mapping, false)
	logging.Info("Provider loaded from remote source", "source", p.res.Name, "records", len(mapping))
	return nil
}

// recoverFromStash serves whatever artifact exists, stale included, after a
// failed fetch. Only a missing artifact makes the provider unavailable.
func (p *Provider[T]) recoverFromStash(fetchErr error) error {
	mapping, err := stash.Read[T](p.store, p.res.Name)
	if err != nil {
		p.setState(StateUnavailable)
		return fmt.Errorf("%w: %s: fetch failed and no cached artifact: %w", ErrUnavailable, p.res.Name, fetchErr)
	}

	age, ageErr := p.store.AgeOf(p.res.Name)
	if ageErr != nil {
		age = 0
	}

	metrics.StaleServesTotal.WithLabelValues(p.res.Name).Inc()
	logging.Warn("Fetch failed, serving cached artifact",
		"source", p.res.Name,
		"artifact_age", age.String(),
		"stale", age > p.res.MaxAge,
		"error", fetchErr,
	)

	p.serve(mapping, age > p.res.MaxAge)
	return nil
}

func (p *Provider[T]) serve(mapping map[string]T, stale bool) {
	p.mu.Lock()
	p.mapping = mapping
	p.stale = stale
	p.state = StateServing
	p.mu.Unlock()
}
