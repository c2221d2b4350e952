// Package scheduler provides automated refresh scheduling and staleness
// monitoring for the dataset providers. It drives the daily reload cycle and
// warns when the data has not been refreshed on cadence.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/metrics"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles provider refreshes and staleness monitoring using
// dependency injection.
type Scheduler struct {
	registry  interfaces.ProviderRegistry
	scheduler *gocron.Scheduler
	done      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies.
func NewScheduler(registry interfaces.ProviderRegistry) *Scheduler {
	return &Scheduler{
		registry:  registry,
		scheduler: gocron.NewScheduler(time.Local),
		done:      make(chan struct{}),
	}
}

// Start performs the initial provider load and schedules the daily refresh.
func (s *Scheduler) Start() error {
	if err := s.RefreshAll(); err != nil {
		logging.Error("Failed to perform initial provider load", "error", err)
		return fmt.Errorf("initial provider load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.RefreshAll(); err != nil {
			logging.Error("Failed to refresh providers", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.done)
}

// RefreshAll reloads every provider. A failing source does not block the
// others; the cycle fails only when no provider could be refreshed or kept
// serving cached data.
func (s *Scheduler) RefreshAll() error {
	if !s.registry.BeginRefresh() {
		logging.Info("Refresh already in progress, skipping...")
		return nil
	}
	defer s.registry.EndRefresh()

	logging.Info("Starting provider refresh cycle")
	start := time.Now()

	refreshed := 0
	failed := 0
	for _, p := range s.registry.All() {
		sourceStart := time.Now()
		if err := p.Reload(); err != nil {
			failed++
			logging.Error("Failed to refresh source", "source", p.Name(), "error", err)
			continue
		}
		metrics.ReloadDuration.WithLabelValues(p.Name()).Observe(time.Since(sourceStart).Seconds())
		refreshed++
	}

	if refreshed == 0 && failed > 0 {
		return fmt.Errorf("refresh cycle failed for all %d sources", failed)
	}

	s.registry.MarkRefreshed()

	logging.Info("Provider refresh cycle completed",
		"duration", time.Since(start).String(),
		"refreshed", refreshed,
		"failed", failed,
	)

	return nil
}

// startStalenessMonitoring warns when no refresh completed on cadence.
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				lastRefreshed := s.registry.GetLastRefreshed()
				if time.Since(lastRefreshed) > 25*time.Hour {
					logging.Warn("Providers have not been refreshed in over 25 hours")
				}
			}
		}
	}()
}
