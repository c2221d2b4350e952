package scheduler

import (
	"fmt"
	"testing"

	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/registry"
)

type fakeProvider struct {
	name      string
	reloadErr error
	reloads   int
}

func (f *fakeProvider) Name() string               { return f.name }
func (f *fakeProvider) Lookup(string) (any, error) { return nil, nil }
func (f *fakeProvider) Reload() error {
	f.reloads++
	return f.reloadErr
}
func (f *fakeProvider) TestCache() bool { return f.reloadErr == nil }
func (f *fakeProvider) State() string   { return "serving" }
func (f *fakeProvider) Stale() bool     { return false }
func (f *fakeProvider) Count() int      { return 1 }

var _ interfaces.Provider = (*fakeProvider)(nil)

func TestRefreshAll(t *testing.T) {
	atc := &fakeProvider{name: "atc"}
	chembl := &fakeProvider{name: "chembl"}
	reg := registry.NewRegistry(atc, chembl)

	s := NewScheduler(reg)
	defer s.Stop()

	if err := s.RefreshAll(); err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}

	if atc.reloads != 1 || chembl.reloads != 1 {
		t.Errorf("Expected every provider reloaded once, got atc=%d chembl=%d", atc.reloads, chembl.reloads)
	}
	if reg.GetLastRefreshed().IsZero() {
		t.Error("Expected the refresh cycle to be recorded")
	}
	if reg.IsRefreshing() {
		t.Error("Expected the refresh flag to be released")
	}
}

func TestRefreshAllContinuesPastFailures(t *testing.T) {
	failing := &fakeProvider{name: "atc", reloadErr: fmt.Errorf("upstream gone")}
	healthy := &fakeProvider{name: "chembl"}
	reg := registry.NewRegistry(failing, healthy)

	s := NewScheduler(reg)
	defer s.Stop()

	if err := s.RefreshAll(); err != nil {
		t.Fatalf("Expected a partially failed cycle to succeed, got %v", err)
	}

	if healthy.reloads != 1 {
		t.Error("Expected the healthy provider to still be reloaded")
	}
	if reg.GetLastRefreshed().IsZero() {
		t.Error("Expected a partially successful cycle to be recorded")
	}
}

func TestRefreshAllFailsWhenEverySourceFails(t *testing.T) {
	a := &fakeProvider{name: "atc", reloadErr: fmt.Errorf("down")}
	b := &fakeProvider{name: "chembl", reloadErr: fmt.Errorf("down")}
	reg := registry.NewRegistry(a, b)

	s := NewScheduler(reg)
	defer s.Stop()

	if err := s.RefreshAll(); err == nil {
		t.Error("Expected error when every source fails to refresh")
	}
	if !reg.GetLastRefreshed().IsZero() {
		t.Error("Expected a fully failed cycle not to be recorded")
	}
}

func TestRefreshAllSkipsWhenAlreadyRunning(t *testing.T) {
	atc := &fakeProvider{name: "atc"}
	reg := registry.NewRegistry(atc)

	s := NewScheduler(reg)
	defer s.Stop()

	if !reg.BeginRefresh() {
		t.Fatal("Failed to take the refresh flag")
	}
	defer reg.EndRefresh()

	if err := s.RefreshAll(); err != nil {
		t.Fatalf("Expected a skipped cycle to return nil, got %v", err)
	}
	if atc.reloads != 0 {
		t.Errorf("Expected no reloads while another cycle runs, got %d", atc.reloads)
	}
}
