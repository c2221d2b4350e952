package fetch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFetchPrimarySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	fetcher := NewFetcher(5 * time.Second)

	if err := fetcher.Fetch(server.URL, nil, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Expected payload, got %q", string(data))
	}
}

func TestFetchFallsBackAfterPrimaryFailure(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("from fallback"))
	}))
	defer fallback.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	fetcher := NewFetcher(5 * time.Second)

	if err := fetcher.Fetch(primary.URL, []string{fallback.URL}, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if string(data) != "from fallback" {
		t.Errorf("Expected fallback payload, got %q", string(data))
	}
}

func TestFetchFirstWorkingSourceWins(t *testing.T) {
	fallbackHits := 0
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("primary"))
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits++
		w.Write([]byte("fallback"))
	}))
	defer fallback.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	fetcher := NewFetcher(5 * time.Second)

	if err := fetcher.Fetch(primary.URL, []string{fallback.URL}, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if fallbackHits != 0 {
		t.Errorf("Expected fallback to remain untouched, got %d hits", fallbackHits)
	}
}

func TestFetchAllSourcesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	alsoBad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer alsoBad.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	fetcher := NewFetcher(5 * time.Second)

	err := fetcher.Fetch(bad.URL, []string{alsoBad.URL}, dest)
	if err == nil {
		t.Fatal("Expected error when all sources fail, got nil")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}

	if len(fetchErr.Attempts) != 2 {
		t.Fatalf("Expected 2 recorded attempts, got %d", len(fetchErr.Attempts))
	}
	if fetchErr.Attempts[0].URL != bad.URL {
		t.Errorf("Expected first attempt to be the primary, got %s", fetchErr.Attempts[0].URL)
	}
	if !strings.Contains(fetchErr.Error(), "all 2 sources failed") {
		t.Errorf("Expected aggregated message, got %q", fetchErr.Error())
	}
	if !strings.Contains(fetchErr.Error(), bad.URL) || !strings.Contains(fetchErr.Error(), alsoBad.URL) {
		t.Errorf("Expected every attempted URL in the message, got %q", fetchErr.Error())
	}

	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("Expected no destination file after total failure")
	}
}

func TestFetchSkipsEmptyURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	fetcher := NewFetcher(5 * time.Second)

	if err := fetcher.Fetch("", []string{server.URL}, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
}

func TestFetchCreatesDestinationDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nested"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "deep", "nested", "out.txt")
	fetcher := NewFetcher(5 * time.Second)

	if err := fetcher.Fetch(server.URL, nil, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if _, err := os.Stat(dest); err != nil {
		t.Errorf("Expected destination to exist, got %v", err)
	}
}

func TestFetchReplacesExistingDestination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("new content"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(dest, []byte("old content"), 0644); err != nil {
		t.Fatalf("Failed to seed destination: %v", err)
	}

	fetcher := NewFetcher(5 * time.Second)
	if err := fetcher.Fetch(server.URL, nil, dest); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if string(data) != "new content" {
		t.Errorf("Expected replaced content, got %q", string(data))
	}
}
