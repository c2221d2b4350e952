// Package fetch downloads remote reference-data resources to local files.
// Every resource carries a primary URL and an ordered fallback list; the
// fetcher tries them in order and reports an aggregated error naming every
// attempted source when all of them fail.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcsb/chemref-api/logging"
)

// DefaultTimeout bounds a single download attempt when no timeout is configured.
const DefaultTimeout = 5 * time.Minute

// Attempt records one failed download source.
type Attempt struct {
	URL    string
	Reason string
}

// FetchError aggregates the failure reason of every attempted source.
type FetchError struct {
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("all %d sources failed", len(e.Attempts)))
	for _, a := range e.Attempts {
		sb.WriteString("; ")
		sb.WriteString(a.URL)
		sb.WriteString(": ")
		sb.WriteString(a.Reason)
	}
	return sb.String()
}

// Fetcher performs timeout-bounded HTTP(S) downloads.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher whose individual download attempts are bounded
// by the given timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the resource to destPath, trying the primary URL first and
// then each fallback in order. The first working source wins. When every
// source fails the returned error is a *FetchError enumerating each attempt.
// There are no retries beyond the fallback list.
func (f *Fetcher) Fetch(primary string, fallbacks []string, destPath string) error {
	urls := make([]string, 0, 1+len(fallbacks))
	urls = append(urls, primary)
	urls = append(urls, fallbacks...)

	var attempts []Attempt
	for _, url := range urls {
		if url == "" {
			continue
		}

		if err := f.fetchOne(url, destPath); err != nil {
			logging.Warn("Download attempt failed", "url", url, "error", err)
			attempts = append(attempts, Attempt{URL: url, Reason: err.Error()})
			continue
		}

		return nil
	}

	return &FetchError{Attempts: attempts}
}

// fetchOne downloads a single URL to destPath through a temp file so an
// interrupted transfer never leaves a truncated destination behind.
func (f *Fetcher) fetchOne(url string, destPath string) error {
	response, err := f.client.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "url", url, "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", response.Status)
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(destDir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, response.Body)
	closeErr := tmpFile.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if err := os.Remove(tmpName); err != nil {
			logging.Warn("Failed to remove temp download", "path", tmpName, "error", err)
		}
		return fmt.Errorf("failed to write download: %w", copyErr)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("Failed to remove temp download", "path", tmpName, "error", rmErr)
		}
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	return nil
}
