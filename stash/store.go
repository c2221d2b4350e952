// Package stash implements the on-disk persisted-mapping store shared by all
// reference-data providers. Each logical resource name owns exactly one JSON
// artifact under the store root; writes go through a temp file plus rename so
// a crash or a racing writer never leaves a half-written artifact behind.
package stash

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
	"github.com/rcsb/chemref-api/logging"
)

var (
	// ErrNotFound is returned when no artifact exists for a resource name.
	ErrNotFound = errors.New("stash: artifact not found")

	// ErrCorruptCache is returned when an artifact exists but cannot be
	// decoded. Callers treat this as a cache miss and refetch.
	ErrCorruptCache = errors.New("stash: artifact is corrupt")
)

// Logical resource names double as file names, so keep them to a safe charset.
var validNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Store is a filesystem-backed persisted-mapping store keyed by logical
// resource name. Staleness is judged from the artifact modification time so
// the store stays agnostic of the serialized format.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory, creating it if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("stash: root directory required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stash root: %w", err)
	}

	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("failed to create stash root: %w", err)
	}

	return &Store{root: abs}, nil
}

// Root returns the absolute store root directory.
func (s *Store) Root() string {
	return s.root
}

// ArtifactPath returns the deterministic on-disk path for a resource name.
func (s *Store) ArtifactPath(name string) string {
	return filepath.Join(s.root, name+".json")
}

func (s *Store) lockPath(name string) string {
	return filepath.Join(s.root, "."+name+".lock")
}

// Exists reports whether an artifact is present for the resource name.
func (s *Store) Exists(name string) bool {
	if !validNamePattern.MatchString(name) {
		return false
	}

	info, err := os.Stat(s.ArtifactPath(name))
	return err == nil && !info.IsDir()
}

// AgeOf returns the age of the artifact computed from its modification time.
// Returns ErrNotFound when no artifact exists.
func (s *Store) AgeOf(name string) (time.Duration, error) {
	if !validNamePattern.MatchString(name) {
		return 0, fmt.Errorf("%w: invalid resource name %q", ErrNotFound, name)
	}

	info, err := os.Stat(s.ArtifactPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return 0, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}

	return time.Since(info.ModTime()), nil
}

// IsFresh reports whether the artifact exists and its age does not exceed maxAge.
func (s *Store) IsFresh(name string, maxAge time.Duration) bool {
	age, err := s.AgeOf(name)
	if err != nil {
		return false
	}
	return age <= maxAge
}

// Invalidate removes the artifact for the resource name. Removing a missing
// artifact is not an error.
func (s *Store) Invalidate(name string) error {
	if !validNamePattern.MatchString(name) {
		return fmt.Errorf("stash: invalid resource name %q", name)
	}

	if err := os.Remove(s.ArtifactPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to invalidate artifact %s: %w", name, err)
	}

	return nil
}

// Read loads and decodes the mapping artifact for the resource name.
func Read[T any](s *Store, name string) (map[string]T, error) {
	if !validNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: invalid resource name %q", ErrNotFound, name)
	}

	data, err := os.ReadFile(s.ArtifactPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}

	var mapping map[string]T
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCache, name, err)
	}

	return mapping, nil
}

// Write serializes the mapping and atomically replaces any prior artifact.
// A cross-process advisory lock is held for the duration of the write so two
// processes racing for the same artifact serialize instead of interleaving;
// the rename itself guarantees readers never observe a partial file.
func Write[T any](s *Store, name string, mapping map[string]T) error {
	if !validNamePattern.MatchString(name) {
		return fmt.Errorf("stash: invalid resource name %q", name)
	}

	// json.Marshal sorts map keys, so artifacts are byte-reproducible for
	// identical mappings.
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to serialize mapping %s: %w", name, err)
	}

	fileLock := flock.New(s.lockPath(name))
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("failed to lock artifact %s: %w", name, err)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logging.Warn("Failed to release stash lock", "name", name, "error", err)
		}
	}()

	tmpFile, err := os.CreateTemp(s.root, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact for %s: %w", name, err)
	}
	tmpName := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		if err := os.Remove(tmpName); err != nil {
			logging.Warn("Failed to remove temp artifact", "path", tmpName, "error", err)
		}
		return fmt.Errorf("failed to write temp artifact for %s: %w", name, writeErr)
	}

	if err := os.Rename(tmpName, s.ArtifactPath(name)); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("Failed to remove temp artifact", "path", tmpName, "error", rmErr)
		}
		return fmt.Errorf("failed to replace artifact %s: %w", name, err)
	}

	return nil
}
