package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig overrides the built-in resource descriptor of one source.
// Only non-zero fields apply.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Fallbacks  []string `yaml:"fallbacks"`
	MaxAgeDays int      `yaml:"max_age_days"`
	MinCount   int      `yaml:"min_count"`
}

// Catalog is the optional YAML file listing per-source overrides.
type Catalog struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadCatalog parses the catalog file. An empty path yields an empty catalog
// so every source runs on its built-in descriptor.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return &Catalog{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if err := validateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return &catalog, nil
}

func validateCatalog(catalog *Catalog) error {
	seen := make(map[string]bool)
	for i, sc := range catalog.Sources {
		if sc.Name == "" {
			return fmt.Errorf("source %d has no name", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("duplicate source %q", sc.Name)
		}
		seen[sc.Name] = true

		for _, url := range append([]string{sc.URL}, sc.Fallbacks...) {
			if url == "" {
				continue
			}
			if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
				return fmt.Errorf("source %q has non-HTTP url %q", sc.Name, url)
			}
		}

		if sc.MaxAgeDays < 0 {
			return fmt.Errorf("source %q has negative max_age_days", sc.Name)
		}
		if sc.MinCount < 0 {
			return fmt.Errorf("source %q has negative min_count", sc.Name)
		}
	}

	return nil
}
