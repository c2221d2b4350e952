// Package sources wires the concrete dataset providers: each source pairs a
// resource descriptor (primary URL, fallbacks, freshness window) with a parse
// strategy turning the raw payload into a normalized identifier mapping.
package sources

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rcsb/chemref-api/config"
	"github.com/rcsb/chemref-api/fetch"
	"github.com/rcsb/chemref-api/interfaces"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/provider"
	"github.com/rcsb/chemref-api/stash"
)

// fallbackBase hosts snapshot copies of the upstream files for when the
// primary sources are unreachable.
const fallbackBase = "https://github.com/rcsb/py-rcsb_exdb_assets/raw/master/fall_back"

// defaultResources describes the built-in sources; entries in the catalog
// file override matching fields by name.
func defaultResources() map[string]provider.Resource {
	return map[string]provider.Resource{
		"atc": {
			Name:      "atc",
			URL:       "https://data.bioontology.org/ontologies/ATC/download?download_format=csv",
			Fallbacks: []string{fallbackBase + "/ATC-2018.csv.gz"},
			RawFile:   "atc.csv.gz",
			MaxAge:    30 * 24 * time.Hour,
			MinCount:  6100,
		},
		"chembl": {
			Name:      "chembl",
			URL:       "https://ftp.ebi.ac.uk/pub/databases/chembl/ChEMBLdb/latest/chembl_chemreps.txt.gz",
			Fallbacks: nil,
			RawFile:   "chembl_chemreps.txt.gz",
			MaxAge:    30 * 24 * time.Hour,
			MinCount:  1000,
		},
		"resid": {
			Name:      "resid",
			URL:       "https://proteininformationresource.org/pir_databases/other_databases/resid/RESIDUES.XML",
			Fallbacks: []string{fallbackBase + "/RESIDUES.XML"},
			RawFile:   "RESIDUES.XML",
			MaxAge:    60 * 24 * time.Hour,
			MinCount:  500,
		},
	}
}

// BuildProviders constructs every configured provider, applying catalog
// overrides to the built-in resource descriptors.
func BuildProviders(catalog *config.Catalog, store *stash.Store, fetcher *fetch.Fetcher, workDir string) ([]interfaces.Provider, error) {
	resources := defaultResources()
	for _, sc := range catalog.Sources {
		res, ok := resources[sc.Name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q in catalog", sc.Name)
		}

		if sc.URL != "" {
			res.URL = sc.URL
		}
		if len(sc.Fallbacks) > 0 {
			res.Fallbacks = sc.Fallbacks
		}
		if sc.MaxAgeDays > 0 {
			res.MaxAge = time.Duration(sc.MaxAgeDays) * 24 * time.Hour
		}
		if sc.MinCount > 0 {
			res.MinCount = sc.MinCount
		}
		resources[sc.Name] = res
		logging.Info("Catalog override applied", "source", sc.Name)
	}

	providers := []interfaces.Provider{
		provider.New(resources["atc"], store, fetcher, workDir, ParseATC),
		provider.New(resources["chembl"], store, fetcher, workDir, ParseChembl),
		provider.New(resources["resid"], store, fetcher, workDir, ParseResid),
	}

	return providers, nil
}

// openMaybeGzip opens a raw payload, transparently uncompressing gzip
// content. Sniffing the magic bytes instead of trusting the file name covers
// fallback snapshots served with a different compression than the primary.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			closeQuietly(f, path)
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		return &gzipReadCloser{gz: gz, file: f}, nil
	}

	return &bufferedReadCloser{br: br, file: f}, nil
}

func closeQuietly(c io.Closer, path string) {
	if err := c.Close(); err != nil {
		logging.Warn("Failed to close raw payload", "path", path, "error", err)
	}
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fileErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

type bufferedReadCloser struct {
	br   *bufio.Reader
	file *os.File
}

func (b *bufferedReadCloser) Read(p []byte) (int, error) {
	return b.br.Read(p)
}

func (b *bufferedReadCloser) Close() error {
	return b.file.Close()
}
