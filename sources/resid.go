package sources

import (
	"encoding/xml"
	"fmt"

	"github.com/rcsb/chemref-api/fetch"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/sources/entities"
)

// residDatabase mirrors the RESIDUES.XML layout: a Database element holding
// Entry elements with header code, names and cross references.
type residDatabase struct {
	XMLName xml.Name     `xml:"Database"`
	Release string       `xml:"release,attr"`
	Entries []residEntry `xml:"Entry"`
}

type residEntry struct {
	ID     string `xml:"id,attr"`
	Header struct {
		Code string `xml:"Code"`
	} `xml:"Header"`
	Names struct {
		Names []string `xml:"Name"`
		Xrefs []string `xml:"Xref"`
	} `xml:"Names"`
	Features struct {
		Features []string `xml:"Feature"`
	} `xml:"Features"`
}

// ParseResid reads RESIDUES.XML, which upstream ships in ISO-8859-1, and
// maps each RESID code to its names and cross references.
func ParseResid(rawPath string) (map[string]entities.ResidRecord, error) {
	rc, err := openMaybeGzip(rawPath)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rc, rawPath)

	decoder := xml.NewDecoder(rc)
	decoder.CharsetReader = fetch.CharsetReader

	var db residDatabase
	if err := decoder.Decode(&db); err != nil {
		return nil, fmt.Errorf("failed to decode RESID xml: %w", err)
	}

	mapping := make(map[string]entities.ResidRecord, len(db.Entries))
	skippedNoCode := 0
	for _, entry := range db.Entries {
		code := entry.Header.Code
		if code == "" {
			code = entry.ID
		}
		if code == "" {
			skippedNoCode++
			continue
		}

		record := entities.ResidRecord{
			ResidCode: code,
			CrossRefs: entry.Names.Xrefs,
			Features:  entry.Features.Features,
		}
		if len(entry.Names.Names) > 0 {
			record.Name = entry.Names.Names[0]
			record.Synonyms = entry.Names.Names[1:]
		}

		mapping[code] = record
	}

	if skippedNoCode > 0 {
		logging.Warn("RESID entries without a code skipped", "count", skippedNoCode)
	}

	logging.Info("RESID repository parsed", "release", db.Release, "entries", len(mapping))
	return mapping, nil
}
