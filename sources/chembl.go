package sources

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/sources/entities"
)

// ParseChembl reads the ChEMBL chemical representations TSV (gzipped
// upstream) mapping each ChEMBL identifier to its SMILES, InChI and InChIKey.
// Columns: chembl_id, canonical_smiles, standard_inchi, standard_inchi_key.
func ParseChembl(rawPath string) (map[string]entities.ChemblRecord, error) {
	rc, err := openMaybeGzip(rawPath)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rc, rawPath)

	scanner := bufio.NewScanner(rc)
	// SMILES and InChI strings for large molecules exceed the default token size.
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	mapping := make(map[string]entities.ChemblRecord)
	lineCount := 0
	skippedMissingColumns := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			skippedMissingColumns++
			continue
		}

		chemblID := strings.TrimSpace(fields[0])
		if chemblID == "" || chemblID == "chembl_id" {
			// Header row.
			continue
		}

		mapping[chemblID] = entities.ChemblRecord{
			ChemblID: chemblID,
			SMILES:   fields[1],
			InChI:    fields[2],
			InChIKey: fields[3],
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", rawPath, err)
	}

	if skippedMissingColumns > 0 {
		logging.Info("ChEMBL skip statistics",
			"missing_columns", skippedMissingColumns,
			"total_lines", lineCount,
			"records_parsed", len(mapping))
	}

	logging.Info("ChEMBL representations parsed", "records", len(mapping))
	return mapping, nil
}
