package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcsb/chemref-api/atctree"
	"github.com/rcsb/chemref-api/fetch"
	"github.com/rcsb/chemref-api/logging"
	"github.com/rcsb/chemref-api/sources/entities"
)

// owlThing marks the upstream parent of level-1 ATC classes; those are
// rewritten to the single designated root before flattening.
const owlThing = "http://www.w3.org/2002/07/owl#Thing"

// ParseATC reads the BioPortal ATC CSV export (optionally gzipped) and
// produces the flattened classification: one record per class carrying its
// name, level, ancestor chain and depth, with the synthetic root excluded.
// The content encoding is sniffed because the fallback snapshots predate
// BioPortal's UTF-8 output and carry ISO-8859-1 labels.
func ParseATC(rawPath string) (map[string]entities.AtcNode, error) {
	rc, err := openMaybeGzip(rawPath)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rc, rawPath)

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawPath, err)
	}

	reader := csv.NewReader(fetch.DecodeText(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read ATC header: %w", err)
	}

	idCol, labelCol, parentsCol, levelCol := -1, -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Class ID":
			idCol = i
		case "Preferred Label":
			labelCol = i
		case "Parents":
			parentsCol = i
		case "ATC LEVEL":
			levelCol = i
		}
	}
	if idCol < 0 || labelCol < 0 || parentsCol < 0 {
		return nil, fmt.Errorf("ATC header missing required columns: %v", header)
	}

	nodes := map[string]atctree.Node{
		atctree.RootCode: {ID: atctree.RootCode, Name: "Anatomical Therapeutic Chemical classification"},
	}
	levels := make(map[string]int)

	skippedScheme := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ATC row: %w", err)
		}
		if idCol >= len(row) || labelCol >= len(row) || parentsCol >= len(row) {
			continue
		}

		code, err := atctree.NormalizeATC(row[idCol])
		if err != nil {
			// Non-UATC ontology rows (OWL axioms, metadata) are expected
			// in the export and are not ATC classes.
			skippedScheme++
			continue
		}

		// Multi-valued parents are pipe-separated; ATC is a tree, so only
		// the first UATC parent applies.
		parent := ""
		for _, candidate := range strings.Split(row[parentsCol], "|") {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			if candidate == owlThing {
				parent = atctree.RootCode
				break
			}
			if normalized, err := atctree.NormalizeATC(candidate); err == nil {
				parent = normalized
				break
			}
		}
		if parent == "" {
			parent = atctree.RootCode
		}

		nodes[code] = atctree.Node{ID: code, ParentID: parent, Name: row[labelCol]}

		if levelCol >= 0 && levelCol < len(row) {
			if level, err := strconv.Atoi(strings.TrimSpace(row[levelCol])); err == nil {
				levels[code] = level
			}
		}
	}

	if skippedScheme > 0 {
		logging.Debug("Skipped non-ATC ontology rows", "count", skippedScheme)
	}

	flattened, err := atctree.Flatten(nodes, atctree.NormalizeATC)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten ATC hierarchy: %w", err)
	}

	mapping := make(map[string]entities.AtcNode, len(flattened))
	for code, node := range flattened {
		level, ok := levels[code]
		if !ok {
			level = node.Depth + 1
		}
		mapping[code] = entities.AtcNode{
			Code:      code,
			Name:      node.Name,
			Level:     level,
			Ancestors: node.Ancestors,
			Depth:     node.Depth,
		}
	}

	logging.Info("ATC classification parsed", "classes", len(mapping))
	return mapping, nil
}
