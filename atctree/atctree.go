// Package atctree flattens the ATC classification hierarchy. Given the
// parent table extracted from the upstream flat file, it computes for every
// class its full ancestor chain and depth, excluding the designated root from
// both. Identifier normalization is pluggable because upstream revisions have
// shipped the same class under more than one naming scheme.
package atctree

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrCycle is returned when a parent chain revisits a node before
	// reaching the root. The hierarchy is acyclic by construction, so a
	// cycle always means malformed source data.
	ErrCycle = errors.New("atctree: cycle detected")

	// ErrUnrecognizedScheme is returned when an identifier matches none of
	// the enumerated naming schemes. An unknown upstream format is an
	// error to investigate, never a silent fallback.
	ErrUnrecognizedScheme = errors.New("atctree: unrecognized identifier scheme")
)

// RootCode is the synthetic root of the ATC hierarchy. Upstream level-1
// classes are parented to an OWL Thing marker; the loader rewrites those to
// this single designated root.
const RootCode = "ATC"

// uatcPrefix is the BioPortal URI scheme observed in upstream CSV revisions.
const uatcPrefix = "http://purl.bioontology.org/ontology/UATC/"

// Bare ATC codes: A, A03, A03A, A03AX, A03AX13.
var atcCodePattern = regexp.MustCompile(`^[A-Z]([0-9]{2}([A-Z]([A-Z]([0-9]{2})?)?)?)?$`)

// Node is one entry of the raw hierarchy: its identifier, its parent
// identifier (empty or self for the root), and a display label.
type Node struct {
	ID       string
	ParentID string
	Name     string
}

// FlatNode is the flattened form of a non-root node. Ancestors lists the
// chain from the immediate parent upward, with the root excluded; Depth is
// the ancestor count.
type FlatNode struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Ancestors []string `json:"ancestors"`
	Depth     int      `json:"depth"`
}

// NormalizeFunc maps an identifier in any known naming scheme to its
// canonical form, or fails with ErrUnrecognizedScheme.
type NormalizeFunc func(id string) (string, error)

// NormalizeATC canonicalizes the two naming schemes observed in upstream ATC
// revisions: the bare class code and the BioPortal UATC URI form. The
// synthetic root marker passes through unchanged.
func NormalizeATC(id string) (string, error) {
	code := strings.TrimSpace(id)
	if code == RootCode {
		return code, nil
	}

	if strings.HasPrefix(code, uatcPrefix) {
		code = strings.TrimPrefix(code, uatcPrefix)
	} else if strings.Contains(code, "://") {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedScheme, id)
	}

	if !atcCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedScheme, id)
	}

	return code, nil
}

// Flatten computes the ancestor chain and depth of every non-root node.
// Exactly one node must designate itself as root (empty or self parent); the
// root is excluded from the output and from every ancestor list, so a direct
// child of the root has no ancestors and depth 0. The normalize function is
// applied to every identifier before chain walking; pass nil to accept
// identifiers as-is.
func Flatten(nodes map[string]Node, normalize NormalizeFunc) (map[string]FlatNode, error) {
	if normalize == nil {
		normalize = func(id string) (string, error) { return id, nil }
	}

	canonical := make(map[string]Node, len(nodes))
	for id, node := range nodes {
		cid, err := normalize(id)
		if err != nil {
			return nil, err
		}

		parentID := ""
		if node.ParentID != "" {
			parentID, err = normalize(node.ParentID)
			if err != nil {
				return nil, err
			}
		}

		canonical[cid] = Node{ID: cid, ParentID: parentID, Name: node.Name}
	}

	rootID := ""
	rootCount := 0
	for id, node := range canonical {
		if node.ParentID == "" || node.ParentID == id {
			rootID = id
			rootCount++
		}
	}
	if rootCount != 1 {
		return nil, fmt.Errorf("atctree: expected exactly one root, found %d", rootCount)
	}

	flattened := make(map[string]FlatNode, len(canonical)-1)
	for id, node := range canonical {
		if id == rootID {
			continue
		}

		seen := map[string]bool{id: true}
		var ancestors []string
		current := node.ParentID
		for current != rootID {
			if seen[current] {
				return nil, fmt.Errorf("%w: chain from %s revisits %s", ErrCycle, id, current)
			}
			seen[current] = true

			parent, ok := canonical[current]
			if !ok {
				return nil, fmt.Errorf("atctree: node %s references missing parent %s", id, current)
			}

			ancestors = append(ancestors, current)
			current = parent.ParentID
		}

		flattened[id] = FlatNode{
			ID:        id,
			Name:      node.Name,
			Ancestors: ancestors,
			Depth:     len(ancestors),
		}
	}

	return flattened, nil
}
