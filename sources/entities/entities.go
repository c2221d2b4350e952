// Package entities defines the normalized record types produced by the
// dataset sources and cached in the stash.
package entities

// AtcNode is one flattened ATC classification entry. Ancestors lists the
// chain from the immediate parent upward with the designated root excluded;
// Depth equals the ancestor count.
type AtcNode struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Level     int      `json:"level,omitempty"`
	Ancestors []string `json:"ancestors"`
	Depth     int      `json:"depth"`
}

// ChemblRecord holds the chemical representations published for one ChEMBL
// identifier.
type ChemblRecord struct {
	ChemblID string `json:"chembl_id"`
	SMILES   string `json:"smiles"`
	InChI    string `json:"inchi,omitempty"`
	InChIKey string `json:"inchi_key"`
}

// ResidRecord holds the names and cross references of one RESID
// modified-residue entry.
type ResidRecord struct {
	ResidCode string   `json:"resid_code"`
	Name      string   `json:"name"`
	Synonyms  []string `json:"synonyms,omitempty"`
	CrossRefs []string `json:"cross_refs,omitempty"`
	Features  []string `json:"features,omitempty"`
}
