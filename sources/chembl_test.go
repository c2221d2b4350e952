package sources

import (
	"os"
	"path/filepath"
	"testing"
)

const chemblSampleTSV = "chembl_id\tcanonical_smiles\tstandard_inchi\tstandard_inchi_key\n" +
	"CHEMBL25\tCC(=O)Oc1ccccc1C(=O)O\tInChI=1S/C9H8O4/c1-6(10)13-8-5-3-2-4-7(8)9(11)12/h2-5H,1H3,(H,11,12)\tBSYNRYMUTXBXSQ-UHFFFAOYSA-N\n" +
	"CHEMBL192\tCCCc1nn(C)c2c(=O)[nH]c(-c3cc(S(=O)(=O)N4CCN(C)CC4)ccc3OCC)nc12\tInChI=1S/C22H30N6O4S\tBNRNXUUZRGQAQC-UHFFFAOYSA-N\n" +
	"short\tonly-two-columns\n" +
	"\n" +
	"CHEMBL1201585\t[Na+].[Cl-]\tInChI=1S/ClH.Na/h1H;/q;+1/p-1\tFAPWRFPIFSIZLT-UHFFFAOYSA-M\n"

func writeChemblFixture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chembl_chemreps.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestParseChembl(t *testing.T) {
	mapping, err := ParseChembl(writeChemblFixture(t, chemblSampleTSV))
	if err != nil {
		t.Fatalf("ParseChembl failed: %v", err)
	}

	// Header, blank and short rows are skipped
	if len(mapping) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(mapping))
	}

	aspirin, ok := mapping["CHEMBL25"]
	if !ok {
		t.Fatal("Expected CHEMBL25 in the mapping")
	}
	if aspirin.SMILES != "CC(=O)Oc1ccccc1C(=O)O" {
		t.Errorf("Unexpected SMILES: %q", aspirin.SMILES)
	}
	if aspirin.InChIKey != "BSYNRYMUTXBXSQ-UHFFFAOYSA-N" {
		t.Errorf("Unexpected InChIKey: %q", aspirin.InChIKey)
	}
	if aspirin.ChemblID != "CHEMBL25" {
		t.Errorf("Unexpected identifier: %q", aspirin.ChemblID)
	}

	if _, ok := mapping["chembl_id"]; ok {
		t.Error("Expected the header row to be skipped")
	}
	if _, ok := mapping["short"]; ok {
		t.Error("Expected rows with missing columns to be skipped")
	}
}

func TestParseChemblEmptyFile(t *testing.T) {
	mapping, err := ParseChembl(writeChemblFixture(t, ""))
	if err != nil {
		t.Fatalf("ParseChembl failed on empty input: %v", err)
	}
	if len(mapping) != 0 {
		t.Errorf("Expected empty mapping, got %d records", len(mapping))
	}
}

func TestParseChemblMissingFile(t *testing.T) {
	if _, err := ParseChembl(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
