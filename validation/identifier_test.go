package validation

import (
	"strings"
	"testing"
)

func TestValidateSourceName(t *testing.T) {
	valid := []string{"atc", "chembl", "resid", "drugbank", "source_2", "a-b"}
	for _, name := range valid {
		if err := ValidateSourceName(name); err != nil {
			t.Errorf("Expected %q to validate, got %v", name, err)
		}
	}

	invalid := []string{"", "ATC", "-leading", "_leading", "has space", "dots.here", strings.Repeat("a", 40)}
	for _, name := range invalid {
		if err := ValidateSourceName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{
		"A03AX13",
		"CHEMBL25",
		"AA0001",
		"http://purl.bioontology.org/ontology/UATC/A03AX13",
		"InChIKey:BSYNRYMUTXBXSQ-UHFFFAOYSA-N",
	}
	for _, id := range valid {
		if err := ValidateIdentifier(id); err != nil {
			t.Errorf("Expected %q to validate, got %v", id, err)
		}
	}
}

func TestValidateIdentifierRejections(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("A", 129)},
		{"path traversal", "../etc/passwd"},
		{"embedded traversal", "A03/../X"},
		{"whitespace", "A03 AX13"},
		{"control characters", "A03\x00X"},
		{"shell metacharacters", "A03;rm"},
	}

	for _, tc := range testCases {
		if err := ValidateIdentifier(tc.input); err == nil {
			t.Errorf("%s: expected %q to be rejected", tc.name, tc.input)
		}
	}
}
