package fetch

import (
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestDecodeTextPassesThroughUTF8(t *testing.T) {
	raw := []byte("cystéine")

	got, err := io.ReadAll(DecodeText(raw))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "cystéine" {
		t.Errorf("Expected UTF-8 input unchanged, got %q", got)
	}
}

func TestDecodeTextTranscodesLatin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("cystéine"))
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	got, err := io.ReadAll(DecodeText(raw))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "cystéine" {
		t.Errorf("Expected transcoded text, got %q", got)
	}
}

func TestCharsetReaderLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("résidu")
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	reader, err := CharsetReader("ISO-8859-1", strings.NewReader(encoded))
	if err != nil {
		t.Fatalf("CharsetReader failed: %v", err)
	}

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "résidu" {
		t.Errorf("Expected transcoded text, got %q", got)
	}
}
