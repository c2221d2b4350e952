package fetch

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText returns a reader yielding UTF-8 text from raw bytes. Upstream
// flat-file revisions have shipped in ISO-8859-1 (the archived ATC snapshots)
// while current exports are UTF-8, so the content is sniffed instead of
// trusting the source.
func DecodeText(raw []byte) io.Reader {
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
}

// CharsetReader adapts legacy charsets for encoding/xml decoders. Only the
// Latin-1 family used by the wired sources is recognized.
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch charset {
	case "ISO-8859-1", "iso-8859-1", "latin1", "Latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	default:
		return input, nil
	}
}
