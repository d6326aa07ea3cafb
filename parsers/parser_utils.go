// parsers/parser_utils.go
package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SkipBOM skips a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	if peeked[0] == 0xEF && peeked[1] == 0xBB && peeked[2] == 0xBF {
		br.Discard(3)
	}
	return br
}

// Decode wraps r with a decoder for the named text encoding.
// Supported: "utf-8" (or empty), "windows-1252", "iso-8859-1".
func Decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return SkipBOM(r), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1", "latin-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported text encoding %q", encoding)
	}
}

// Fold lowercases s and strips diacritics so "Título", "TITULO" and "título"
// compare equal. Used for filename, directory and header matching.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// ContainsAll reports whether the folded text contains every keyword.
// Keywords must already be folded.
func ContainsAll(folded string, keywords ...string) bool {
	for _, k := range keywords {
		if !strings.Contains(folded, k) {
			return false
		}
	}
	return true
}

var nullMarkers = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
}

// IsBlank reports whether a cell is empty or one of the null markers
// spreadsheet exports write for missing values.
func IsBlank(cell string) bool {
	v := strings.TrimSpace(cell)
	return v == "" || nullMarkers[strings.ToLower(v)]
}

// ParseSequence parses a cell holding a non-negative integer written only with
// ASCII digits. "12" and "007" are accepted; "x", "-1", "1.0" and "" are not.
// Leading zeros do not count towards the nine-digit limit.
func ParseSequence(cell string) (int, bool) {
	v := strings.TrimSpace(cell)
	if v == "" {
		return 0, false
	}
	if trimmed := strings.TrimLeft(v, "0"); len(trimmed) > 9 {
		return 0, false
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
