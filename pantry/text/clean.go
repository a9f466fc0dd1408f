// pantry/text/clean.go
package text

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cleanPool avoids per-call allocations of the transform chain.
var cleanPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Remove(runes.Predicate(isStrippable)),
			norm.NFC,
		)
	},
}

// isStrippable matches control and format characters other than newline
// and tab, plus the Unicode replacement for invalid UTF-8 input.
func isStrippable(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || r == unicode.ReplacementChar
}

// Clean prepares free-text user input for storage: CRLF and CR become LF,
// control characters except newline and tab are removed, the result is
// NFC-normalized and surrounding whitespace is trimmed.
// Whitespace-only input returns "".
func Clean(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, '\r') {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	if !isPlainASCII(s) {
		t := cleanPool.Get().(transform.Transformer)
		out, _, err := transform.String(t, s)
		t.Reset()
		cleanPool.Put(t)
		if err == nil {
			s = out
		}
	}
	return strings.TrimSpace(s)
}

// CleanLine is Clean for single-line fields: internal runs of whitespace,
// including newlines, collapse to one space.
func CleanLine(s string) string {
	return strings.Join(strings.Fields(Clean(s)), " ")
}

// isPlainASCII reports whether s is printable ASCII, newline or tab only,
// in which case Clean can skip the transform.
func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x7f || (b < 0x20 && b != '\n' && b != '\t') {
			return false
		}
	}
	return true
}
