package text

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"trim", "  Ada  ", "Ada"},
		{"keeps newlines", "line1\nline2", "line1\nline2"},
		{"crlf", "line1\r\nline2\rline3", "line1\nline2\nline3"},
		{"strips controls", "Ada\x00\x07 Lovelace", "Ada Lovelace"},
		{"strips zero width", "Ad\u200ba", "Ada"},
		{"nfc", "Jose\u0301", "Jos\u00e9"},
		{"keeps tab", "a\tb", "a\tb"},
		{"unicode untouched", "Zo\u00eb \U0001F600", "Zo\u00eb \U0001F600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanLine(t *testing.T) {
	if got := CleanLine("  Ada \n  Lovelace\t"); got != "Ada Lovelace" {
		t.Errorf("CleanLine = %q", got)
	}
}
