package ingest

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanCell trims whitespace and NUL padding and converts the value to
// Unicode NFC so that composed and decomposed spellings of the same name
// ("Côte d'Ivoire") compare equal in exact lookups.
func CleanCell(s string) string {
	s = strings.Trim(s, "\x00")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}
