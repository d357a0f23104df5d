package stencil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeDisplay trims s, collapses inner whitespace and title-cases each
// word ("acme  corp" becomes "Acme Corp"). It is meant for display values
// such as company names and never affects validation.
func NormalizeDisplay(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}
