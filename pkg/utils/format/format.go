// Package format holds small string helpers for logs and ticket text.
package format

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s cut to at most max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// Preview collapses runs of whitespace and truncates, for one-line log fields.
func Preview(s string, max int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), max)
}
