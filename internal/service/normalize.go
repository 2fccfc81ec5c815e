package service

import (
	"strings"
	"unicode"
)

// NormalizeText collapses all whitespace runs (including newlines) to a
// single space, strips non-whitespace control characters, and trims the
// ends. It is total and idempotent; whitespace-only input normalizes to
// the empty string, which callers treat as "no content".
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(clean), " ")
}
