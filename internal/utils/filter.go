package utils

import (
	"unicode"
	"unicode/utf8"
)

// ContainsControlChars reports whether s holds control characters such as
// tabs or newlines, which never appear in a thesaurus word as typed.
func ContainsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// IsValidInput checks if a typed word should be looked up.
// Returns false for empty or over-long strings, broken UTF-8 and control characters.
func IsValidInput(s string, maxBytes int) bool {
	if len(s) == 0 {
		return false
	}
	if maxBytes > 0 && len(s) > maxBytes {
		return false
	}
	if !utf8.ValidString(s) {
		return false
	}
	return !ContainsControlChars(s)
}
