package game

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxNameLength = 24

// NormalizeName lowercases, trims and strips accents from a display name.
// Duplicate detection compares normalized forms, so "José" and "jose " collide.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// ValidateName rejects names that are empty after normalization or too long.
func ValidateName(s string) error {
	n := NormalizeName(s)
	if n == "" || utf8.RuneCountInString(n) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}
