// Package slug provides URL-friendly slug generation from display names
// and titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// whitespace matches runs of whitespace.
	whitespace = regexp.MustCompile(`\s+`)
)

// asciiFold decomposes accented characters and strips the combining
// marks, so "Café" becomes "Cafe" before the ASCII pipeline runs.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hôtel Review, 2026!" → "hotel-review-2026"
func Generate(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err == nil {
		s = folded
	}
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
