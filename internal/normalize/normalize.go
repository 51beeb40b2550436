// Package normalize produces the comparison forms of owner name strings used
// for deduplication, cache keys and display.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)

	punctReplacer = strings.NewReplacer(
		".", " ",
		",", " ",
		"-", " ",
	)
)

// Name standardizes a name string for duplicate detection by:
//  1. Folding accents (é -> e)
//  2. Lowercasing
//  3. Replacing periods, commas and dashes with spaces
//  4. Collapsing whitespace
//
// Word order is preserved: "Smith, John" and "smith john" collide, "John
// Smith" does not.
func Name(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = foldAccents(s)
	s = strings.ToLower(s)
	s = punctReplacer.Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CacheKey returns the SHA-256 hex digest of an already normalized name.
func CacheKey(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// Key normalizes s and returns both the normalized form and its cache key.
func Key(s string) (normalized, key string) {
	normalized = Name(s)
	return normalized, CacheKey(normalized)
}

// Display title-cases tokens written entirely in upper or lower case and
// leaves mixed-case tokens (McDonald, DeWitt) alone.
func Display(token string) string {
	if token == "" {
		return ""
	}
	if token != strings.ToUpper(token) && token != strings.ToLower(token) {
		return token
	}
	return cases.Title(language.English).String(token)
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
