package matching

import (
	"regexp"
	"strings"
)

var (
	punctuationPattern   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)
	legalSuffixPattern   = regexp.MustCompile(`(?i)\s+bv\..*$`)
	trackSuffixPattern   = regexp.MustCompile(`\s+\d+e\s+spoor`)
)

// Normalize lowercases name, strips punctuation and collapses whitespace.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = punctuationPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeCatalogName strips qualifiers that only appear in portal product
// names before applying Normalize.
func NormalizeCatalogName(name string) string {
	s := parentheticalPattern.ReplaceAllString(name, "")
	s = legalSuffixPattern.ReplaceAllString(s, "")
	s = trackSuffixPattern.ReplaceAllString(s, "")
	return Normalize(s)
}
