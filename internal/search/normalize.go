// Package search ranks catalog candidates against a wanted identity.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after NFD decomposition, turning
// accented letters into their base form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, removes accents and punctuation, and collapses
// whitespace, so token comparisons survive the catalog's styling.
func Normalize(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokens splits normalized text into comparison words.
func tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// scoringTokens keeps only words long enough to be distinctive. Fragments
// of one or two letters match nearly any title and must not earn points.
func scoringTokens(s string) []string {
	all := tokens(s)
	kept := all[:0]
	for _, tok := range all {
		if len([]rune(tok)) > 2 {
			kept = append(kept, tok)
		}
	}
	return kept
}
