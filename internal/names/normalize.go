// Package names validates, cleans and normalizes journalist names.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritics is the Combining Diacritical Marks block. Only these are
// folded away, so vowel signs in Indic scripts survive normalization.
var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// Collapse trims s and reduces every whitespace run to a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold strips Latin-style diacritics from s ("José" -> "Jose").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacritics)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Key returns the identity of a name: diacritics folded, lower-cased and
// whitespace collapsed. Two spellings with the same key are one author.
func Key(name string) string {
	return strings.ToLower(Collapse(Fold(name)))
}

// Slug renders name as a URL path segment ("Asha Verma" -> "asha-verma").
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(Fold(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
