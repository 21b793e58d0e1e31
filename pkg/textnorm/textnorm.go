// Package textnorm builds accent and case insensitive comparison keys.
package textnorm

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block.
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// Normalize decomposes text, strips combining diacritical marks
// and lower-cases the rest. The result is meant for comparison only.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(combiningMarks)),
		cases.Lower(language.Und),
	)

	s, _, err := transform.String(t, text)
	if err != nil {
		return ""
	}
	return s
}

// NormalizeOptional treats an absent value as empty text.
func NormalizeOptional(text *string) string {
	if text == nil {
		return ""
	}
	return Normalize(*text)
}
