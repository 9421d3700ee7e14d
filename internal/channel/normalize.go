// Package channel maps free-text payment destinations and issuers to the
// canonical channel names and TPO_ORIG codes used in the ledger.
package channel

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks: "Cancelación" -> "Cancelacion".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize strips diacritics, lowercases and removes every character that
// is not an ASCII letter or digit. It is the matching key for channels.
func Normalize(raw string) string {
	s := strings.ToLower(StripDiacritics(raw))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly keeps the digits of raw.
func DigitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsPagoFacil(text string) bool {
	return strings.Contains(Normalize(text), "pagofacil")
}

func IsRapipago(text string) bool {
	return strings.Contains(Normalize(text), "rapipago")
}

// IsComafiBank also covers the plain "comafi" spelling.
func IsComafiBank(text string) bool {
	return strings.Contains(Normalize(text), "comafi")
}
