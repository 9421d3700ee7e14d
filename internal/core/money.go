// Package core provides the domain types of the reconciliation engine and
// the locale parsers for Argentine dates, amounts and identifiers.
//
// This file contains the monetary text helpers. Amounts arrive as free text
// ("$ 90.000,50", "120000", "1,234.56") and are interpreted with the
// Argentine convention of dot thousands and comma decimals, falling back to
// position heuristics when a single separator is present.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// keepNumeric drops every character except digits, dots and commas.
func keepNumeric(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripToNumericText keeps digits and separators. When both separators are
// present and the dot is the rightmost one, their roles are swapped so the
// result always reads as dot thousands, comma decimal.
//
// Examples:
//
//	StripToNumericText("$ 90.000,50") -> "90.000,50"
//	StripToNumericText("1,234.56")    -> "1.234,56"
func StripToNumericText(raw string) string {
	s := keepNumeric(raw)
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.Map(func(r rune) rune {
				switch r {
				case '.':
					return ','
				case ',':
					return '.'
				}
				return r
			}, s)
		}
	}
	return s
}

// StripToIntegerText drops the fractional part after the last comma and
// the thousands dots: "90.000,50" -> "90000".
func StripToIntegerText(raw string) string {
	s := StripToNumericText(raw)
	if idx := strings.LastIndex(s, ","); idx != -1 {
		s = s[:idx]
	}
	return strings.ReplaceAll(s, ".", "")
}

// ParseAmount interprets Argentine amount text and never fails: empty or
// non-numeric input yields 0. Callers that must tell zero apart from
// unparseable text use ParseAmountStrict.
func ParseAmount(raw string) float64 {
	f, err := ParseAmountStrict(raw)
	if err != nil {
		return 0
	}
	return f
}

// ParseAmountStrict is the validating variant of ParseAmount.
//
// Disambiguation rules:
//   - both separators: the rightmost one is the decimal separator
//   - comma only: decimal when at most 2 digits follow a single comma, else thousands
//   - dot only: thousands when there are several dots or 3+ digits follow, else decimal
func ParseAmountStrict(raw string) (float64, error) {
	s := keepNumeric(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		parts := strings.Split(s, ".")
		if len(parts) > 2 || len(parts[1]) >= 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return f, nil
}
