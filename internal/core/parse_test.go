package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseFlexibleDate(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		in   any
		want DateParts
	}{
		{"07/02/2025", DateParts{Day: 7, MonthIdx: 1, Year: 2025}},
		{"7-2-25", DateParts{Day: 7, MonthIdx: 1, Year: 2025}},
		{"31/12/2024 18:30", DateParts{Day: 31, MonthIdx: 11, Year: 2024}},
		{"2025-03-04", DateParts{Day: 4, MonthIdx: 2, Year: 2025}},
		{"2025-03-04T10:00:00-03:00", DateParts{Day: 4, MonthIdx: 2, Year: 2025}},
		{"07-feb", DateParts{Day: 7, MonthIdx: 1, Year: 2026}},
		{"15-sept", DateParts{Day: 15, MonthIdx: 8, Year: 2026}},
		{time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC), DateParts{Day: 1, MonthIdx: 7, Year: 2025}},
	}
	for _, tc := range cases {
		got, err := ParseFlexibleDate(tc.in)
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%v: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseFlexibleDate_Invalid(t *testing.T) {
	for _, in := range []any{nil, "", "32/01/2025", "10/13/2025", "ayer", "40-feb"} {
		if _, err := ParseFlexibleDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%v: expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestParseShortDayMonth(t *testing.T) {
	day, month, ok := ParseShortDayMonth(" 07-Feb ")
	if !ok || day != 7 || month != 1 {
		t.Fatalf("unexpected result: %d %d %v", day, month, ok)
	}
	for _, in := range []string{"07/feb", "0-feb", "07-xyz", "a-feb", "07-feb-25"} {
		if _, _, ok := ParseShortDayMonth(in); ok {
			t.Fatalf("%q: expected rejection", in)
		}
	}
}

func TestExtractIdentifierFromFilename(t *testing.T) {
	cases := []struct{ in, out string }{
		{"12345678 h receipt.pdf", ""},
		{"12345678 H.jpg", ""},
		{"12345678h.pdf", ""},
		{"30111222h recibo", ""},
		{"30111222 comprobante.pdf", "30111222"},
		{"comprobante 30111222.pdf", "30111222"},
		{"pago 12345.pdf", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractIdentifierFromFilename(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestExtractHonorariumIdentifier(t *testing.T) {
	cases := []struct{ in, out string }{
		{"12345678 h receipt.pdf", "12345678"},
		{"12345678h.pdf", "12345678"},
		{"12345678 comprobante.pdf", ""},
		{"h 12345678", ""},
	}
	for _, tc := range cases {
		if got := ExtractHonorariumIdentifier(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatSheetPeriodName(1, 2026); got != "Febrero 26" {
		t.Fatalf("unexpected sheet name %q", got)
	}
	if got := FormatSheetPeriodName(0, 2005); got != "Enero 05" {
		t.Fatalf("unexpected sheet name %q", got)
	}
	if got := FormatShortDate(7, 1); got != "07-feb" {
		t.Fatalf("unexpected short date %q", got)
	}
	if got := (Period{MonthIdx: 0, Year: 2026}).Previous(); got != (Period{MonthIdx: 11, Year: 2025}) {
		t.Fatalf("unexpected previous period %+v", got)
	}
}

func TestParseBoolish(t *testing.T) {
	truthy := []any{true, 1, 2.5, "TRUE", "Verdadero", "sí", "x", "1"}
	falsy := []any{nil, false, 0, "", "FALSE", "no", "0", "quizás"}
	for _, v := range truthy {
		if !ParseBoolish(v) {
			t.Fatalf("%v expected true", v)
		}
	}
	for _, v := range falsy {
		if ParseBoolish(v) {
			t.Fatalf("%v expected false", v)
		}
	}
}
