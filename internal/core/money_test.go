package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
	}{
		{"90.000,50", 90000.50},
		{"$ 90.000,50", 90000.50},
		{"120000", 120000},
		{"1.234", 1234},
		{"1.234.567", 1234567},
		{"1.2345", 12345},
		{"1.5", 1.5},
		{"1,5", 1.5},
		{"1,50", 1.50},
		{"1,500", 1500},
		{"1,234.56", 1234.56},
		{"", 0},
		{"abc", 0},
		{",", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestParseAmountStrict(t *testing.T) {
	if _, err := ParseAmountStrict("sin monto"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	got, err := ParseAmountStrict("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0 without error, got %v (err=%v)", got, err)
	}
}

func TestStripToNumericText(t *testing.T) {
	cases := []struct{ in, out string }{
		{"$ 90.000,50", "90.000,50"},
		{"1,234.56", "1.234,56"},
		{"ARS 15000", "15000"},
		{"12,5", "12,5"},
	}
	for _, tc := range cases {
		if got := StripToNumericText(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestStripToIntegerText(t *testing.T) {
	cases := []struct{ in, out string }{
		{"90.000,50", "90000"},
		{"$ 1,234.56", "1234"},
		{"120000", "120000"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripToIntegerText(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
