package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	// DateParts is a calendar date with a 0-based month index (0=Enero).
	DateParts struct {
		Day      int
		MonthIdx int
		Year     int
	}

	// Receipt is one raw payment-receipt row, consumed once per run.
	Receipt struct {
		Row         int // 0-based index among data rows of the raw collection
		SourceLabel string
		Issuer      string
		Destination string
		DateRaw     string
		AmountRaw   string
		Identifier  string
		Date        DateParts
	}

	// Period identifies one accounting month.
	Period struct {
		MonthIdx int
		Year     int
	}
)

var (
	ErrInvalidIdentifier         = errors.New("invalid identifier")
	ErrInvalidDate               = errors.New("invalid date")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrNoContractMatch           = errors.New("no contract match")
	ErrDuplicateEntry            = errors.New("duplicate entry")
	ErrMissingInstallmentValue   = errors.New("missing installment value")
	ErrNoBaseRecord              = errors.New("no base record")
	ErrExternalSourceUnavailable = errors.New("external source unavailable")
)

// Validate checks the day and month ranges. Month length is not checked.
func (d DateParts) Validate() error {
	if d.Day < 1 || d.Day > 31 {
		return fmt.Errorf("%w: day %d", ErrInvalidDate, d.Day)
	}
	if d.MonthIdx < 0 || d.MonthIdx > 11 {
		return fmt.Errorf("%w: month index %d", ErrInvalidDate, d.MonthIdx)
	}
	return nil
}

func (d DateParts) Period() Period {
	return Period{MonthIdx: d.MonthIdx, Year: d.Year}
}

// Key orders periods chronologically.
func (p Period) Key() int {
	return p.Year*12 + p.MonthIdx
}

// Previous returns the period immediately before p.
func (p Period) Previous() Period {
	if p.MonthIdx <= 0 {
		return Period{MonthIdx: 11, Year: p.Year - 1}
	}
	return Period{MonthIdx: p.MonthIdx - 1, Year: p.Year}
}

// SheetName returns the period collection name, e.g. "Marzo 25".
func (p Period) SheetName() string {
	return FormatSheetPeriodName(p.MonthIdx, p.Year)
}

// ParseBoolish reads a flag that may arrive as a bool, a number or text.
// Accepted true forms: true, non-zero numbers, "true", "verdadero", "si",
// "sí", "yes", "x", "1". Everything else, including unknown text, is false.
func ParseBoolish(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "true", "verdadero", "si", "sí", "yes", "x", "1":
			return true
		case "", "false", "falso", "no", "0":
			return false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f != 0
		}
		return false
	default:
		return ParseBoolish(fmt.Sprint(t))
	}
}
