package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	MonthNamesEs = []string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	MonthAbbrevEs = []string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}
)

var (
	honorariumMarkRe = regexp.MustCompile(`(?i)\b[a-z]*h\b`)
	leadingIDRe      = regexp.MustCompile(`^\s*(\d{6,12})\b`)
	anyIDRe          = regexp.MustCompile(`(\d{6,12})`)
	honorariumIDRe   = regexp.MustCompile(`^\s*(\d{6,12})\s*[hH]\b`)

	dmyRe = regexp.MustCompile(`^(\d{1,2})[/\-\s](\d{1,2})[/\-\s](\d{2,4})(?:[ T].*)?$`)
	ymdRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T\s].*)?$`)
)

// now is the wall clock used to complete dates that carry no year.
var now = time.Now

// isoLayouts are tried, in order, by the generic fallback of ParseFlexibleDate.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseFlexibleDate accepts a time.Time or text in one of the formats
// D/M/Y, D-M-Y (2- or 4-digit year, optional trailing time), ISO Y-M-D
// (optional trailing time or offset) or DD-mmm (current year). The first
// matching pattern wins.
func ParseFlexibleDate(v any) (DateParts, error) {
	switch t := v.(type) {
	case nil:
		return DateParts{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	case time.Time:
		return DateParts{Day: t.Day(), MonthIdx: int(t.Month()) - 1, Year: t.Year()}, nil
	case *time.Time:
		if t == nil {
			return DateParts{}, fmt.Errorf("%w: empty", ErrInvalidDate)
		}
		return ParseFlexibleDate(*t)
	}

	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return DateParts{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	if m := dmyRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		d := DateParts{Day: day, MonthIdx: month - 1, Year: year}
		if d.Validate() == nil {
			return d, nil
		}
	}

	if m := ymdRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		d := DateParts{Day: day, MonthIdx: month - 1, Year: year}
		if d.Validate() == nil {
			return d, nil
		}
	}

	if day, monthIdx, ok := ParseShortDayMonth(s); ok {
		return DateParts{Day: day, MonthIdx: monthIdx, Year: now().Year()}, nil
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateParts{Day: t.Day(), MonthIdx: int(t.Month()) - 1, Year: t.Year()}, nil
		}
	}

	return DateParts{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseShortDayMonth parses the "DD-mmm" form written in the ledger date
// column, e.g. "07-feb". "sept" is accepted for "sep".
func ParseShortDayMonth(text string) (day, monthIdx int, ok bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	parts := strings.Split(t, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	mon := strings.TrimSpace(parts[1])
	if mon == "sept" {
		mon = "sep"
	}
	for i, abbr := range MonthAbbrevEs {
		if abbr == mon {
			if d < 1 || d > 31 {
				return 0, 0, false
			}
			return d, i, true
		}
	}
	return 0, 0, false
}

// ExtractIdentifierFromFilename returns the 6-12 digit identifier of a
// regular receipt. Names carrying an honorarium marker (a word ending in
// "h", or digits glued to an "h" as in "30111222h.pdf") yield "" because
// they are handled by the honorarium pipeline.
func ExtractIdentifierFromFilename(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	if honorariumMarkRe.MatchString(s) || honorariumIDRe.MatchString(s) {
		return ""
	}
	if m := leadingIDRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := anyIDRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// ExtractHonorariumIdentifier matches "<6-12 digits><optional space>h" at
// the start of the name.
func ExtractHonorariumIdentifier(name string) string {
	if m := honorariumIDRe.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
		return m[1]
	}
	return ""
}

// FormatSheetPeriodName returns e.g. "Febrero 26".
func FormatSheetPeriodName(monthIdx, year int) string {
	return fmt.Sprintf("%s %02d", MonthNamesEs[monthIdx], year%100)
}

// FormatShortDate returns e.g. "07-feb".
func FormatShortDate(day, monthIdx int) string {
	return fmt.Sprintf("%02d-%s", day, MonthAbbrevEs[monthIdx])
}
