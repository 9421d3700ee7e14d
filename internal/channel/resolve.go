package channel

import "strings"

// Canonical destination names produced by issuer detection.
const (
	DestBank      = "Banco"
	DestPagoFacil = "Pago Facil"
	DestRapipago  = "Rapipago"
)

// Destination is a named account with the fragments that identify it in
// free text. Patterns made only of digits are matched against the digits
// of the input, the rest against its normalized form.
type Destination struct {
	Name     string
	Patterns []string
}

// Destinations holds the built-in groups: the normalized names of the
// channel code table. Account numbers, CUITs and aliases are deployment
// data and come in through NewResolver. The first matching group wins.
var Destinations = []Destination{
	{Name: "Cta. Comafi", Patterns: []string{"ctacomafi"}},
	{Name: "Cta. Creditia", Patterns: []string{"ctacreditia"}},
	{Name: "Of. Creditia", Patterns: []string{"ofcreditia"}},
	{Name: "Cta. Exi", Patterns: []string{"ctaexi"}},
	{Name: "Cta. RDA", Patterns: []string{"ctarda"}},
	{Name: "Cta. Mins", Patterns: []string{"ctamins"}},
	{Name: "Cta Efectivo Si", Patterns: []string{"ctaefectivosi"}},
	{Name: "Efectivo Si", Patterns: []string{"efectivosi"}},
	{Name: "Merc Pago", Patterns: []string{"mercpago"}},
	{Name: "Pago Mis Cuentas", Patterns: []string{"pagomiscuentas"}},
	{Name: "Estudio", Patterns: []string{"estudio"}},
}

// Resolver maps receipt issuers and destination text to destination names.
type Resolver struct {
	table []Destination
}

var defaultResolver = NewResolver(nil)

// NewResolver returns a resolver over the built-in groups plus extra.
// Extra patterns join the built-in group with the same normalized name;
// unknown names are appended as new groups after the built-in ones.
func NewResolver(extra []Destination) *Resolver {
	table := make([]Destination, len(Destinations))
	index := make(map[string]int, len(Destinations))
	for i, d := range Destinations {
		table[i] = Destination{Name: d.Name, Patterns: append([]string(nil), d.Patterns...)}
		index[Normalize(d.Name)] = i
	}
	for _, d := range extra {
		if len(d.Patterns) == 0 {
			continue
		}
		key := Normalize(d.Name)
		if i, ok := index[key]; ok {
			table[i].Patterns = append(table[i].Patterns, d.Patterns...)
			continue
		}
		index[key] = len(table)
		table = append(table, Destination{Name: strings.TrimSpace(d.Name), Patterns: append([]string(nil), d.Patterns...)})
	}
	return &Resolver{table: table}
}

// ResolveDestinationAccount picks the destination of a receipt. Issuer
// detection wins over the destination text; then the destination table;
// otherwise the trimmed destination text is returned unchanged.
func (r *Resolver) ResolveDestinationAccount(issuer, destinationRaw string) string {
	switch {
	case IsComafiBank(issuer):
		return DestBank
	case IsPagoFacil(issuer):
		return DestPagoFacil
	case IsRapipago(issuer):
		return DestRapipago
	}

	compact := Normalize(destinationRaw)
	digits := DigitsOnly(destinationRaw)
	for _, d := range r.table {
		for _, p := range d.Patterns {
			if matches(p, compact, digits) {
				return d.Name
			}
		}
	}
	return strings.TrimSpace(destinationRaw)
}

// ResolveDestinationAccount resolves against the built-in groups only.
func ResolveDestinationAccount(issuer, destinationRaw string) string {
	return defaultResolver.ResolveDestinationAccount(issuer, destinationRaw)
}

func matches(pattern, compact, digits string) bool {
	if DigitsOnly(pattern) == pattern {
		return digits != "" && strings.Contains(digits, pattern)
	}
	p := Normalize(pattern)
	return p != "" && strings.Contains(compact, p)
}

// codes is keyed by the normalized destination name.
var codes = map[string]int{
	"banco":          2,
	"estudio":        1,
	"pagofacil":      4,
	"rapipago":       5,
	"mercpago":       10,
	"ofcreditia":     23,
	"ctacreditia":    24,
	"ctacomafi":      25,
	"pagomiscuentas": 26,
	"ctaexi":         27,
	"ctarda":         31,
	"efectivosi":     32,
	"ctaefectivosi":  33,
	"ctamins":        34,
	"mins":           66,
}

// Code returns the TPO_ORIG code of a destination, 0 when unknown.
// Configured groups with new names have no code.
func Code(destination string) int {
	return codes[Normalize(destination)]
}

// KnownEntities is the table scanned by DetectKnownEntities, in output order.
var KnownEntities = []string{
	"COMAFI", "CREDITIA", "EXI", "WENANCE", "CEIBO",
	"GALICIA 2º", "EFECTIVO SI", "RDA", "COLUMBIA", "MINS",
}

// DetectKnownEntities returns the known entity names contained in text,
// space-joined in table order.
func DetectKnownEntities(text string) string {
	upper := strings.ToUpper(text)
	var found []string
	for _, e := range KnownEntities {
		if strings.Contains(upper, e) {
			found = append(found, e)
		}
	}
	return strings.Join(found, " ")
}
