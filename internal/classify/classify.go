// Package classify decides the payment type of a receipt from the contract's
// free-text payment description and the amount actually paid.
package classify

import (
	"strings"

	"conciliador/internal/core"
)

// Payment type codes written to the "Tipo de Pago" column.
const (
	CodeTotal     = "PGTOT"
	CodePrefixed  = "PGPREF"
	CodePartial   = "PGPR"
	CodeUndefined = "VER"
)

// PaymentType classifies free text. Precedence: cuota, parcial,
// cancelación/total, adelanto; anything else is not recognized.
func PaymentType(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(t, "cuota"):
		return core.ConceptInstallment
	case strings.Contains(t, "parcial"):
		return core.ConceptPartial
	case strings.Contains(t, "cancelación"), strings.Contains(t, "cancelacion"), strings.Contains(t, "total"):
		return core.ConceptTotal
	case strings.Contains(t, "adelanto"):
		return core.ConceptAdvance
	default:
		return core.ConceptUnrecognized
	}
}

// TypeCode maps a payment type to its ledger code.
func TypeCode(paymentType string) string {
	switch paymentType {
	case core.ConceptTotal:
		return CodeTotal
	case core.ConceptAdvance, core.ConceptInstallment:
		return CodePrefixed
	case core.ConceptPartial:
		return CodePartial
	default:
		return CodeUndefined
	}
}

// Downgrade turns a Total paying less than the contract total, or a Cuota
// paying less than one installment, into Parcial. Zero amounts (unparseable
// receipts) keep the declared type.
func Downgrade(paymentType string, paid, contractTotal, installmentValue float64) string {
	if paid <= 0 {
		return paymentType
	}
	switch {
	case paymentType == core.ConceptTotal && paid < contractTotal:
		return core.ConceptPartial
	case paymentType == core.ConceptInstallment && paid < installmentValue:
		return core.ConceptPartial
	}
	return paymentType
}
