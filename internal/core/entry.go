package core

import "strings"

// Ledger columns (A..Y) of a period collection.
const (
	ColIdentifier = iota
	ColName
	ColDate
	ColAmount
	ColConcept
	ColTypeCode
	ColInstallmentNumber
	ColInstallmentCount
	ColPortfolio
	ColPortfolioAccount // legacy honorarium marker
	ColProductAccount
	ColOperator
	ColEntity
	ColDestination
	ColNotes
	ColTransferred
	ColBusinessDay
	ColContractID
	ColDocType
	ColDocNumber
	ColPaymentDate
	ColPaymentAmount
	ColChannelCode
	ColMango
	ColHonorarium

	LedgerWidth
)

// LedgerHeader is the header row written when a period collection is created.
var LedgerHeader = []string{
	"DNI", "Nombre", "Fecha", "Importe", "Concepto", "Tipo de Pago", "Nro de Cuota",
	"Total Cuotas", "Cartera", "Cartera Cta.", "Producto Cta.", "Operador", "Entidad",
	"Cta. Destino", "Observaciones", "Transferido", "Nº Día", "ID", "Tipo Doc",
	"NUMEDOCU", "FECHPAGO", "MONTPAGO", "TPO_ORIG", "MANGO", "Honorario",
}

// Concepts written to the ledger.
const (
	ConceptInstallment  = "Cuota"
	ConceptPartial      = "Parcial"
	ConceptTotal        = "Total"
	ConceptAdvance      = "Adelanto/Anticipo"
	ConceptUnrecognized = "No reconocido"
	ConceptMissingValue = "Falta Valor"
	ConceptNoMatch      = "No Match"
)

// LedgerEntry is one row of a period collection. Fields hold the cell text
// as it is written with USER_ENTERED semantics.
type LedgerEntry [LedgerWidth]string

// EntryFromRow pads or truncates a stored row to the ledger width.
func EntryFromRow(row []string) LedgerEntry {
	var e LedgerEntry
	copy(e[:], row)
	return e
}

// Row returns the entry as a row slice.
func (e LedgerEntry) Row() []string {
	out := make([]string, LedgerWidth)
	copy(out, e[:])
	return out
}

func (e LedgerEntry) Identifier() string {
	return strings.TrimSpace(e[ColIdentifier])
}

// IsHonorarium reports whether the row was produced by the honorarium
// pipeline, either through the flag column or the legacy marker column.
func (e LedgerEntry) IsHonorarium() bool {
	return ParseBoolish(e[ColHonorarium]) || strings.TrimSpace(e[ColPortfolioAccount]) != ""
}
