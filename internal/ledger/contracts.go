// Package ledger matches receipts to contract rows and indexes the period
// collections that already hold ledger entries.
package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"conciliador/internal/channel"
	"conciliador/internal/core"
)

// Contract sheet columns.
const (
	ProColContractID       = 0
	ProColIdentifier       = 2
	ProColName             = 3
	ProColOperator         = 4
	ProColPaymentType      = 5
	ProColInstallmentCount = 7
	ProColInstallmentValue = 8
	ProColPortfolio        = 9
)

// DefaultInstallmentCount applies when the contract has no usable count.
const DefaultInstallmentCount = 999

var headerYearRe = regexp.MustCompile(`(\d{2,4})`)

type (
	// Contract is one data row of the contract sheet.
	Contract struct {
		Index int // 0-based among data rows
		Row   []string
	}

	// PaymentColumn is a "pago <Mes> <YY>" column of the contract sheet.
	PaymentColumn struct {
		Col    int
		Period core.Period
	}

	// ContractBook indexes the contract sheet for one run.
	ContractBook struct {
		header       []string
		contracts    []Contract
		byIdentifier map[string]int
		byKey        map[string]int
		payments     []PaymentColumn
		valueCols    map[int]int // period key -> column
	}
)

// NewContractBook builds the indexes from the contract sheet rows, header
// first. Duplicate identifiers keep the first row.
func NewContractBook(rows [][]string) *ContractBook {
	b := &ContractBook{
		byIdentifier: make(map[string]int),
		byKey:        make(map[string]int),
		valueCols:    make(map[int]int),
	}
	if len(rows) == 0 {
		return b
	}
	b.header = rows[0]

	for i, row := range rows[1:] {
		c := Contract{Index: i, Row: row}
		b.contracts = append(b.contracts, c)
		id := c.Identifier()
		if id == "" {
			continue
		}
		if _, seen := b.byIdentifier[id]; !seen {
			b.byIdentifier[id] = i
		}
		key := ContractKey(id, c.Portfolio())
		if _, seen := b.byKey[key]; !seen {
			b.byKey[key] = i
		}
	}

	for col, h := range b.header {
		lower := strings.ToLower(h)
		p, ok := ParsePeriodHeader(h)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(lower, "pago"):
			b.payments = append(b.payments, PaymentColumn{Col: col, Period: p})
		case strings.Contains(lower, "saldo"), strings.Contains(lower, "cobra"):
		default:
			if _, seen := b.valueCols[p.Key()]; !seen {
				b.valueCols[p.Key()] = col
			}
		}
	}
	sort.SliceStable(b.payments, func(i, j int) bool {
		return b.payments[i].Period.Key() < b.payments[j].Period.Key()
	})
	return b
}

// ComafiPortfolio is the canonical name written for every Comafi portfolio.
const ComafiPortfolio = "Comafi"

// CanonicalPortfolio folds the spellings of the Comafi portfolio ("Banco
// Comafi", "COMAFI 2") into ComafiPortfolio. Other names pass unchanged.
func CanonicalPortfolio(portfolio string) string {
	if channel.IsComafiBank(portfolio) {
		return ComafiPortfolio
	}
	return portfolio
}

// ContractKey is the accumulator key of a contract: normalized identifier
// and canonical portfolio, so the contract sheet and the ledger rows written
// from it produce the same key.
func ContractKey(identifier, portfolio string) string {
	return channel.Normalize(identifier) + "_" + channel.Normalize(CanonicalPortfolio(portfolio))
}

// ParsePeriodHeader reads "Marzo 25", "pago Marzo 2025" and similar headers.
func ParsePeriodHeader(header string) (core.Period, bool) {
	h := strings.ToLower(channel.StripDiacritics(header))
	for i, name := range core.MonthNamesEs {
		if !strings.Contains(h, strings.ToLower(name)) {
			continue
		}
		m := headerYearRe.FindStringSubmatch(header)
		if m == nil {
			return core.Period{}, false
		}
		year, _ := strconv.Atoi(m[1])
		if year < 100 {
			year += 2000
		}
		return core.Period{MonthIdx: i, Year: year}, true
	}
	return core.Period{}, false
}

func (b *ContractBook) Len() int { return len(b.contracts) }

// ByIdentifier returns the first contract with the given identifier.
func (b *ContractBook) ByIdentifier(identifier string) (Contract, bool) {
	i, ok := b.byIdentifier[strings.TrimSpace(identifier)]
	if !ok {
		return Contract{}, false
	}
	return b.contracts[i], true
}

// ByKey returns the first contract matching identifier and portfolio.
func (b *ContractBook) ByKey(identifier, portfolio string) (Contract, bool) {
	i, ok := b.byKey[ContractKey(identifier, portfolio)]
	if !ok {
		return Contract{}, false
	}
	return b.contracts[i], true
}

// PaymentColumns returns the payment columns in chronological order.
func (b *ContractBook) PaymentColumns() []PaymentColumn {
	return b.payments
}

// HasValueColumn reports whether the sheet carries a per-period installment value.
func (b *ContractBook) HasValueColumn(p core.Period) bool {
	_, ok := b.valueCols[p.Key()]
	return ok
}

// InstallmentValue returns the installment value of c for period p: the
// per-period value column when the sheet has one, else the contract value.
func (b *ContractBook) InstallmentValue(c Contract, p core.Period) float64 {
	if col, ok := b.valueCols[p.Key()]; ok {
		return core.ParseAmount(c.cell(col))
	}
	return c.InstallmentValue()
}

// History sums the payment columns of c strictly before p.
func (b *ContractBook) History(c Contract, p core.Period) float64 {
	var total float64
	for _, pc := range b.payments {
		if pc.Period.Key() >= p.Key() {
			break
		}
		total += core.ParseAmount(c.cell(pc.Col))
	}
	return total
}

// PriorPayments counts the payment columns of c before p holding a positive amount.
func (b *ContractBook) PriorPayments(c Contract, p core.Period) int {
	n := 0
	for _, pc := range b.payments {
		if pc.Period.Key() >= p.Key() {
			break
		}
		if core.ParseAmount(c.cell(pc.Col)) > 0 {
			n++
		}
	}
	return n
}

func (c Contract) cell(col int) string {
	if col < 0 || col >= len(c.Row) {
		return ""
	}
	return strings.TrimSpace(c.Row[col])
}

func (c Contract) ID() string              { return c.cell(ProColContractID) }
func (c Contract) Identifier() string      { return c.cell(ProColIdentifier) }
func (c Contract) Name() string            { return c.cell(ProColName) }
func (c Contract) Operator() string        { return c.cell(ProColOperator) }
func (c Contract) PaymentTypeText() string { return c.cell(ProColPaymentType) }
func (c Contract) Portfolio() string       { return c.cell(ProColPortfolio) }

// InstallmentCountText is the count as written in the sheet.
func (c Contract) InstallmentCountText() string { return c.cell(ProColInstallmentCount) }

// InstallmentCount parses the count, defaulting to DefaultInstallmentCount
// when it is missing, not an integer or below 1.
func (c Contract) InstallmentCount() int {
	n, err := strconv.Atoi(c.InstallmentCountText())
	if err != nil || n < 1 {
		return DefaultInstallmentCount
	}
	return n
}

func (c Contract) InstallmentValue() float64 {
	return core.ParseAmount(c.cell(ProColInstallmentValue))
}
