// Package installments recomputes the concept and installment number of
// every row of a period collection from the contract payment history and
// the rows of the period itself.
package installments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"conciliador/internal/core"
	"conciliador/internal/ledger"
	"conciliador/internal/log"
	"conciliador/internal/sheets"
)

var (
	totalTolerance   = decimal.NewFromInt(50)
	partialTolerance = decimal.NewFromInt(50)
	exactTolerance   = decimal.NewFromInt(100)
)

type (
	// Outcome is the classification of one row. Installment is 0 when the
	// concept carries no installment number.
	Outcome struct {
		Concept     string
		Installment int
	}

	// Result of one accumulator run.
	Result struct {
		Updated int `json:"updated"`
	}

	Accumulator struct {
		store  sheets.Store
		logger *log.Logger
	}
)

func New(store sheets.Store, logger *log.Logger) *Accumulator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Accumulator{store: store, logger: logger.WithComponent(log.ComponentCuotas)}
}

// Classify applies the thresholds to the running total of a contract with
// installment value value and count installments. value must be positive.
func Classify(running, value decimal.Decimal, count int) Outcome {
	c := decimal.NewFromInt(int64(count))
	total := value.Mul(c)

	if running.GreaterThanOrEqual(total.Sub(totalTolerance)) {
		return Outcome{Concept: core.ConceptTotal, Installment: count}
	}
	if running.LessThan(value.Sub(partialTolerance)) {
		return Outcome{Concept: core.ConceptPartial, Installment: 1}
	}

	ratio := running.Div(value)
	rem := running.Mod(value)
	var out Outcome
	if rem.LessThan(exactTolerance) || value.Sub(rem).LessThan(exactTolerance) {
		out = Outcome{Concept: core.ConceptInstallment, Installment: int(ratio.RoundBank(0).IntPart())}
	} else {
		out = Outcome{Concept: core.ConceptPartial, Installment: int(ratio.Floor().IntPart()) + 1}
	}
	if out.Installment > count {
		out.Installment = count
	}
	return out
}

// Run recomputes every row of the period collection and writes columns E
// and G back in one batch. The result only depends on the contract book and
// the amounts of the period rows, so running it twice yields the same output.
func (a *Accumulator) Run(ctx context.Context, book *ledger.ContractBook, period core.Period) (Result, error) {
	name := period.SheetName()
	logger := a.logger.WithFields(log.NewFields().WithSheet(name))

	rows, err := sheets.ReadOptional(ctx, a.store, name)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) <= 1 || book.Len() == 0 {
		logger.InfoContext(ctx, "Nothing to recompute")
		return Result{}, nil
	}
	if !book.HasValueColumn(period) {
		logger.WarnContext(ctx, "No installment value column for period, using contract values")
	}

	data := rows[1:]
	concepts := make([]string, len(data))
	numbers := make([]string, len(data))
	accumulated := make(map[string]decimal.Decimal)
	var res Result

	for i, row := range data {
		entry := core.EntryFromRow(row)
		id := entry.Identifier()
		portfolio := entry[core.ColPortfolio]

		c, ok := book.ByKey(id, portfolio)
		if id == "" || !ok {
			if id != "" {
				concepts[i] = core.ConceptNoMatch
			}
			continue
		}

		value := decimal.NewFromFloat(book.InstallmentValue(c, period))
		if !value.IsPositive() {
			concepts[i] = core.ConceptMissingValue
			logger.DebugContext(ctx, "Missing installment value",
				log.NewFields().WithRow(i+2, id).WithError(core.ErrMissingInstallmentValue).ToSlice()...)
			continue
		}

		key := ledger.ContractKey(id, portfolio)
		payment := decimal.NewFromFloat(core.ParseAmount(entry[core.ColAmount]))
		prior := accumulated[key]
		running := decimal.NewFromFloat(book.History(c, period)).Add(prior).Add(payment)
		accumulated[key] = prior.Add(payment)

		out := Classify(running, value, c.InstallmentCount())
		concepts[i] = out.Concept
		if out.Installment > 0 {
			numbers[i] = strconv.Itoa(out.Installment)
		}
		res.Updated++
	}

	updates := []sheets.RangeUpdate{
		{Range: sheets.ColumnRange(core.ColConcept, 2, len(data)), Values: sheets.Column(concepts)},
		{Range: sheets.ColumnRange(core.ColInstallmentNumber, 2, len(data)), Values: sheets.Column(numbers)},
	}
	if err := a.store.UpdateRanges(ctx, name, updates); err != nil {
		return Result{}, fmt.Errorf("update concepts of %s: %w", name, err)
	}

	logger.InfoContext(ctx, "Concepts recomputed", "rows", len(data), "updated", res.Updated)
	return res, nil
}
