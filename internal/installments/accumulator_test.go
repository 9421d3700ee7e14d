package installments

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conciliador/internal/core"
	"conciliador/internal/ledger"
	"conciliador/internal/log"
	"conciliador/internal/sheets/memory"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		running int64
		value   int64
		count   int
		want    Outcome
	}{
		{"within 50 of total", 11960, 1000, 12, Outcome{core.ConceptTotal, 12}},
		{"below one installment", 900, 1000, 12, Outcome{core.ConceptPartial, 1}},
		{"just under a multiple", 2950, 1000, 12, Outcome{core.ConceptInstallment, 3}},
		{"just over a multiple", 2050, 1000, 12, Outcome{core.ConceptInstallment, 2}},
		{"between multiples", 1500, 1000, 12, Outcome{core.ConceptPartial, 2}},
		{"half rounds to even", 250, 100, 50, Outcome{core.ConceptInstallment, 2}},
		{"count default", 5000, 1000, ledger.DefaultInstallmentCount, Outcome{core.ConceptInstallment, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(decimal.NewFromInt(tt.running), decimal.NewFromInt(tt.value), tt.count)
			assert.Equal(t, tt.want, got)
		})
	}
}

func row(id, portfolio, amount string) []string {
	e := core.LedgerEntry{}
	e[core.ColIdentifier] = id
	e[core.ColPortfolio] = portfolio
	e[core.ColAmount] = amount
	e[core.ColConcept] = "stale"
	e[core.ColInstallmentNumber] = "99"
	return e.Row()
}

func TestRun_RecomputesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	march := core.Period{MonthIdx: 2, Year: 2025}

	book := ledger.NewContractBook([][]string{
		{"ID", "", "DNI", "Nombre", "Op", "Tipo", "", "Cuotas", "Valor", "Cartera", "pago Febrero 25", "Marzo 25"},
		{"C1", "", "111111", "Ana", "", "Cuota", "", "12", "900", "Comafi", "1.000", "1000"},
		{"C2", "", "333333", "Luis", "", "Cuota", "", "6", "", "Exi", "", ""},
	})

	store := memory.New().Seed(march.SheetName(), [][]string{
		core.LedgerHeader,
		row("111111", "Comafi", "950"),
		row("222222", "Comafi", "1000"),
		row("", "", ""),
		row("333333", "Exi", "500"),
		row("111111", "comafi", "1.000,00"),
	})

	acc := New(store, nil)
	res, err := acc.Run(ctx, book, march)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	first := store.Rows(march.SheetName())
	want := [][2]string{
		{core.ConceptInstallment, "2"},
		{core.ConceptNoMatch, ""},
		{"", ""},
		{core.ConceptMissingValue, ""},
		{core.ConceptInstallment, "3"},
	}
	for i, w := range want {
		r := first[i+1]
		assert.Equal(t, w[0], r[core.ColConcept], "row %d concept", i)
		assert.Equal(t, w[1], r[core.ColInstallmentNumber], "row %d installment", i)
	}

	res, err = acc.Run(ctx, book, march)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, first, store.Rows(march.SheetName()))
}

func TestRun_MissingPeriodIsNoop(t *testing.T) {
	store := memory.New()
	book := ledger.NewContractBook([][]string{{"ID"}, {"C1", "", "111111"}})
	res, err := New(store, nil).Run(context.Background(), book, core.Period{MonthIdx: 0, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.Empty(t, store.Collections())
}

func TestRun_ComafiPortfolioSpellingsShareContract(t *testing.T) {
	march := core.Period{MonthIdx: 2, Year: 2025}
	book := ledger.NewContractBook([][]string{
		{"ID", "", "DNI", "Nombre", "Op", "Tipo", "", "Cuotas", "Valor", "Cartera", "Marzo 25"},
		{"C1", "", "111111", "Ana", "", "Cuota", "", "12", "1000", "Banco Comafi", "1000"},
	})
	store := memory.New().Seed(march.SheetName(), [][]string{
		core.LedgerHeader,
		row("111111", ledger.ComafiPortfolio, "1000"),
		row("111111", "BANCO COMAFI", "1000"),
	})

	res, err := New(store, nil).Run(context.Background(), book, march)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	rows := store.Rows(march.SheetName())
	assert.Equal(t, core.ConceptInstallment, rows[1][core.ColConcept])
	assert.Equal(t, "1", rows[1][core.ColInstallmentNumber])
	assert.Equal(t, core.ConceptInstallment, rows[2][core.ColConcept])
	assert.Equal(t, "2", rows[2][core.ColInstallmentNumber])
}

func TestRun_MissingValueLogsSentinel(t *testing.T) {
	march := core.Period{MonthIdx: 2, Year: 2025}
	book := ledger.NewContractBook([][]string{
		{"ID", "", "DNI", "Nombre", "Op", "Tipo", "", "Cuotas", "Valor", "Cartera"},
		{"C2", "", "333333", "Luis", "", "Cuota", "", "6", "", "Exi"},
	})
	store := memory.New().Seed(march.SheetName(), [][]string{
		core.LedgerHeader,
		row("333333", "Exi", "500"),
	})

	var buf bytes.Buffer
	lc := log.DefaultConfig()
	lc.Level = slog.LevelDebug
	lc.Output = &buf

	_, err := New(store, log.New(lc)).Run(context.Background(), book, march)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), core.ErrMissingInstallmentValue.Error())
	assert.Equal(t, core.ConceptMissingValue, store.Rows(march.SheetName())[1][core.ColConcept])
}
