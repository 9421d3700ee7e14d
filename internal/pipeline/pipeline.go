// Package pipeline runs the reconciliation steps against one spreadsheet:
// receipt ingestion, honorarium ingestion, installment recomputation and
// the historic copy of the raw receipts.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conciliador/internal/channel"
	"conciliador/internal/core"
	"conciliador/internal/ledger"
	"conciliador/internal/log"
	"conciliador/internal/sheets"
)

// Raw receipt columns.
const (
	RawColSource      = 0
	RawColIssuer      = 2
	RawColDate        = 3
	RawColAmount      = 5
	RawColDestination = 10

	StatusColIngest     = 15 // P
	StatusColHonorarium = 16 // Q

	historyWidth = 16
)

// Sheets names the collections a run touches.
type Sheets struct {
	Raw       string
	Contracts string
	History   string
}

func DefaultSheets() Sheets {
	return Sheets{Raw: "Informacion imagenes", Contracts: "Pro", History: "Historico"}
}

// BusinessDays is the part of the calendar service the ingestion needs.
type BusinessDays interface {
	BusinessDayOrdinal(ctx context.Context, day, monthIdx, year int) (int, bool)
}

// Pipeline holds the collaborators of one run against one spreadsheet.
type Pipeline struct {
	store    sheets.Store
	calendar BusinessDays
	names    Sheets
	resolver *channel.Resolver
	logger   *log.Logger
	now      func() time.Time
}

type Option func(*Pipeline)

func WithSheets(s Sheets) Option { return func(p *Pipeline) { p.names = s } }

func WithLogger(l *log.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithDestinations adds configured destination patterns to the built-in table.
func WithDestinations(extra []channel.Destination) Option {
	return func(p *Pipeline) { p.resolver = channel.NewResolver(extra) }
}

// WithClock sets the clock deciding the current period.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func New(store sheets.Store, cal BusinessDays, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		calendar: cal,
		names:    DefaultSheets(),
		resolver: channel.NewResolver(nil),
		logger:   log.New(log.DefaultConfig()),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.WithComponent(log.ComponentPipeline)
	return p
}

// CurrentPeriod is the period of the pipeline clock.
func (p *Pipeline) CurrentPeriod() core.Period {
	t := p.now()
	return core.Period{MonthIdx: int(t.Month()) - 1, Year: t.Year()}
}

// LoadContracts reads the contract sheet.
func (p *Pipeline) LoadContracts(ctx context.Context) (*ledger.ContractBook, error) {
	rows, err := sheets.ReadOptional(ctx, p.store, p.names.Contracts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.names.Contracts, err)
	}
	return ledger.NewContractBook(rows), nil
}

// ReadReceipts reads the data rows of the raw receipt sheet.
func (p *Pipeline) ReadReceipts(ctx context.Context) ([]core.Receipt, error) {
	rows, err := sheets.ReadOptional(ctx, p.store, p.names.Raw)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.names.Raw, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	out := make([]core.Receipt, 0, len(rows)-1)
	for i, row := range rows[1:] {
		out = append(out, core.Receipt{
			Row:         i,
			SourceLabel: cell(row, RawColSource),
			Issuer:      cell(row, RawColIssuer),
			DateRaw:     cell(row, RawColDate),
			AmountRaw:   cell(row, RawColAmount),
			Destination: cell(row, RawColDestination),
		})
	}
	return out, nil
}

// writeStatuses writes one status per receipt into column col of the raw
// sheet. Failures are logged and swallowed: ledger rows are already written.
func (p *Pipeline) writeStatuses(ctx context.Context, col int, statuses []string) {
	if len(statuses) == 0 {
		return
	}
	update := sheets.RangeUpdate{
		Range:  sheets.ColumnRange(col, 2, len(statuses)),
		Values: sheets.Column(statuses),
	}
	if err := p.store.UpdateRanges(ctx, p.names.Raw, []sheets.RangeUpdate{update}); err != nil {
		p.logger.WarnContext(ctx, "Failed to write status trail",
			log.NewFields().WithSheet(p.names.Raw).WithError(err).ToSlice()...)
	}
}

// appendGrouped appends queued rows per period collection, creating it
// with the ledger header when missing. order keeps first-seen order.
func (p *Pipeline) appendGrouped(ctx context.Context, order []core.Period, rows map[int][][]string) error {
	for _, period := range order {
		batch := rows[period.Key()]
		if len(batch) == 0 {
			continue
		}
		name := period.SheetName()
		if err := p.store.EnsureCollection(ctx, name, core.LedgerHeader); err != nil {
			return fmt.Errorf("ensure %s: %w", name, err)
		}
		if err := p.store.AppendRows(ctx, name, batch); err != nil {
			return fmt.Errorf("append to %s: %w", name, err)
		}
	}
	return nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
