package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"conciliador/internal/channel"
	"conciliador/internal/classify"
	"conciliador/internal/core"
	"conciliador/internal/ledger"
	"conciliador/internal/log"
)

// IngestResult counts the outcome of one ingestion pass.
type IngestResult struct {
	Loaded     int `json:"loaded"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// errHonorariumReceipt marks receipts left to the honorarium pass.
var errHonorariumReceipt = errors.New("honorarium receipt")

// Ingest turns raw receipts into ledger entries appended to their period
// collections. Row failures are recorded in the status trail and counted;
// only append failures are returned.
func (p *Pipeline) Ingest(ctx context.Context, book *ledger.ContractBook, receipts []core.Receipt) (IngestResult, error) {
	logger := p.logger.WithComponent(log.ComponentIngest)
	var res IngestResult
	if len(receipts) == 0 {
		logger.InfoContext(ctx, "No receipts to ingest")
		return res, nil
	}

	dedup := ledger.NewDedupIndex(p.store)
	statuses := make([]string, len(receipts))
	queued := make(map[int][][]string)
	var order []core.Period

	for i := range receipts {
		r := &receipts[i]
		entry, period, err := p.ingestOne(ctx, book, dedup, r)
		switch {
		case err == nil:
			if _, ok := queued[period.Key()]; !ok {
				order = append(order, period)
			}
			queued[period.Key()] = append(queued[period.Key()], entry.Row())
			statuses[i] = fmt.Sprintf("OK (%s)", period.SheetName())
			res.Loaded++
		case errors.Is(err, errHonorariumReceipt):
			statuses[i] = "Honorario"
		case errors.Is(err, core.ErrDuplicateEntry):
			statuses[i] = "Duplicado en " + period.SheetName()
			res.Duplicates++
			logger.InfoContext(ctx, "Duplicate receipt", log.NewFields().WithRow(r.Row+2, r.Identifier).WithSheet(period.SheetName()).ToSlice()...)
		default:
			statuses[i] = statusForError(err)
			res.Errors++
			logger.WarnContext(ctx, "Receipt rejected", log.NewFields().WithRow(r.Row+2, r.Identifier).WithError(err).ToSlice()...)
		}
	}

	if err := p.appendGrouped(ctx, order, queued); err != nil {
		return res, err
	}
	p.writeStatuses(ctx, StatusColIngest, statuses)

	logger.InfoContext(ctx, "Receipts ingested", "loaded", res.Loaded, "duplicates", res.Duplicates, "errors", res.Errors)
	return res, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, book *ledger.ContractBook, dedup *ledger.DedupIndex, r *core.Receipt) (core.LedgerEntry, core.Period, error) {
	if core.ExtractHonorariumIdentifier(r.SourceLabel) != "" {
		return core.LedgerEntry{}, core.Period{}, errHonorariumReceipt
	}
	r.Identifier = core.ExtractIdentifierFromFilename(r.SourceLabel)
	if r.Identifier == "" {
		return core.LedgerEntry{}, core.Period{}, fmt.Errorf("%w: %q", core.ErrInvalidIdentifier, r.SourceLabel)
	}

	c, ok := book.ByIdentifier(r.Identifier)
	if !ok {
		return core.LedgerEntry{}, core.Period{}, fmt.Errorf("%w: %s", core.ErrNoContractMatch, r.Identifier)
	}

	date, err := core.ParseFlexibleDate(r.DateRaw)
	if err != nil {
		return core.LedgerEntry{}, core.Period{}, err
	}
	r.Date = date
	period := date.Period()

	key := ledger.ReceiptKey(r.Identifier, date.Day, date.MonthIdx)
	dup, err := dedup.Contains(ctx, period, key)
	if err != nil {
		return core.LedgerEntry{}, period, err
	}
	if dup {
		return core.LedgerEntry{}, period, fmt.Errorf("%w: %s", core.ErrDuplicateEntry, key)
	}

	entry := p.buildEntry(ctx, book, c, r, period)
	if err := dedup.Add(ctx, period, key); err != nil {
		return core.LedgerEntry{}, period, err
	}
	return entry, period, nil
}

func (p *Pipeline) buildEntry(ctx context.Context, book *ledger.ContractBook, c ledger.Contract, r *core.Receipt, period core.Period) core.LedgerEntry {
	paid := core.ParseAmount(r.AmountRaw)
	value := book.InstallmentValue(c, period)
	paymentType := classify.Downgrade(
		classify.PaymentType(c.PaymentTypeText()),
		paid, value*float64(c.InstallmentCount()), value)

	destination := p.resolver.ResolveDestinationAccount(r.Issuer, r.Destination)
	shortDate := core.FormatShortDate(r.Date.Day, r.Date.MonthIdx)

	businessDay := ""
	if n, ok := p.calendar.BusinessDayOrdinal(ctx, r.Date.Day, r.Date.MonthIdx, r.Date.Year); ok {
		businessDay = strconv.Itoa(n)
	}

	var e core.LedgerEntry
	e[core.ColIdentifier] = r.Identifier
	e[core.ColName] = c.Name()
	e[core.ColDate] = shortDate
	e[core.ColAmount] = core.StripToNumericText(r.AmountRaw)
	e[core.ColConcept] = paymentType
	e[core.ColTypeCode] = classify.TypeCode(paymentType)
	e[core.ColInstallmentNumber] = strconv.Itoa(book.PriorPayments(c, period) + 1)
	e[core.ColInstallmentCount] = c.InstallmentCountText()
	e[core.ColPortfolio] = ledger.CanonicalPortfolio(c.Portfolio())
	e[core.ColOperator] = c.Operator()
	e[core.ColEntity] = channel.DetectKnownEntities(c.Portfolio())
	e[core.ColDestination] = destination
	e[core.ColBusinessDay] = businessDay
	e[core.ColContractID] = c.ID()
	e[core.ColDocType] = "1"
	e[core.ColDocNumber] = r.Identifier
	e[core.ColPaymentDate] = shortDate
	e[core.ColPaymentAmount] = core.StripToIntegerText(r.AmountRaw)
	e[core.ColChannelCode] = strconv.Itoa(channel.Code(destination))
	return e
}

func statusForError(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidIdentifier):
		return "DNI inválido en archivo"
	case errors.Is(err, core.ErrNoContractMatch):
		return "No existe en PRO"
	case errors.Is(err, core.ErrInvalidDate):
		return "Fecha inválida"
	default:
		return "Error: " + err.Error()
	}
}
