package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"conciliador/internal/channel"
	"conciliador/internal/core"
	"conciliador/internal/ledger"
	"conciliador/internal/log"
)

// HonorariumResult counts the outcome of one honorarium pass.
type HonorariumResult struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	NoBase     int `json:"no_base"`
}

type honorariumItem struct {
	index      int
	identifier string
	date       core.DateParts
	amountRaw  string
}

// Honorariums clones, for every honorarium receipt, the latest ledger row
// of its identifier in the receipt period (or the period before) with the
// receipt amount and the honorarium flag set.
func (p *Pipeline) Honorariums(ctx context.Context, receipts []core.Receipt) (HonorariumResult, error) {
	logger := p.logger.WithComponent(log.ComponentHonorarium)
	var res HonorariumResult

	statuses := make([]string, len(receipts))
	groups := make(map[int][]honorariumItem)
	var order []core.Period
	for i, r := range receipts {
		id := core.ExtractHonorariumIdentifier(r.SourceLabel)
		if id == "" {
			continue
		}
		date, err := core.ParseFlexibleDate(r.DateRaw)
		if err != nil {
			statuses[i] = "Fecha inválida"
			logger.WarnContext(ctx, "Honorarium rejected", log.NewFields().WithRow(r.Row+2, id).WithError(err).ToSlice()...)
			continue
		}
		period := date.Period()
		if _, ok := groups[period.Key()]; !ok {
			order = append(order, period)
		}
		groups[period.Key()] = append(groups[period.Key()], honorariumItem{index: i, identifier: id, date: date, amountRaw: r.AmountRaw})
	}
	if len(order) == 0 {
		logger.InfoContext(ctx, "No honorarium receipts")
		return res, nil
	}

	queued := make(map[int][][]string)
	for _, period := range order {
		current, err := ledger.LoadPeriod(ctx, p.store, period)
		if err != nil {
			return res, err
		}
		seen := current.HonorariumKeys()
		var previous *ledger.PeriodLedger

		for _, it := range groups[period.Key()] {
			amount := core.StripToIntegerText(it.amountRaw)
			key := ledger.HonorariumKey(it.identifier, it.date.Day, it.date.MonthIdx, amount)
			if _, dup := seen[key]; dup {
				statuses[it.index] = "Honorario duplicado"
				res.Duplicates++
				continue
			}

			base, ok := current.LatestByIdentifier(it.identifier)
			if !ok {
				if previous == nil {
					if previous, err = ledger.LoadPeriod(ctx, p.store, period.Previous()); err != nil {
						return res, err
					}
				}
				base, ok = previous.LatestByIdentifier(it.identifier)
			}
			if !ok {
				statuses[it.index] = "Sin registro base"
				res.NoBase++
				logger.WarnContext(ctx, "Honorarium without base record",
					log.NewFields().WithRow(receipts[it.index].Row+2, it.identifier).WithError(core.ErrNoBaseRecord).ToSlice()...)
				continue
			}

			queued[period.Key()] = append(queued[period.Key()], honorariumRow(base, it.date, it.amountRaw).Row())
			seen[key] = struct{}{}
			statuses[it.index] = fmt.Sprintf("Honorario OK (%s)", period.SheetName())
			res.Processed++
		}
	}

	if err := p.appendGrouped(ctx, order, queued); err != nil {
		return res, err
	}
	p.writeStatuses(ctx, StatusColHonorarium, statuses)

	logger.InfoContext(ctx, "Honorariums processed", "processed", res.Processed, "duplicates", res.Duplicates, "no_base", res.NoBase)
	return res, nil
}

// honorariumRow copies base with the date and amount fields of the receipt,
// the bank destination and the honorarium flag. Writing the receipt date
// keeps the honorarium dedup key stable across runs.
func honorariumRow(base core.LedgerEntry, date core.DateParts, amountRaw string) core.LedgerEntry {
	e := base
	integer := core.StripToIntegerText(amountRaw)
	short := core.FormatShortDate(date.Day, date.MonthIdx)
	e[core.ColDate] = short
	e[core.ColPaymentDate] = short
	e[core.ColAmount] = core.StripToNumericText(amountRaw)
	e[core.ColPaymentAmount] = integer
	e[core.ColMango] = integer
	e[core.ColTransferred] = ""
	e[core.ColHonorarium] = "TRUE"
	e[core.ColDestination] = channel.DestBank
	e[core.ColChannelCode] = strconv.Itoa(channel.Code(channel.DestBank))
	return e
}
