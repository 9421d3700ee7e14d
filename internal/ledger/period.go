package ledger

import (
	"context"
	"fmt"
	"strconv"

	"conciliador/internal/core"
	"conciliador/internal/sheets"
)

// PeriodLedger holds the data rows of one period collection.
type PeriodLedger struct {
	Period  core.Period
	Entries []core.LedgerEntry
}

// LoadPeriod reads a period collection. A missing collection is empty.
func LoadPeriod(ctx context.Context, r sheets.RowReader, p core.Period) (*PeriodLedger, error) {
	rows, err := sheets.ReadOptional(ctx, r, p.SheetName())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.SheetName(), err)
	}
	pl := &PeriodLedger{Period: p}
	if len(rows) > 1 {
		pl.Entries = make([]core.LedgerEntry, 0, len(rows)-1)
		for _, row := range rows[1:] {
			pl.Entries = append(pl.Entries, core.EntryFromRow(row))
		}
	}
	return pl, nil
}

// LatestByIdentifier returns the bottom-most entry with the identifier.
func (pl *PeriodLedger) LatestByIdentifier(identifier string) (core.LedgerEntry, bool) {
	for i := len(pl.Entries) - 1; i >= 0; i-- {
		if pl.Entries[i].Identifier() == identifier {
			return pl.Entries[i], true
		}
	}
	return core.LedgerEntry{}, false
}

// ReceiptKeys returns the dedup keys of every entry with a parseable date.
func (pl *PeriodLedger) ReceiptKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(pl.Entries))
	for _, e := range pl.Entries {
		id := e.Identifier()
		day, month, ok := core.ParseShortDayMonth(e[core.ColDate])
		if id == "" || !ok {
			continue
		}
		keys[ReceiptKey(id, day, month)] = struct{}{}
	}
	return keys
}

// HonorariumKeys returns the dedup keys of the entries flagged as honorarium.
func (pl *PeriodLedger) HonorariumKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, e := range pl.Entries {
		id := e.Identifier()
		if id == "" || !e.IsHonorarium() {
			continue
		}
		day, month, ok := core.ParseShortDayMonth(e[core.ColDate])
		if !ok {
			continue
		}
		keys[HonorariumKey(id, day, month, core.StripToIntegerText(e[core.ColPaymentAmount]))] = struct{}{}
	}
	return keys
}

// ReceiptKey identifies a regular receipt within a period.
func ReceiptKey(identifier string, day, monthIdx int) string {
	return identifier + "|" + strconv.Itoa(day) + "|" + strconv.Itoa(monthIdx)
}

// HonorariumKey adds the integer amount to the receipt key.
func HonorariumKey(identifier string, day, monthIdx int, integerAmount string) string {
	return ReceiptKey(identifier, day, monthIdx) + "|" + integerAmount
}
