package ledger

import (
	"context"

	"conciliador/internal/core"
	"conciliador/internal/sheets"
)

// DedupIndex answers "is this receipt already recorded" per period. Each
// period collection is read once, on first access.
type DedupIndex struct {
	reader sheets.RowReader
	sets   map[int]map[string]struct{}
}

func NewDedupIndex(r sheets.RowReader) *DedupIndex {
	return &DedupIndex{reader: r, sets: make(map[int]map[string]struct{})}
}

func (d *DedupIndex) load(ctx context.Context, p core.Period) (map[string]struct{}, error) {
	if set, ok := d.sets[p.Key()]; ok {
		return set, nil
	}
	pl, err := LoadPeriod(ctx, d.reader, p)
	if err != nil {
		return nil, err
	}
	set := pl.ReceiptKeys()
	d.sets[p.Key()] = set
	return set, nil
}

// Contains reports whether key is already present in period p.
func (d *DedupIndex) Contains(ctx context.Context, p core.Period, key string) (bool, error) {
	set, err := d.load(ctx, p)
	if err != nil {
		return false, err
	}
	_, ok := set[key]
	return ok, nil
}

// Add records key as present in period p.
func (d *DedupIndex) Add(ctx context.Context, p core.Period, key string) error {
	set, err := d.load(ctx, p)
	if err != nil {
		return err
	}
	set[key] = struct{}{}
	return nil
}
