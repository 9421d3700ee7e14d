package pipeline

import (
	"context"
	"fmt"

	"conciliador/internal/log"
	"conciliador/internal/sheets"
)

// CopyHistory appends the first columns of every raw receipt row to the
// history collection, creating it with the raw header when missing.
func (p *Pipeline) CopyHistory(ctx context.Context) error {
	logger := p.logger.WithComponent(log.ComponentHistory)
	rows, err := sheets.ReadOptional(ctx, p.store, p.names.Raw)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.names.Raw, err)
	}
	if len(rows) <= 1 {
		logger.InfoContext(ctx, "No rows to copy")
		return nil
	}

	header := truncate(rows[0], historyWidth)
	data := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		data = append(data, truncate(r, historyWidth))
	}

	if err := p.store.EnsureCollection(ctx, p.names.History, header); err != nil {
		return fmt.Errorf("ensure %s: %w", p.names.History, err)
	}
	if err := p.store.AppendRows(ctx, p.names.History, data); err != nil {
		return fmt.Errorf("append to %s: %w", p.names.History, err)
	}
	logger.InfoContext(ctx, "History copied", "rows", len(data))
	return nil
}

func truncate(row []string, n int) []string {
	if len(row) > n {
		row = row[:n]
	}
	return append([]string(nil), row...)
}
