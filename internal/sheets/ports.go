package sheets

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by readers when a sheet does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// Ports for outbound adapters.
type (
	// RowReader reads a whole collection, header row included.
	// Missing collections yield ErrCollectionNotFound.
	RowReader interface {
		ReadRows(ctx context.Context, collection string) ([][]string, error)
	}

	// RowWriter appends rows at the end of a collection.
	RowWriter interface {
		AppendRows(ctx context.Context, collection string, rows [][]string) error
	}

	// RangeUpdater overwrites the given A1 ranges of one collection in a single batch.
	RangeUpdater interface {
		UpdateRanges(ctx context.Context, collection string, updates []RangeUpdate) error
	}

	// CollectionManager creates a collection with its header when missing.
	CollectionManager interface {
		EnsureCollection(ctx context.Context, name string, header []string) error
	}

	// Store is the tabular storage collaborator used by the pipelines.
	Store interface {
		RowReader
		RowWriter
		RangeUpdater
		CollectionManager
	}

	// RangeUpdate is one rectangular block of values, e.g. Range "E2:E10".
	RangeUpdate struct {
		Range  string
		Values [][]string
	}
)

// ReadOptional reads a collection and maps a missing collection to no rows.
func ReadOptional(ctx context.Context, r RowReader, collection string) ([][]string, error) {
	rows, err := r.ReadRows(ctx, collection)
	if errors.Is(err, ErrCollectionNotFound) {
		return nil, nil
	}
	return rows, err
}

// Column builds a single-column block from values.
func Column(values []string) [][]string {
	out := make([][]string, len(values))
	for i, v := range values {
		out[i] = []string{v}
	}
	return out
}
