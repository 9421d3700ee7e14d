package memory

import (
	"context"
	"fmt"
	"sync"

	"conciliador/internal/sheets"
)

// Store is an in-memory spreadsheet: collection name -> rows, header included.
type Store struct {
	mu          sync.Mutex
	collections map[string][][]string
	order       []string
	appendCalls int
}

var _ sheets.Store = (*Store)(nil)

func New() *Store {
	return &Store{collections: map[string][][]string{}}
}

// Seed replaces a collection with a copy of rows.
func (s *Store) Seed(name string, rows [][]string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.order = append(s.order, name)
	}
	s.collections[name] = cloneRows(rows)
	return s
}

// Rows returns a copy of a collection, or nil when missing.
func (s *Store) Rows(name string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.collections[name])
}

// Collections lists collection names in creation order.
func (s *Store) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// AppendCalls counts AppendRows round trips.
func (s *Store) AppendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendCalls
}

func (s *Store) ReadRows(_ context.Context, collection string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheets.ErrCollectionNotFound, collection)
	}
	return cloneRows(rows), nil
}

func (s *Store) AppendRows(_ context.Context, collection string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("%w: %s", sheets.ErrCollectionNotFound, collection)
	}
	s.appendCalls++
	s.collections[collection] = append(s.collections[collection], cloneRows(rows)...)
	return nil
}

func (s *Store) UpdateRanges(_ context.Context, collection string, updates []sheets.RangeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", sheets.ErrCollectionNotFound, collection)
	}
	for _, u := range updates {
		at, err := sheets.ParseRange(u.Range)
		if err != nil {
			return err
		}
		for i, vals := range u.Values {
			r := at.Row + i
			for len(rows) <= r {
				rows = append(rows, nil)
			}
			for j, v := range vals {
				c := at.Col + j
				for len(rows[r]) <= c {
					rows[r] = append(rows[r], "")
				}
				rows[r][c] = v
			}
		}
	}
	s.collections[collection] = rows
	return nil
}

func (s *Store) EnsureCollection(_ context.Context, name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil
	}
	s.order = append(s.order, name)
	s.collections[name] = [][]string{append([]string(nil), header...)}
	return nil
}

func cloneRows(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = append([]string(nil), r...)
	}
	return out
}
