// Package memory provides an in-memory Tabular Store for dry runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/careers-crawler/internal/store"
)

type cellKey struct {
	row, col int
}

// Store is a sparse grid guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	cells  map[cellKey]string
	maxRow int
	maxCol int
	open   bool
	// OpenErr, when set, is returned by Open.
	OpenErr error
}

// NewStore seeds a grid from rows; rows[0] becomes row 1.
func NewStore(rows [][]string) *Store {
	s := &Store{cells: make(map[cellKey]string)}
	for r, row := range rows {
		for c, value := range row {
			s.set(r+1, c+1, value)
		}
	}
	return s
}

// Open implements crawler.TabularStore.
func (s *Store) Open(context.Context) error {
	if s.OpenErr != nil {
		return s.OpenErr
	}
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

// Close implements crawler.TabularStore.
func (s *Store) Close() error {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}

// ColValues implements crawler.TabularStore.
func (s *Store) ColValues(_ context.Context, col int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(1, col); err != nil {
		return nil, err
	}
	out := make([]string, s.maxRow)
	for r := 1; r <= s.maxRow; r++ {
		out[r-1] = s.cells[cellKey{r, col}]
	}
	return store.TrimTrailingEmpty(out), nil
}

// RowValues implements crawler.TabularStore.
func (s *Store) RowValues(_ context.Context, row int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(row, 1); err != nil {
		return nil, err
	}
	out := make([]string, s.maxCol)
	for c := 1; c <= s.maxCol; c++ {
		out[c-1] = s.cells[cellKey{row, c}]
	}
	return store.TrimTrailingEmpty(out), nil
}

// Cell implements crawler.TabularStore.
func (s *Store) Cell(_ context.Context, row, col int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(row, col); err != nil {
		return "", err
	}
	return s.cells[cellKey{row, col}], nil
}

// UpdateCell implements crawler.TabularStore.
func (s *Store) UpdateCell(_ context.Context, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(row, col); err != nil {
		return err
	}
	s.set(row, col, value)
	return nil
}

// Rows returns a copy of the grid, one slice per row up to the last non-empty row.
func (s *Store) Rows() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([][]string, s.maxRow)
	for r := 1; r <= s.maxRow; r++ {
		row := make([]string, s.maxCol)
		for c := 1; c <= s.maxCol; c++ {
			row[c-1] = s.cells[cellKey{r, c}]
		}
		rows[r-1] = store.TrimTrailingEmpty(row)
	}
	return rows
}

func (s *Store) check(row, col int) error {
	if !s.open {
		return store.ErrNotOpen
	}
	return store.ValidateIndex(row, col)
}

func (s *Store) set(row, col int, value string) {
	s.cells[cellKey{row, col}] = value
	if row > s.maxRow {
		s.maxRow = row
	}
	if col > s.maxCol {
		s.maxCol = col
	}
}
