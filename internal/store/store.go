// Package store holds helpers shared by the Tabular Store backends in its
// subpackages. It must not import database drivers or concrete clients.
package store

import (
	"errors"
	"fmt"
)

// ErrNotOpen is returned when a store is used before Open or after Close.
var ErrNotOpen = errors.New("store is not open")

// TrimTrailingEmpty drops trailing blank cells, matching how spreadsheet
// APIs report a column or row.
func TrimTrailingEmpty(values []string) []string {
	end := len(values)
	for end > 0 && values[end-1] == "" {
		end--
	}
	return values[:end]
}

// ValidateIndex rejects non-positive row or column indices.
func ValidateIndex(row, col int) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell index (%d, %d): rows and columns start at 1", row, col)
	}
	return nil
}
