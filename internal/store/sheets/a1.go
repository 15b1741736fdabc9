package sheets

import (
	"fmt"
	"strings"
)

// columnName converts a 1-based column index to its A1 letters.
func columnName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellRange(sheet string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), columnName(col), row)
}

func columnRange(sheet string, col int) string {
	name := columnName(col)
	return fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), name, name)
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteSheet(sheet), row, row)
}
