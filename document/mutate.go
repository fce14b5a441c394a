package document

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a row index does not exist.
var ErrIndexOutOfRange = errors.New("row index out of range")

// ErrUnknownColumn is returned when a column name is not recognized.
var ErrUnknownColumn = errors.New("unknown column")

// defaultCell returns the value a freshly added row gets in the named column.
func defaultCell(column string) string {
	switch column {
	case "method":
		return "GET"
	case "frontState", "backState":
		return StateNotStarted
	default:
		return ""
	}
}

// AddRow returns a copy of d with one default-valued row appended to every
// column. The shape invariant holds by construction.
func AddRow(d Document) Document {
	out := d.Clone()
	cols := out.columns()
	for i, col := range cols {
		*col = append(*col, defaultCell(Columns[i]))
	}
	return out
}

// DeleteRow returns a copy of d with row index removed from every column.
func DeleteRow(d Document, index int) (Document, error) {
	if index < 0 || index >= d.Rows() {
		return Document{}, fmt.Errorf("delete row %d of %d: %w", index, d.Rows(), ErrIndexOutOfRange)
	}
	out := d.Clone()
	for _, col := range out.columns() {
		*col = append((*col)[:index], (*col)[index+1:]...)
	}
	return out, nil
}

// SetCell returns a copy of d with the single value at (column, row) replaced.
// No value validation is applied; the edit surface constrains enumerated
// columns through its option lists.
func SetCell(d Document, column string, row int, value string) (Document, error) {
	out := d.Clone()
	col := out.Column(column)
	if col == nil {
		return Document{}, fmt.Errorf("set cell in %q: %w", column, ErrUnknownColumn)
	}
	if row < 0 || row >= len(*col) {
		return Document{}, fmt.Errorf("set cell %s[%d] of %d: %w", column, row, len(*col), ErrIndexOutOfRange)
	}
	(*col)[row] = value
	return out, nil
}
