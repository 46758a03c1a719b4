// Package extract reads PSID family, individual and wealth extracts from
// object storage into columnar frames. It understands comma separated
// exports (optionally gzipped) and the fixed-width text files PSID ships
// with a Stata .do dictionary.
package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frame is a columnar numeric table. Column names are upper-case source
// codes; missing or non-numeric cells are NaN.
type Frame struct {
	name    string
	columns []string
	index   map[string]int
	data    [][]float64
	rows    int
}

// NewFrame returns an empty frame with the given columns.
func NewFrame(name string, columns []string) (*Frame, error) {
	f := &Frame{name: name, index: make(map[string]int, len(columns))}
	for _, col := range columns {
		col = strings.ToUpper(strings.TrimSpace(col))
		if col == "" {
			return nil, fmt.Errorf("%s: empty column name", name)
		}
		if _, dup := f.index[col]; dup {
			return nil, fmt.Errorf("%s: duplicate column %s", name, col)
		}
		f.index[col] = len(f.columns)
		f.columns = append(f.columns, col)
		f.data = append(f.data, nil)
	}
	return f, nil
}

// Append adds one row; values are positional.
func (f *Frame) Append(values ...float64) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("%s: row has %d values, want %d", f.name, len(values), len(f.columns))
	}
	for i, v := range values {
		f.data[i] = append(f.data[i], v)
	}
	f.rows++
	return nil
}

// Name identifies the frame's source, usually the object key.
func (f *Frame) Name() string { return f.name }

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns column names in file order.
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// First returns the name of the first column, or "" for a frame without columns.
func (f *Frame) First() string {
	if len(f.columns) == 0 {
		return ""
	}
	return f.columns[0]
}

// Has reports whether col exists.
func (f *Frame) Has(col string) bool {
	_, ok := f.index[strings.ToUpper(col)]
	return ok
}

// Value returns the cell at (col, row); ok is false for a missing column,
// an out-of-range row or a missing value.
func (f *Frame) Value(col string, row int) (float64, bool) {
	i, ok := f.index[strings.ToUpper(col)]
	if !ok || row < 0 || row >= f.rows {
		return 0, false
	}
	v := f.data[i][row]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Int returns the cell truncated to int64.
func (f *Frame) Int(col string, row int) (int64, bool) {
	v, ok := f.Value(col, row)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// Missing is the in-frame marker for an absent value.
var Missing = math.NaN()

// ParseCell converts a raw cell to a number; blanks and non-numeric text
// become Missing.
func ParseCell(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return Missing
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Missing
	}
	return v
}
