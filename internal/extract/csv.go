package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Selector decides which columns to materialise. A nil Selector keeps all.
type Selector func(col string) bool

// Columns builds a Selector over upper-cased names.
func Columns(names ...string) Selector {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToUpper(strings.TrimSpace(n))] = struct{}{}
	}
	return func(col string) bool {
		_, ok := set[col]
		return ok
	}
}

// ReadCSV parses a comma separated extract with a header row. The first
// column is always kept because it carries the interview number when no
// better linkage column is known.
func ReadCSV(r io.Reader, name string, sel Selector) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty extract", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	var (
		names   []string
		indices []int
	)
	for i, h := range header {
		col := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if i == 0 || sel == nil || sel(col) {
			names = append(names, col)
			indices = append(indices, i)
		}
	}
	frame, err := NewFrame(name, names)
	if err != nil {
		return nil, err
	}
	row := make([]float64, len(indices))
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		for j, idx := range indices {
			row[j] = ParseCell(record[idx])
		}
		if err := frame.Append(row...); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
