package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Field is one column of a fixed-width layout; Start and End are 1-based
// and inclusive, as written in Stata infix statements.
type Field struct {
	Name  string
	Start int
	End   int
}

var (
	infixBlock = regexp.MustCompile(`(?is)\binfix\b(.*?)\busing\b`)
	infixField = regexp.MustCompile(`(?i)(?:\b(?:long|int|byte|double|float|str\d*)\s+)?\b([A-Za-z_]\w*)\s+(\d+)\s*-\s*(\d+)`)
)

// ParseDictionary extracts the column layout from a Stata .do file.
func ParseDictionary(r io.Reader) ([]Field, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m := infixBlock.FindSubmatch(b)
	if m == nil {
		return nil, fmt.Errorf("no infix specification found")
	}
	var fields []Field
	for _, fm := range infixField.FindAllSubmatch(m[1], -1) {
		start, _ := strconv.Atoi(string(fm[2]))
		end, _ := strconv.Atoi(string(fm[3]))
		if start < 1 || end < start {
			return nil, fmt.Errorf("invalid positions %d-%d for %s", start, end, fm[1])
		}
		fields = append(fields, Field{Name: strings.ToUpper(string(fm[1])), Start: start, End: end})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("infix specification declares no columns")
	}
	return fields, nil
}

// ReadFixedWidth slices each line of r by fields. The first field is always
// kept, mirroring ReadCSV.
func ReadFixedWidth(r io.Reader, name string, fields []Field, sel Selector) (*Frame, error) {
	var keep []Field
	for i, f := range fields {
		if i == 0 || sel == nil || sel(f.Name) {
			keep = append(keep, f)
		}
	}
	names := make([]string, len(keep))
	for i, f := range keep {
		names[i] = f.Name
	}
	frame, err := NewFrame(name, names)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(r, 1<<16)
	row := make([]float64, len(keep))
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) != "" {
				for i, f := range keep {
					row[i] = ParseCell(slice(line, f.Start-1, f.End))
				}
				if aerr := frame.Append(row...); aerr != nil {
					return nil, aerr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return frame, nil
}

func slice(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}
