package transition

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"psidpanel/internal/table"
)

// RateRow is the count and within-group rate of one type. Group holds the
// values of the grouping fields in the order requested; it is empty for
// ungrouped rates.
type RateRow struct {
	Group []any   `json:"group,omitempty"`
	Type  Type    `json:"type"`
	Count int     `json:"count"`
	Total int     `json:"group_total"`
	Rate  float64 `json:"rate"`
}

// ComputeRates counts records per type, optionally within groups formed by
// the distinct combinations of the by fields that occur in records. Groups
// that do not occur are not emitted. Rows are ordered by group, then count
// descending, then type.
func ComputeRates(records []Record, by ...string) ([]RateRow, error) {
	for _, f := range by {
		if _, err := (Record{}).Field(f); err != nil {
			return nil, err
		}
	}
	type bucket struct {
		group  []any
		total  int
		counts map[Type]int
	}
	buckets := map[string]*bucket{}
	var order []*bucket
	for _, r := range records {
		group := make([]any, len(by))
		for i, f := range by {
			group[i], _ = r.Field(f)
		}
		key := groupKey(group)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{group: group, counts: map[Type]int{}}
			buckets[key] = b
			order = append(order, b)
		}
		b.total++
		b.counts[r.Type]++
	}
	slices.SortFunc(order, func(a, b *bucket) int { return compareGroups(a.group, b.group) })

	var out []RateRow
	for _, b := range order {
		rows := make([]RateRow, 0, len(b.counts))
		for t, n := range b.counts {
			row := RateRow{Type: t, Count: n, Total: b.total, Rate: float64(n) / float64(b.total)}
			if len(by) > 0 {
				row.Group = b.group
			}
			rows = append(rows, row)
		}
		slices.SortFunc(rows, func(x, y RateRow) int {
			if c := cmp.Compare(y.Count, x.Count); c != 0 {
				return c
			}
			return cmp.Compare(x.Type, y.Type)
		})
		out = append(out, rows...)
	}
	if out == nil {
		out = []RateRow{}
	}
	return out, nil
}

func groupKey(group []any) string {
	var sb strings.Builder
	for _, v := range group {
		fmt.Fprintf(&sb, "%T:%v|", v, v)
	}
	return sb.String()
}

func compareGroups(a, b []any) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders nil first, then numbers, booleans and strings.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 1:
		return cmp.Compare(toFloat(a), toFloat(b))
	case 2:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 3:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int, int64, float64:
		return 1
	case bool:
		return 2
	default:
		return 3
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// RatesTable renders rate rows in long form.
func RatesTable(rows []RateRow, by ...string) *table.Table {
	cols := append(slices.Clone(by), "type", "count", "group_total", "rate")
	t := table.New("rates", cols...)
	for _, r := range rows {
		cells := make([]any, 0, len(cols))
		if len(by) > 0 {
			cells = append(cells, r.Group...)
		}
		t.Append(append(cells, string(r.Type), r.Count, r.Total, r.Rate)...)
	}
	return t
}

// PivotRates renders one row per group with {type}_count and {type}_rate
// columns for every type seen anywhere in rows; a type absent from a group
// reads zero there.
func PivotRates(rows []RateRow, by ...string) *table.Table {
	var types []Type
	for _, kind := range Types() {
		for _, r := range rows {
			if r.Type == kind {
				types = append(types, kind)
				break
			}
		}
	}
	cols := slices.Clone(by)
	for _, kind := range types {
		cols = append(cols, string(kind)+"_count")
	}
	for _, kind := range types {
		cols = append(cols, string(kind)+"_rate")
	}
	t := table.New("rates_pivot", cols...)
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && compareGroups(rows[end].Group, rows[start].Group) == 0 {
			end++
		}
		counts := map[Type]RateRow{}
		for _, r := range rows[start:end] {
			counts[r.Type] = r
		}
		cells := make([]any, 0, len(cols))
		if len(by) > 0 {
			cells = append(cells, rows[start].Group...)
		}
		for _, kind := range types {
			cells = append(cells, counts[kind].Count)
		}
		for _, kind := range types {
			cells = append(cells, counts[kind].Rate)
		}
		t.Append(cells...)
		start = end
	}
	return t
}

// SummaryRow describes one transition type. Age statistics cover records
// with a known age_from and are nil when there are none.
type SummaryRow struct {
	Type                Type     `json:"type"`
	Count               int      `json:"count"`
	PctHouseholdChanged float64  `json:"pct_hh_changed"`
	MeanAge             *float64 `json:"mean_age"`
	MinAge              *float64 `json:"min_age"`
	MaxAge              *float64 `json:"max_age"`
	PctOfTotal          float64  `json:"pct_of_total"`
}

// Summarize returns one row per occurring type, by count descending.
func Summarize(records []Record) []SummaryRow {
	type acc struct {
		count, changed, aged int
		ageSum               float64
		min, max             float64
	}
	accs := map[Type]*acc{}
	for _, r := range records {
		a, ok := accs[r.Type]
		if !ok {
			a = &acc{}
			accs[r.Type] = a
		}
		a.count++
		if r.HouseholdChanged {
			a.changed++
		}
		if r.AgeFrom != nil {
			age := *r.AgeFrom
			if a.aged == 0 || age < a.min {
				a.min = age
			}
			if a.aged == 0 || age > a.max {
				a.max = age
			}
			a.aged++
			a.ageSum += age
		}
	}
	out := make([]SummaryRow, 0, len(accs))
	for t, a := range accs {
		row := SummaryRow{
			Type:                t,
			Count:               a.count,
			PctHouseholdChanged: float64(a.changed) / float64(a.count),
			PctOfTotal:          float64(a.count) / float64(len(records)),
		}
		if a.aged > 0 {
			mean, lo, hi := a.ageSum/float64(a.aged), a.min, a.max
			row.MeanAge, row.MinAge, row.MaxAge = &mean, &lo, &hi
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(x, y SummaryRow) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Type, y.Type)
	})
	return out
}

// SummaryTable renders Summarize output.
func SummaryTable(rows []SummaryRow) *table.Table {
	t := table.New("transition_summary", "type", "count", "pct_hh_changed", "mean_age", "min_age", "max_age", "pct_of_total")
	for _, r := range rows {
		t.Append(string(r.Type), r.Count, r.PctHouseholdChanged, floatCell(r.MeanAge), floatCell(r.MinAge), floatCell(r.MaxAge), r.PctOfTotal)
	}
	return t
}

// RecordsTable renders records with the columns of Fields.
func RecordsTable(records []Record) *table.Table {
	t := table.New("transitions", Fields()...)
	for _, r := range records {
		cells := make([]any, 0, len(t.Columns))
		for _, f := range t.Columns {
			v, _ := r.Field(f)
			cells = append(cells, v)
		}
		t.Append(cells...)
	}
	return t
}
