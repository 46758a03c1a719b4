package panel

import (
	"math"

	"psidpanel/internal/table"
)

// ColumnStats describes one value column within one year. Mean, Min and Max
// are meaningful only when N > 0, Std only when N > 1.
type ColumnStats struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// YearSummary aggregates one survey year.
type YearSummary struct {
	Year    int                    `json:"year"`
	Count   int                    `json:"count"`
	Columns map[string]ColumnStats `json:"columns"`
}

// Summary returns one row per year with descriptive statistics for every
// value column over that year's non-missing values.
func (p *Panel) Summary() []YearSummary {
	years := p.Years()
	index := make(map[int]int, len(years))
	out := make([]YearSummary, len(years))
	sums := make([]map[string]*accumulator, len(years))
	for i, y := range years {
		index[y] = i
		out[i] = YearSummary{Year: y, Columns: make(map[string]ColumnStats, len(p.columns))}
		sums[i] = make(map[string]*accumulator, len(p.columns))
		for _, c := range p.columns {
			sums[i][c] = &accumulator{}
		}
	}
	for _, o := range p.obs {
		i := index[o.Year]
		out[i].Count++
		for _, c := range p.columns {
			if v, ok := o.Values[c]; ok {
				sums[i][c].add(v)
			}
		}
	}
	for i := range out {
		for c, acc := range sums[i] {
			out[i].Columns[c] = acc.stats()
		}
	}
	return out
}

// accumulator uses Welford's update so large incomes do not lose precision.
type accumulator struct {
	n        int
	mean, m2 float64
	min, max float64
}

func (a *accumulator) add(v float64) {
	a.n++
	if a.n == 1 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	d := v - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (v - a.mean)
}

func (a *accumulator) stats() ColumnStats {
	s := ColumnStats{N: a.n}
	if a.n == 0 {
		return s
	}
	s.Mean, s.Min, s.Max = a.mean, a.min, a.max
	if a.n > 1 {
		s.Std = math.Sqrt(a.m2 / float64(a.n-1))
	}
	return s
}

// SummaryTable flattens Summary into year, count and per-column
// {col}_n/_mean/_std/_min/_max cells; undefined statistics are nil.
func (p *Panel) SummaryTable() *table.Table {
	cols := []string{FieldYear, "count"}
	for _, c := range p.columns {
		cols = append(cols, c+"_n", c+"_mean", c+"_std", c+"_min", c+"_max")
	}
	t := table.New("summary", cols...)
	for _, ys := range p.Summary() {
		row := []any{ys.Year, ys.Count}
		for _, c := range p.columns {
			s := ys.Columns[c]
			if s.N == 0 {
				row = append(row, 0, nil, nil, nil, nil)
				continue
			}
			var std any
			if s.N > 1 {
				std = s.Std
			}
			row = append(row, s.N, s.Mean, std, s.Min, s.Max)
		}
		t.Append(row...)
	}
	return t
}
