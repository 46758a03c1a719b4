package panel

import (
	"sort"

	"psidpanel/internal/table"
)

// Coverage gap reasons.
const (
	// ReasonNoCode: the variable has no source code for the year.
	ReasonNoCode = "no_code"
	// ReasonColumnAbsent: a code exists but the extract lacks the column.
	ReasonColumnAbsent = "column_absent"
	// ReasonHeadshipUnknown: heads-only was requested but the wave has
	// neither a sequence nor a relationship column, so no rows were dropped.
	ReasonHeadshipUnknown = "headship_unknown"
)

// CoverageGap records a variable left all-missing for one year, or a
// filter that could not be applied to it.
type CoverageGap struct {
	Variable string `json:"variable"`
	Year     int    `json:"year"`
	Source   string `json:"source,omitempty"`
	Code     string `json:"code,omitempty"`
	Reason   string `json:"reason"`
}

type gapKey struct {
	variable string
	year     int
}

func sortGaps(gaps []CoverageGap) []CoverageGap {
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Year != gaps[j].Year {
			return gaps[i].Year < gaps[j].Year
		}
		return gaps[i].Variable < gaps[j].Variable
	})
	return gaps
}

// CoverageTable reports, per value column and observed year, how many
// observations carry a value, joined with any recorded gap.
func (p *Panel) CoverageTable() *table.Table {
	gaps := make(map[gapKey]CoverageGap, len(p.coverage))
	for _, g := range p.coverage {
		gaps[gapKey{g.Variable, g.Year}] = g
	}
	t := table.New("coverage", "variable", FieldYear, "observations", "non_missing", "reason", "source", "code")
	summary := p.Summary()
	for _, c := range p.columns {
		for _, ys := range summary {
			var reason, source, code any
			if g, ok := gaps[gapKey{c, ys.Year}]; ok {
				reason, source, code = g.Reason, g.Source, g.Code
			}
			t.Append(c, ys.Year, ys.Count, ys.Columns[c].N, reason, source, code)
		}
	}
	return t
}
