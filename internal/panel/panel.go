// Package panel holds the long-format person-year panel, its derived views,
// and the builder that assembles it from PSID extracts.
//
// A Panel is immutable. Every view returns a new Panel and never changes
// the receiver, so several views can be derived from one base panel.
package panel

import (
	"fmt"
	"slices"
	"sort"
)

// Panel is an ordered set of observations, unique by (person, year).
type Panel struct {
	columns  []string
	obs      []Observation
	coverage []CoverageGap
	waves    []int // requested by the build; nil for hand-made panels
}

// New validates and orders observations into a panel. Value keys must be
// declared in columns.
func New(columns []string, observations []Observation, coverage ...CoverageGap) (*Panel, error) {
	declared := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("empty column name")
		}
		if IsSpineField(c) {
			return nil, fmt.Errorf("column %q collides with a spine field", c)
		}
		if _, dup := declared[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		declared[c] = struct{}{}
	}
	obs := make([]Observation, len(observations))
	for i, o := range observations {
		for k := range o.Values {
			if _, ok := declared[k]; !ok {
				return nil, UnknownColumnError{Column: k}
			}
		}
		obs[i] = o.Clone()
	}
	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].PersonID != obs[j].PersonID {
			return obs[i].PersonID < obs[j].PersonID
		}
		return obs[i].Year < obs[j].Year
	})
	for i := 1; i < len(obs); i++ {
		if obs[i].PersonID == obs[i-1].PersonID && obs[i].Year == obs[i-1].Year {
			return nil, DuplicateObservationError{PersonID: obs[i].PersonID, Year: obs[i].Year}
		}
	}
	return &Panel{
		columns:  slices.Clone(columns),
		obs:      obs,
		coverage: sortGaps(slices.Clone(coverage)),
	}, nil
}

// derive builds a view over a subset of p's (already ordered) observations.
// Value maps are shared; nothing in this package writes to them after New.
func (p *Panel) derive(obs []Observation) *Panel {
	return &Panel{columns: p.columns, obs: obs, coverage: p.coverage, waves: p.waves}
}

func (p *Panel) where(keep func(Observation) bool) *Panel {
	out := make([]Observation, 0, len(p.obs))
	for _, o := range p.obs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return p.derive(out)
}

// Len returns the number of observations.
func (p *Panel) Len() int { return len(p.obs) }

// Columns returns the value column names.
func (p *Panel) Columns() []string { return slices.Clone(p.columns) }

// Years returns the distinct observed years in ascending order.
func (p *Panel) Years() []int {
	seen := map[int]struct{}{}
	for _, o := range p.obs {
		seen[o.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Waves returns the years the panel was built for, including any that
// ended up with no rows. Panels not produced by a Builder report Years.
func (p *Panel) Waves() []int {
	if p.waves == nil {
		return p.Years()
	}
	return slices.Clone(p.waves)
}

// PersonIDs returns the distinct person ids in ascending order.
func (p *Panel) PersonIDs() []int64 {
	var ids []int64
	for i, o := range p.obs {
		if i == 0 || o.PersonID != p.obs[i-1].PersonID {
			ids = append(ids, o.PersonID)
		}
	}
	return ids
}

// NumIndividuals counts distinct persons.
func (p *Panel) NumIndividuals() int { return len(p.PersonIDs()) }

// Rows returns a copy of every observation in (person, year) order.
func (p *Panel) Rows() []Observation {
	out := make([]Observation, len(p.obs))
	for i, o := range p.obs {
		out[i] = o.Clone()
	}
	return out
}

// Coverage lists the variable-years that could not be filled.
func (p *Panel) Coverage() []CoverageGap { return slices.Clone(p.coverage) }

// Filter keeps observations matching pred.
func (p *Panel) Filter(pred func(Observation) bool) *Panel {
	return p.where(func(o Observation) bool { return pred(o.Clone()) })
}

// CrossSection keeps the observations from year.
func (p *Panel) CrossSection(year int) *Panel {
	return p.where(func(o Observation) bool { return o.Year == year })
}

// LatestCrossSection keeps each person's most recent observation.
func (p *Panel) LatestCrossSection() *Panel {
	out := make([]Observation, 0)
	for i, o := range p.obs {
		if i == len(p.obs)-1 || p.obs[i+1].PersonID != o.PersonID {
			out = append(out, o)
		}
	}
	return p.derive(out)
}

// Balanced keeps persons observed in every one of years; with no years, in
// every wave the panel was built for (see Waves). A requested wave with no
// rows therefore empties the result. Observations in other years are
// retained.
func (p *Panel) Balanced(years ...int) *Panel {
	if len(years) == 0 {
		years = p.Waves()
	}
	required := make(map[int]struct{}, len(years))
	for _, y := range years {
		required[y] = struct{}{}
	}
	keep := map[int64]bool{}
	p.eachPerson(func(id int64, obs []Observation) {
		hits := 0
		for _, o := range obs {
			if _, ok := required[o.Year]; ok {
				hits++
			}
		}
		keep[id] = hits == len(required)
	})
	return p.where(func(o Observation) bool { return keep[o.PersonID] })
}

// MinPeriods keeps persons with at least n observations in any years.
func (p *Panel) MinPeriods(n int) *Panel {
	keep := map[int64]bool{}
	p.eachPerson(func(id int64, obs []Observation) { keep[id] = len(obs) >= n })
	return p.where(func(o Observation) bool { return keep[o.PersonID] })
}

// Individual returns one person's observations by year; unknown ids yield
// an empty slice.
func (p *Panel) Individual(personID int64) []Observation {
	start := sort.Search(len(p.obs), func(i int) bool { return p.obs[i].PersonID >= personID })
	out := []Observation{}
	for i := start; i < len(p.obs) && p.obs[i].PersonID == personID; i++ {
		out = append(out, p.obs[i].Clone())
	}
	return out
}

// Pair is two consecutive valid observations of one person.
type Pair struct {
	From Observation
	To   Observation
}

// Pairs walks each person's valid observations (sequence != 0) and pairs
// every one with the next, across gaps in the person's own years.
func (p *Panel) Pairs() []Pair {
	var out []Pair
	p.eachPerson(func(_ int64, obs []Observation) {
		var prev *Observation
		for i := range obs {
			if !obs[i].Valid() {
				continue
			}
			if prev != nil {
				out = append(out, Pair{From: prev.Clone(), To: obs[i].Clone()})
			}
			prev = &obs[i]
		}
	})
	return out
}

// WavePair carries selected columns at both ends of a Pair. Missing values
// are absent keys.
type WavePair struct {
	PersonID int64              `json:"person_id"`
	YearT    int                `json:"year_t"`
	YearT1   int                `json:"year_t1"`
	T        map[string]float64 `json:"t"`
	T1       map[string]float64 `json:"t1"`
}

// Transitions returns cols at consecutive valid observations of each
// person. With no cols, every value column is used. Spine fields other
// than person_id, year and sample are accepted too.
func (p *Panel) Transitions(cols ...string) ([]WavePair, error) {
	if len(cols) == 0 {
		cols = p.columns
	}
	for _, c := range cols {
		if !p.hasField(c) {
			return nil, UnknownColumnError{Column: c}
		}
	}
	pairs := p.Pairs()
	out := make([]WavePair, 0, len(pairs))
	for _, pr := range pairs {
		wp := WavePair{
			PersonID: pr.From.PersonID,
			YearT:    pr.From.Year,
			YearT1:   pr.To.Year,
			T:        make(map[string]float64, len(cols)),
			T1:       make(map[string]float64, len(cols)),
		}
		for _, c := range cols {
			if v, ok := pr.From.Field(c); ok {
				wp.T[c] = v
			}
			if v, ok := pr.To.Field(c); ok {
				wp.T1[c] = v
			}
		}
		out = append(out, wp)
	}
	return out, nil
}

func (p *Panel) hasField(name string) bool {
	switch name {
	case FieldPersonID, FieldYear, FieldSample:
		return false
	}
	return IsSpineField(name) || slices.Contains(p.columns, name)
}

// HasColumn reports whether name is a value column or numeric spine field.
func (p *Panel) HasColumn(name string) bool {
	return name == FieldPersonID || name == FieldYear || p.hasField(name)
}

func (p *Panel) eachPerson(fn func(id int64, obs []Observation)) {
	for start := 0; start < len(p.obs); {
		end := start + 1
		for end < len(p.obs) && p.obs[end].PersonID == p.obs[start].PersonID {
			end++
		}
		fn(p.obs[start].PersonID, p.obs[start:end])
		start = end
	}
}
