package panel

import "slices"

// Snapshot is the serialisable form of a Panel used by persistence.
type Snapshot struct {
	Columns      []string      `json:"columns"`
	Observations []Observation `json:"observations"`
	Coverage     []CoverageGap `json:"coverage,omitempty"`
	Waves        []int         `json:"waves,omitempty"`
}

// Snapshot captures p.
func (p *Panel) Snapshot() Snapshot {
	return Snapshot{Columns: p.Columns(), Observations: p.Rows(), Coverage: p.Coverage(), Waves: slices.Clone(p.waves)}
}

// FromSnapshot rebuilds a panel, revalidating its invariants.
func FromSnapshot(s Snapshot) (*Panel, error) {
	p, err := New(s.Columns, s.Observations, s.Coverage...)
	if err != nil {
		return nil, err
	}
	if len(s.Waves) > 0 {
		p.waves = slices.Clone(s.Waves)
	}
	return p, nil
}
