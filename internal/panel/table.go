package panel

import "psidpanel/internal/table"

// Table renders the panel in long format: the spine followed by the value
// columns. The sample column appears only when observations are tagged.
func (p *Panel) Table() *table.Table {
	tagged := false
	for _, o := range p.obs {
		if o.Sample != "" {
			tagged = true
			break
		}
	}
	cols := []string{FieldPersonID, FieldYear, FieldHousehold, FieldSequence, FieldRelationship, FieldFamilyID, FieldPersonNumber}
	if tagged {
		cols = append(cols, FieldSample)
	}
	cols = append(cols, p.columns...)
	t := table.New("panel", cols...)
	for _, o := range p.obs {
		var rel any
		if o.Relationship.Known() {
			rel = int(o.Relationship)
		}
		row := []any{o.PersonID, o.Year, o.HouseholdID, o.Sequence, rel, o.FamilyID, o.PersonNumber}
		if tagged {
			row = append(row, string(o.Sample))
		}
		for _, c := range p.columns {
			if v, ok := o.Values[c]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		t.Append(row...)
	}
	return t
}
