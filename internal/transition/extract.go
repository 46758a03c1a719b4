package transition

import (
	"psidpanel/internal/metrics"
	"psidpanel/internal/panel"
)

// Default value columns read by Extract when Options leave them empty.
const (
	DefaultMaritalColumn = "marital_status"
	DefaultAgeColumn     = "age"
)

// Options names where Extract reads each classifier input. Empty household
// and relationship columns mean the panel spine; empty marital and age
// columns mean the defaults above, which may be absent from the panel.
// A column named explicitly must exist.
type Options struct {
	HouseholdColumn    string
	RelationshipColumn string
	MaritalColumn      string
	AgeColumn          string
	// NormalizeRelationship maps raw two-digit relationship codes read from
	// a value column onto the one-digit scale.
	NormalizeRelationship bool
	Metrics               *metrics.Recorder
}

type resolvedOptions struct {
	household, relationship, marital, age string
}

func (o Options) resolve(p *panel.Panel) (resolvedOptions, error) {
	r := resolvedOptions{
		household:    orDefault(o.HouseholdColumn, panel.FieldHousehold),
		relationship: orDefault(o.RelationshipColumn, panel.FieldRelationship),
	}
	for _, c := range []string{r.household, r.relationship} {
		if !p.HasColumn(c) {
			return r, panel.UnknownColumnError{Column: c}
		}
	}
	var err error
	if r.marital, err = optional(p, o.MaritalColumn, DefaultMaritalColumn); err != nil {
		return r, err
	}
	if r.age, err = optional(p, o.AgeColumn, DefaultAgeColumn); err != nil {
		return r, err
	}
	return r, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func optional(p *panel.Panel, explicit, fallback string) (string, error) {
	if explicit == "" {
		if p.HasColumn(fallback) {
			return fallback, nil
		}
		return "", nil
	}
	if !p.HasColumn(explicit) {
		return "", panel.UnknownColumnError{Column: explicit}
	}
	return explicit, nil
}

// Extract classifies every consecutive pair of valid observations in p.
// Records come out in (person, year) order.
func Extract(p *panel.Panel, opts Options) ([]Record, error) {
	cols, err := opts.resolve(p)
	if err != nil {
		return nil, err
	}
	pairs := p.Pairs()
	out := make([]Record, 0, len(pairs))
	for _, pr := range pairs {
		in := Input{
			HouseholdFrom:    household(pr.From, cols.household),
			HouseholdTo:      household(pr.To, cols.household),
			RelationshipFrom: relationship(pr.From, cols.relationship, opts.NormalizeRelationship),
			RelationshipTo:   relationship(pr.To, cols.relationship, opts.NormalizeRelationship),
			MaritalFrom:      marital(pr.From, cols.marital),
			MaritalTo:        marital(pr.To, cols.marital),
			AgeFrom:          number(pr.From, cols.age),
			AgeTo:            number(pr.To, cols.age),
		}
		t := Classify(in)
		out = append(out, Record{
			PersonID:         pr.From.PersonID,
			YearFrom:         pr.From.Year,
			YearTo:           pr.To.Year,
			Type:             t,
			HouseholdFrom:    in.HouseholdFrom,
			HouseholdTo:      in.HouseholdTo,
			RelationshipFrom: in.RelationshipFrom,
			RelationshipTo:   in.RelationshipTo,
			MaritalFrom:      in.MaritalFrom,
			MaritalTo:        in.MaritalTo,
			AgeFrom:          in.AgeFrom,
			AgeTo:            in.AgeTo,
			HouseholdChanged: in.HouseholdChanged(),
			Ambiguous:        t == OtherMove && in.roleShift() && in.maritalShift(),
		})
		opts.Metrics.Transition(string(t))
	}
	return out, nil
}

func household(o panel.Observation, col string) int64 {
	v, _ := o.Field(col)
	return int64(v)
}

func relationship(o panel.Observation, col string, normalize bool) panel.Relationship {
	if col == panel.FieldRelationship {
		return o.Relationship
	}
	v, ok := o.Field(col)
	if !ok {
		return panel.RelationshipUnknown
	}
	if normalize {
		return panel.NormalizeRelationship(int(v))
	}
	if r := panel.Relationship(int(v)); r.Known() {
		return r
	}
	return panel.RelationshipUnknown
}

func marital(o panel.Observation, col string) Marital {
	if col == "" {
		return MaritalUnknown
	}
	v, ok := o.Field(col)
	if !ok {
		return MaritalUnknown
	}
	return MaritalFromCode(int(v))
}

func number(o panel.Observation, col string) *float64 {
	if col == "" {
		return nil
	}
	v, ok := o.Field(col)
	if !ok {
		return nil
	}
	return &v
}
