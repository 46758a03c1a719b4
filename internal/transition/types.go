// Package transition classifies the change between two consecutive
// observations of a person into a household event, and aggregates the
// resulting records into rates and summaries.
package transition

import (
	"fmt"
	"strings"

	"psidpanel/internal/panel"
)

// Type is a household transition kind.
type Type string

const (
	SameHousehold Type = "same_household"
	Marriage      Type = "marriage"
	Widowhood     Type = "widowhood"
	Divorce       Type = "divorce"
	LeaveParental Type = "leave_parental"
	Splitoff      Type = "splitoff"
	JoinHousehold Type = "join_household"
	OtherMove     Type = "other"
)

// Types lists every kind in rule priority order.
func Types() []Type {
	return []Type{SameHousehold, Marriage, Widowhood, Divorce, LeaveParental, Splitoff, JoinHousehold, OtherMove}
}

// ParseType accepts a kind name case-insensitively.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transition type %q", raw)
}

// Marital is the head's marital status code. Zero means unknown.
type Marital int

const (
	MaritalUnknown Marital = iota
	Married
	NeverMarried
	Widowed
	Divorced
	Separated
)

// Known reports whether m is one of the five defined statuses.
func (m Marital) Known() bool { return m >= Married && m <= Separated }

// MaritalFromCode converts a raw status code; 8, 9 and anything else
// outside 1-5 become MaritalUnknown.
func MaritalFromCode(code int) Marital {
	m := Marital(code)
	if !m.Known() {
		return MaritalUnknown
	}
	return m
}

// Input is everything the classifier looks at for one pair of waves.
type Input struct {
	HouseholdFrom    int64
	HouseholdTo      int64
	RelationshipFrom panel.Relationship
	RelationshipTo   panel.Relationship
	MaritalFrom      Marital
	MaritalTo        Marital
	AgeFrom          *float64
	AgeTo            *float64
}

// HouseholdChanged reports whether the person is in a different household unit.
func (in Input) HouseholdChanged() bool { return in.HouseholdFrom != in.HouseholdTo }

func (in Input) maritalShift() bool {
	return in.MaritalFrom.Known() && in.MaritalTo.Known() && in.MaritalFrom != in.MaritalTo
}

// unexplainedMaritalShift is a status change that ends in neither
// marriage nor divorce.
func (in Input) unexplainedMaritalShift() bool {
	return in.maritalShift() && in.MaritalTo != Married && in.MaritalTo != Divorced
}

func (in Input) roleShift() bool {
	return in.RelationshipFrom.Known() && in.RelationshipTo.Known() && in.RelationshipFrom != in.RelationshipTo
}

// Record is one classified transition.
type Record struct {
	PersonID         int64              `json:"person_id"`
	YearFrom         int                `json:"year_from"`
	YearTo           int                `json:"year_to"`
	Type             Type               `json:"type"`
	HouseholdFrom    int64              `json:"hh_from"`
	HouseholdTo      int64              `json:"hh_to"`
	RelationshipFrom panel.Relationship `json:"relationship_from"`
	RelationshipTo   panel.Relationship `json:"relationship_to"`
	MaritalFrom      Marital            `json:"marital_from"`
	MaritalTo        Marital            `json:"marital_to"`
	AgeFrom          *float64           `json:"age_from"`
	AgeTo            *float64           `json:"age_to"`
	HouseholdChanged bool               `json:"hh_changed"`
	// Ambiguous marks OTHER results where role and marital status both
	// changed; these are worth inspecting by hand.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Record field names accepted by ComputeRates.
const (
	FieldPersonID         = "person_id"
	FieldYearFrom         = "year_from"
	FieldYearTo           = "year_to"
	FieldType             = "type"
	FieldHouseholdFrom    = "hh_from"
	FieldHouseholdTo      = "hh_to"
	FieldRelationshipFrom = "relationship_from"
	FieldRelationshipTo   = "relationship_to"
	FieldMaritalFrom      = "marital_from"
	FieldMaritalTo        = "marital_to"
	FieldAgeFrom          = "age_from"
	FieldAgeTo            = "age_to"
	FieldHouseholdChanged = "hh_changed"
)

// Fields lists the record columns in output order.
func Fields() []string {
	return []string{
		FieldPersonID, FieldYearFrom, FieldYearTo, FieldType, FieldHouseholdFrom, FieldHouseholdTo,
		FieldRelationshipFrom, FieldRelationshipTo, FieldMaritalFrom, FieldMaritalTo,
		FieldAgeFrom, FieldAgeTo, FieldHouseholdChanged,
	}
}

// Field returns the named field; unknown codes and ages are nil.
func (r Record) Field(name string) (any, error) {
	switch name {
	case FieldPersonID:
		return r.PersonID, nil
	case FieldYearFrom:
		return r.YearFrom, nil
	case FieldYearTo:
		return r.YearTo, nil
	case FieldType:
		return string(r.Type), nil
	case FieldHouseholdFrom:
		return r.HouseholdFrom, nil
	case FieldHouseholdTo:
		return r.HouseholdTo, nil
	case FieldRelationshipFrom:
		return relationshipCell(r.RelationshipFrom), nil
	case FieldRelationshipTo:
		return relationshipCell(r.RelationshipTo), nil
	case FieldMaritalFrom:
		return maritalCell(r.MaritalFrom), nil
	case FieldMaritalTo:
		return maritalCell(r.MaritalTo), nil
	case FieldAgeFrom:
		return floatCell(r.AgeFrom), nil
	case FieldAgeTo:
		return floatCell(r.AgeTo), nil
	case FieldHouseholdChanged:
		return r.HouseholdChanged, nil
	}
	return nil, UnknownFieldError{Field: name}
}

func relationshipCell(r panel.Relationship) any {
	if !r.Known() {
		return nil
	}
	return int(r)
}

func maritalCell(m Marital) any {
	if !m.Known() {
		return nil
	}
	return int(m)
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// UnknownFieldError reports a grouping field that records do not carry.
type UnknownFieldError struct {
	Field string
}

func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown transition field %q", e.Field)
}
