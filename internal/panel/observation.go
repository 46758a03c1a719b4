package panel

import (
	"maps"

	"psidpanel/internal/sample"
)

// NoSequence marks waves whose individual file carries no sequence column.
const NoSequence = -1

// Spine field names, usable wherever a column name is accepted.
const (
	FieldPersonID     = "person_id"
	FieldYear         = "year"
	FieldHousehold    = "household_id"
	FieldSequence     = "sequence"
	FieldRelationship = "relationship"
	FieldFamilyID     = "family_id"
	FieldPersonNumber = "person_number"
	FieldSample       = "sample"
)

var spineFields = map[string]bool{
	FieldPersonID: true, FieldYear: true, FieldHousehold: true, FieldSequence: true,
	FieldRelationship: true, FieldFamilyID: true, FieldPersonNumber: true, FieldSample: true,
}

// IsSpineField reports whether name is reserved for the id/time spine.
func IsSpineField(name string) bool { return spineFields[name] }

// Observation is one person in one survey year. Values holds the canonical
// value columns; a missing value is an absent key.
type Observation struct {
	PersonID     int64              `json:"person_id"`
	Year         int                `json:"year"`
	HouseholdID  int64              `json:"household_id"`
	Sequence     int                `json:"sequence"`
	Relationship Relationship       `json:"relationship"`
	FamilyID     int64              `json:"family_id"`
	PersonNumber int                `json:"person_number"`
	Sample       sample.Type        `json:"sample,omitempty"`
	Values       map[string]float64 `json:"values,omitempty"`
}

// PersonID derives the durable person identifier from the 1968 family id
// and person number.
func PersonID(familyID int64, personNumber int) int64 {
	return familyID*1000 + int64(personNumber)
}

// Valid reports whether the person was enumerated that year.
func (o Observation) Valid() bool { return o.Sequence != 0 }

// IsHead reports headship, falling back to the relationship code in waves
// without a sequence number.
func (o Observation) IsHead() bool {
	if o.Sequence == NoSequence {
		return o.Relationship == Head
	}
	return o.Sequence == 1
}

// Value returns a value column.
func (o Observation) Value(column string) (float64, bool) {
	v, ok := o.Values[column]
	return v, ok
}

// Field returns a spine field or value column as a number. The sample tag
// is not numeric and is never returned here.
func (o Observation) Field(name string) (float64, bool) {
	switch name {
	case FieldPersonID:
		return float64(o.PersonID), true
	case FieldYear:
		return float64(o.Year), true
	case FieldHousehold:
		return float64(o.HouseholdID), true
	case FieldSequence:
		return float64(o.Sequence), true
	case FieldRelationship:
		if !o.Relationship.Known() {
			return 0, false
		}
		return float64(o.Relationship), true
	case FieldFamilyID:
		return float64(o.FamilyID), true
	case FieldPersonNumber:
		return float64(o.PersonNumber), true
	}
	return o.Value(name)
}

// Clone returns a copy that shares no maps with o.
func (o Observation) Clone() Observation {
	o.Values = maps.Clone(o.Values)
	return o
}
