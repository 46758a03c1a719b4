package panel

// Relationship is a person's role relative to the household head, on the
// one-digit scale used throughout the panel. Zero means unknown.
type Relationship int

const (
	RelationshipUnknown Relationship = iota
	Head
	Spouse
	Child
	Sibling
	Parent
	Grandchild
	OtherRelative
	Nonrelative
	OtherRole
)

var relationshipNames = [...]string{"unknown", "head", "spouse", "child", "sibling", "parent", "grandchild", "other_relative", "nonrelative", "other"}

func (r Relationship) String() string {
	if r < 0 || int(r) >= len(relationshipNames) {
		return "unknown"
	}
	return relationshipNames[r]
}

// Known reports whether r is one of the nine defined roles.
func (r Relationship) Known() bool { return r >= Head && r <= OtherRole }

// NormalizeRelationship maps a raw individual-file code onto the one-digit
// scale. Codes 1-9 pass through; two-digit codes (1983 onward) map by their
// tens digit, except 88 (first-year cohabitor) which counts as a partner.
func NormalizeRelationship(code int) Relationship {
	switch {
	case code >= 1 && code <= 9:
		return Relationship(code)
	case code == 88:
		return Spouse
	case code >= 10 && code <= 99:
		return Relationship(code / 10)
	default:
		return RelationshipUnknown
	}
}
