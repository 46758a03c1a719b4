package transition

import "psidpanel/internal/panel"

// Rule is one entry of the decision list.
type Rule struct {
	Name   string
	Match  func(Input) bool
	Result Type
}

// rules is evaluated top to bottom; the first match wins. Marital signals
// come before role signals, and child-to-head before the general
// non-head-to-head rule. A role change into or out of headship that comes
// with a marital change other than marriage or divorce is OTHER. The last
// rule always matches.
var rules = []Rule{
	{
		Name:   "same_household",
		Match:  func(in Input) bool { return !in.HouseholdChanged() },
		Result: SameHousehold,
	},
	{
		Name: "became_spouse_and_married",
		Match: func(in Input) bool {
			return in.RelationshipTo == panel.Spouse && in.RelationshipFrom != panel.Spouse && in.MaritalTo == Married
		},
		Result: Marriage,
	},
	{
		Name: "married_to_widowed",
		Match: func(in Input) bool {
			return in.MaritalFrom == Married && in.MaritalTo == Widowed && in.HouseholdChanged()
		},
		Result: Widowhood,
	},
	{
		Name: "married_to_divorced",
		Match: func(in Input) bool {
			return in.MaritalFrom == Married && in.MaritalTo == Divorced && in.HouseholdChanged()
		},
		Result: Divorce,
	},
	{
		Name: "child_to_head",
		Match: func(in Input) bool {
			return in.RelationshipFrom == panel.Child && in.RelationshipTo == panel.Head
		},
		Result: LeaveParental,
	},
	{
		Name: "non_head_to_head",
		Match: func(in Input) bool {
			return in.RelationshipFrom != panel.Head && in.RelationshipTo == panel.Head &&
				in.HouseholdChanged() && !in.unexplainedMaritalShift()
		},
		Result: Splitoff,
	},
	{
		Name: "head_to_non_head",
		Match: func(in Input) bool {
			return in.RelationshipFrom == panel.Head && in.RelationshipTo.Known() &&
				in.RelationshipTo != panel.Head && in.HouseholdChanged() && !in.unexplainedMaritalShift()
		},
		Result: JoinHousehold,
	},
	{
		Name:   "household_changed",
		Match:  func(in Input) bool { return in.HouseholdChanged() },
		Result: OtherMove,
	},
	{
		Name:   "fallback",
		Match:  func(Input) bool { return true },
		Result: SameHousehold,
	},
}

// Rules returns the decision list in evaluation order.
func Rules() []Rule { return append([]Rule(nil), rules...) }

// Classify returns the result of the first matching rule.
func Classify(in Input) Type {
	t, _ := classify(in)
	return t
}

func classify(in Input) (Type, string) {
	for _, r := range rules {
		if r.Match(in) {
			return r.Result, r.Name
		}
	}
	return SameHousehold, "fallback"
}
