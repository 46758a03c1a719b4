package panel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(pid int64, year int, hh int64, seq int, values map[string]float64) Observation {
	return Observation{
		PersonID:     pid,
		Year:         year,
		HouseholdID:  hh,
		Sequence:     seq,
		Relationship: Head,
		FamilyID:     pid / 1000,
		PersonNumber: int(pid % 1000),
		Values:       values,
	}
}

// gapPanel: 1001 observed every year, 1002 observed in 2017 and 2021 only.
func gapPanel(t *testing.T) *Panel {
	t.Helper()
	p, err := New([]string{"income"}, []Observation{
		obs(1002, 2021, 31, 1, map[string]float64{"income": 20000}),
		obs(1001, 2019, 20, 1, map[string]float64{"income": 50000}),
		obs(1001, 2017, 10, 1, nil),
		obs(1002, 2017, 10, 2, map[string]float64{"income": 1}),
		obs(1001, 2021, 30, 1, map[string]float64{"income": 60000}),
	})
	require.NoError(t, err)
	return p
}

func TestNewOrdersByPersonThenYear(t *testing.T) {
	p := gapPanel(t)
	rows := p.Rows()
	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		assert.True(t, prev.PersonID < cur.PersonID || (prev.PersonID == cur.PersonID && prev.Year < cur.Year))
	}
	assert.Equal(t, []int{2017, 2019, 2021}, p.Years())
	assert.Equal(t, []int64{1001, 1002}, p.PersonIDs())
	assert.Equal(t, 2, p.NumIndividuals())
}

func TestNewRejectsDuplicatesAndUndeclaredColumns(t *testing.T) {
	_, err := New(nil, []Observation{obs(1, 2019, 1, 1, nil), obs(1, 2019, 2, 1, nil)})
	var dup DuplicateObservationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, DuplicateObservationError{PersonID: 1, Year: 2019}, dup)

	_, err = New([]string{"income"}, []Observation{obs(1, 2019, 1, 1, map[string]float64{"wealth": 1})})
	var unknown UnknownColumnError
	require.ErrorAs(t, err, &unknown)

	_, err = New([]string{"year"}, nil)
	require.Error(t, err)
	_, err = New([]string{"a", "a"}, nil)
	require.Error(t, err)
}

func TestPersonIDStableAcrossHouseholds(t *testing.T) {
	for _, o := range gapPanel(t).Individual(1002) {
		assert.Equal(t, PersonID(o.FamilyID, o.PersonNumber), o.PersonID)
		assert.Equal(t, int64(1002), o.PersonID)
	}
}

func TestBalancedVersusMinPeriods(t *testing.T) {
	p := gapPanel(t)
	balanced := p.Balanced(2017, 2019, 2021)
	assert.Equal(t, []int64{1001}, balanced.PersonIDs())
	assert.Equal(t, []int64{1001}, p.Balanced().PersonIDs(), "defaults to the panel's years")

	minTwo := p.MinPeriods(2)
	assert.Equal(t, []int64{1001, 1002}, minTwo.PersonIDs())
	assert.Equal(t, []int64{1001}, p.MinPeriods(3).PersonIDs())

	// superset semantics: other years are kept
	sub := p.Balanced(2017, 2021)
	assert.Equal(t, 5, sub.Len())
}

func TestBalancedIsIdempotentAndLeavesSourceIntact(t *testing.T) {
	p := gapPanel(t)
	a := p.Balanced(2017, 2019, 2021)
	b := p.Balanced(2017, 2019, 2021)
	assert.Equal(t, a.Rows(), b.Rows())
	assert.Equal(t, a.Rows(), a.Balanced(2017, 2019, 2021).Rows())
	assert.Equal(t, 5, p.Len())
}

func TestTransitionsPairAcrossGaps(t *testing.T) {
	p := gapPanel(t)
	pairs, err := p.Filter(func(o Observation) bool { return o.PersonID == 1002 }).Transitions("income")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 2017, pairs[0].YearT)
	assert.Equal(t, 2021, pairs[0].YearT1)
	assert.Equal(t, 1.0, pairs[0].T["income"])
	assert.Equal(t, 20000.0, pairs[0].T1["income"])

	all, err := p.Transitions()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	_, present := all[0].T["income"]
	assert.False(t, present, "1001's 2017 income is absent")

	_, err = p.Transitions("wealth")
	var unknown UnknownColumnError
	require.ErrorAs(t, err, &unknown)

	spine, err := p.Transitions(FieldHousehold)
	require.NoError(t, err)
	assert.Equal(t, 10.0, spine[0].T[FieldHousehold])
	assert.Equal(t, 20.0, spine[0].T1[FieldHousehold])
}

func TestPairsSkipNonResponse(t *testing.T) {
	p, err := New(nil, []Observation{
		obs(7, 2017, 1, 1, nil),
		obs(7, 2019, 2, 0, nil),
		obs(7, 2021, 3, 1, nil),
		obs(8, 2019, 4, 0, nil),
		obs(8, 2021, 5, 1, nil),
	})
	require.NoError(t, err)
	pairs := p.Pairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, 2017, pairs[0].From.Year)
	assert.Equal(t, 2021, pairs[0].To.Year)
	assert.Equal(t, 5, p.Len(), "non-response rows stay in the raw panel")
}

func TestCrossSections(t *testing.T) {
	p := gapPanel(t)
	latest := p.LatestCrossSection().Rows()
	require.Len(t, latest, 2)
	for _, o := range latest {
		assert.Equal(t, 2021, o.Year)
	}
	assert.Equal(t, []int64{1001}, p.CrossSection(2019).PersonIDs())
	assert.Equal(t, 0, p.CrossSection(1990).Len())
}

func TestIndividualUnknownIsEmpty(t *testing.T) {
	got := gapPanel(t).Individual(42)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRowsAreCopies(t *testing.T) {
	p := gapPanel(t)
	rows := p.Rows()
	rows[1].Values["income"] = -1
	again := p.Individual(1001)
	assert.Equal(t, 50000.0, again[1].Values["income"])
}

func TestSummary(t *testing.T) {
	p, err := New([]string{"income", "age"}, []Observation{
		obs(1, 2019, 1, 1, map[string]float64{"income": 10, "age": 30}),
		obs(2, 2019, 2, 1, map[string]float64{"income": 20}),
		obs(3, 2019, 3, 1, map[string]float64{"income": 30}),
		obs(1, 2021, 4, 1, nil),
	})
	require.NoError(t, err)
	sum := p.Summary()
	require.Len(t, sum, 2)
	s2019 := sum[0]
	assert.Equal(t, 2019, s2019.Year)
	assert.Equal(t, 3, s2019.Count)
	inc := s2019.Columns["income"]
	assert.Equal(t, 3, inc.N)
	assert.InDelta(t, 20.0, inc.Mean, 1e-9)
	assert.InDelta(t, 10.0, inc.Std, 1e-9)
	assert.Equal(t, 10.0, inc.Min)
	assert.Equal(t, 30.0, inc.Max)
	assert.Equal(t, 1, s2019.Columns["age"].N)
	assert.Equal(t, 0.0, s2019.Columns["age"].Std)
	assert.Equal(t, 0, sum[1].Columns["income"].N)

	tbl := p.SummaryTable()
	assert.Equal(t, 2, tbl.Len())
	stdCol, _ := tbl.Column("age_std")
	assert.Nil(t, stdCol[0])
	meanCol, _ := tbl.Column("income_mean")
	assert.Nil(t, meanCol[1])
	for _, row := range tbl.Rows {
		for _, cell := range row {
			if f, ok := cell.(float64); ok {
				assert.False(t, math.IsNaN(f))
			}
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, err := New([]string{"income"}, gapPanel(t).Rows(), CoverageGap{Variable: "income", Year: 2017, Reason: ReasonNoCode})
	require.NoError(t, err)
	back, err := FromSnapshot(p.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, p.Rows(), back.Rows())
	assert.Equal(t, p.Coverage(), back.Coverage())
	assert.Equal(t, p.Columns(), back.Columns())
}

func TestTableAndCoverageTable(t *testing.T) {
	p, err := New([]string{"income"}, gapPanel(t).Rows(), CoverageGap{Variable: "income", Year: 2017, Reason: ReasonNoCode})
	require.NoError(t, err)
	tbl := p.Table()
	assert.Equal(t, []string{"person_id", "year", "household_id", "sequence", "relationship", "family_id", "person_number", "income"}, tbl.Columns)
	assert.Equal(t, 5, tbl.Len())
	assert.Nil(t, tbl.Rows[0][7])

	cov := p.CoverageTable()
	assert.Equal(t, 3, cov.Len())
	assert.Equal(t, []any{"income", 2017, 2, 1, ReasonNoCode, "", ""}, cov.Rows[0])
	assert.Equal(t, []any{"income", 2019, 1, 1, nil, nil, nil}, cov.Rows[1])
}

func TestNormalizeRelationship(t *testing.T) {
	cases := map[int]Relationship{
		0: RelationshipUnknown, 1: Head, 3: Child, 10: Head, 20: Spouse, 22: Spouse,
		30: Child, 37: Child, 48: Sibling, 50: Parent, 60: Grandchild, 74: OtherRelative,
		83: Nonrelative, 88: Spouse, 98: OtherRole, 100: RelationshipUnknown, -1: RelationshipUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, NormalizeRelationship(code), "code %d", code)
	}
	assert.Equal(t, "spouse", Spouse.String())
	assert.Equal(t, "unknown", Relationship(42).String())
}

func TestIsHead(t *testing.T) {
	assert.True(t, Observation{Sequence: 1}.IsHead())
	assert.False(t, Observation{Sequence: 2, Relationship: Head}.IsHead())
	assert.True(t, Observation{Sequence: NoSequence, Relationship: Head}.IsHead())
	assert.False(t, Observation{Sequence: NoSequence, Relationship: Child}.IsHead())
}
