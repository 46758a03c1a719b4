package panel

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psidpanel/internal/blob"
	"psidpanel/internal/extract"
	"psidpanel/internal/logging"
	"psidpanel/internal/metrics"
	"psidpanel/internal/sample"
	"psidpanel/internal/variables"
)

// Persons:
//
//	1001    SRC head in 10, 20, 30
//	1002    SRC child in 10 (2017), not interviewed 2019, head of 31 (2021)
//	5001001 SEO head in 11, 21, 32
//	3001003 IMMIGRANT spouse in 21 (2019) and 32 (2021)
const individualCSV = `ER30001,ER30002,ER34101,ER34102,ER34103,ER34301,ER34302,ER34303,ER34501,ER34502,ER34503
1,1,10,1,10,20,1,10,30,1,10
1,2,10,2,30,0,0,0,31,1,10
5001,1,11,1,10,21,1,10,32,1,10
3001,3,0,0,0,21,2,20,32,2,20
`

var fixture = map[string]string{
	"psid/IND2021ER.csv": individualCSV,
	"psid/FAM2017ER.csv": "ER66002,ER66003\n10,1\n11,1\n",
	"psid/FAM2019ER.csv": "ER72002,ER77448\n20,50000\n21,30000\n",
	"psid/FAM2021ER.csv": "ER78002,ER81775\n30,60000\n31,20000\n32,.\n",
	"psid/WLT2019ER.csv": "S701,S717\n20,1000\n",
}

func fixtureStore(t *testing.T, skip ...string) blob.Store {
	t.Helper()
	store := blob.NewMemory()
	for key, body := range fixture {
		if contains(skip, key) {
			continue
		}
		_, err := store.Put(context.Background(), key, strings.NewReader(body), blob.PutOptions{ContentType: "text/csv"})
		require.NoError(t, err)
	}
	return store
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newTestBuilder(store blob.Store, rec *metrics.Recorder, workers int) *Builder {
	logger := logging.Discard()
	return NewBuilder(extract.NewSource(store, "psid", logger), BuilderConfig{Logger: logger, Metrics: rec, Workers: workers})
}

func incomeRequest() Request {
	return Request{
		Years:      []int{2021, 2017, 2019},
		FamilyVars: variables.Spec{"income": {2019: "ER77448", 2021: "ER81775"}},
	}
}

func TestBuildJoinsPersonsToHouseholds(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := newTestBuilder(fixtureStore(t), metrics.New(reg), 2).Build(context.Background(), incomeRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"income"}, p.Columns())
	assert.Equal(t, []int{2017, 2019, 2021}, p.Years())
	assert.Equal(t, []int64{1001, 1002, 3001003, 5001001}, p.PersonIDs())
	assert.Equal(t, 10, p.Len())

	a := p.Individual(1001)
	require.Len(t, a, 3)
	assert.Equal(t, int64(20), a[1].HouseholdID)
	assert.Equal(t, 50000.0, a[1].Values["income"])
	assert.Equal(t, Head, a[1].Relationship)
	assert.Empty(t, a[0].Values, "no income code in 2017")

	b := p.Individual(1002)
	require.Len(t, b, 2, "2019 row has no interview number")
	assert.Equal(t, Child, b[0].Relationship)
	assert.Equal(t, 2, b[0].Sequence)
	assert.Equal(t, 20000.0, b[1].Values["income"])

	c := p.Individual(5001001)
	_, ok := c[2].Values["income"]
	assert.False(t, ok, "dot in extract is missing")

	d := p.Individual(3001003)
	require.Len(t, d, 2)
	assert.Equal(t, int64(3001), d[0].FamilyID)
	assert.Equal(t, 3, d[0].PersonNumber)
	assert.Equal(t, 30000.0, d[0].Values["income"])

	assert.Equal(t, []CoverageGap{{Variable: "income", Year: 2017, Reason: ReasonNoCode}}, p.Coverage())

	series, err := testutil.GatherAndCount(reg, "psidpanel_panel_rows_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series, "one series per year")
	gaps, err := testutil.GatherAndCount(reg, "psidpanel_panel_coverage_gaps_total")
	require.NoError(t, err)
	assert.Equal(t, 1, gaps)
}

func TestBuildPairsGapYears(t *testing.T) {
	p, err := newTestBuilder(fixtureStore(t), nil, 1).Build(context.Background(), incomeRequest())
	require.NoError(t, err)
	pairs, err := p.Filter(func(o Observation) bool { return o.PersonID == 1002 }).Transitions("income", FieldRelationship)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 2017, pairs[0].YearT)
	assert.Equal(t, 2021, pairs[0].YearT1)
	assert.Equal(t, float64(Child), pairs[0].T[FieldRelationship])
	assert.Equal(t, float64(Head), pairs[0].T1[FieldRelationship])
}

func TestBuildIsDeterministicAcrossWorkerCounts(t *testing.T) {
	store := fixtureStore(t)
	one, err := newTestBuilder(store, nil, 1).Build(context.Background(), incomeRequest())
	require.NoError(t, err)
	many, err := newTestBuilder(store, nil, 8).Build(context.Background(), incomeRequest())
	require.NoError(t, err)
	assert.Equal(t, one.Rows(), many.Rows())
	assert.Equal(t, one.Coverage(), many.Coverage())
}

func TestBuildCoverageDegradation(t *testing.T) {
	req := Request{Years: []int{2019, 2021}, FamilyVars: variables.Spec{"income": {2019: "ER77448"}}}
	p, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	for _, o := range p.CrossSection(2021).Rows() {
		_, ok := o.Values["income"]
		assert.False(t, ok)
	}
	present := 0
	for _, o := range p.CrossSection(2019).Rows() {
		if _, ok := o.Values["income"]; ok {
			present++
		}
	}
	assert.Equal(t, 3, present)
	assert.Equal(t, []CoverageGap{{Variable: "income", Year: 2021, Reason: ReasonNoCode}}, p.Coverage())
}

func TestBuildHeadsOnly(t *testing.T) {
	req := incomeRequest()
	req.HeadsOnly = true
	p, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Len())
	for _, o := range p.Rows() {
		assert.Equal(t, 1, o.Sequence)
	}
	assert.Len(t, p.Individual(1002), 1)
	assert.Empty(t, p.Individual(3001003))
}

func TestBuildSampleFilterAndTag(t *testing.T) {
	req := incomeRequest()
	req.Samples = sample.NewSet(sample.SRC)
	req.TagSample = true
	p, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{1001, 1002}, p.PersonIDs())
	for _, o := range p.Rows() {
		assert.Equal(t, sample.SRC, o.Sample)
	}
	assert.Contains(t, p.Table().Columns, FieldSample)

	req.Samples = nil
	tagged, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, sample.Immigrant, tagged.Individual(3001003)[0].Sample)
}

func TestBuildBalanced(t *testing.T) {
	req := incomeRequest()
	req.Balanced = true
	p, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{1001, 5001001}, p.PersonIDs())
}

func TestBuildCrosswalkAndWealth(t *testing.T) {
	req := Request{
		Years:      []int{2019},
		Crosswalk:  []string{"marital_status"},
		WealthVars: variables.Spec{"wealth": {2019: "S717"}},
	}
	p, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"marital_status", "wealth"}, p.Columns())
	a := p.Individual(1001)
	require.Len(t, a, 1)
	assert.Equal(t, 1000.0, a[0].Values["wealth"])
	_, ok := p.Individual(5001001)[0].Values["wealth"]
	assert.False(t, ok, "household without a wealth record")
	assert.Equal(t, []CoverageGap{{Variable: "marital_status", Year: 2019, Source: "family", Code: "ER77070", Reason: ReasonColumnAbsent}}, p.Coverage())
}

func TestBuildUnknownCrosswalkName(t *testing.T) {
	req := incomeRequest()
	req.Crosswalk = []string{"shoe_size"}
	_, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	var unknown variables.UnknownVariableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "shoe_size", unknown.Name)
}

func TestBuildMissingFamilyFile(t *testing.T) {
	_, err := newTestBuilder(fixtureStore(t, "psid/FAM2019ER.csv"), nil, 2).Build(context.Background(), incomeRequest())
	var missing extract.MissingSourceFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 2019, missing.Year)
	assert.Contains(t, err.Error(), "FAM2019ER.csv")
}

func TestBuildMissingWealthFile(t *testing.T) {
	req := Request{Years: []int{2021}, WealthVars: variables.Spec{"wealth": {2021: "S917"}}}
	_, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	var missing extract.MissingSourceFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, extract.Wealth, missing.Kind)
}

func TestBuildMissingLinkageColumn(t *testing.T) {
	store := fixtureStore(t)
	_, err := store.Put(context.Background(), "psid/IND2021ER.csv", strings.NewReader("ER30001,ER30002,ER34101\n1,1,10\n"), blob.PutOptions{Overwrite: true})
	require.NoError(t, err)
	_, err = newTestBuilder(store, nil, 2).Build(context.Background(), incomeRequest())
	var missing extract.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ER34301", missing.Column)
	assert.Equal(t, 2019, missing.Year)
}

func TestBuildRejectsBadRequests(t *testing.T) {
	b := newTestBuilder(fixtureStore(t), nil, 2)
	_, err := b.Build(context.Background(), Request{})
	require.Error(t, err)

	_, err = b.Build(context.Background(), Request{Years: []int{2023}})
	var unsupported UnsupportedYearError
	require.ErrorAs(t, err, &unsupported)

	_, err = b.Build(context.Background(), Request{
		Years:          []int{2019},
		FamilyVars:     variables.Spec{"x": {2019: "ER77448"}},
		IndividualVars: variables.Spec{"x": {2019: "ER34302"}},
	})
	var conflict ConflictingVariableError
	require.ErrorAs(t, err, &conflict)
}

func TestBuildIndividualVars(t *testing.T) {
	req := Request{Years: []int{2019}, IndividualVars: variables.Spec{"seq_copy": {2019: "ER34302"}, "ghost": {2019: "ER99999"}}}
	p, err := newTestBuilder(fixtureStore(t), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Individual(3001003)[0].Values["seq_copy"])
	assert.Equal(t, []CoverageGap{{Variable: "ghost", Year: 2019, Source: "individual", Code: "ER99999", Reason: ReasonColumnAbsent}}, p.Coverage())
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestBuilder(fixtureStore(t), nil, 2).Build(ctx, incomeRequest())
	require.Error(t, err)
}

func TestIsSupplementCode(t *testing.T) {
	assert.True(t, isSupplementCode("S717"))
	assert.True(t, isSupplementCode(" s117 "))
	assert.False(t, isSupplementCode("ER77511"))
	assert.False(t, isSupplementCode("S"))
}

// Early waves carry only an interview column in the individual file; 1968
// uses the baseline family id itself.
//
//	1001 and 1002 in 1968 family 1, interview 40 in 1995
//	2001 in 1968 family 2, interview 41 in 1995
var earlyWaves = map[string]string{
	"psid/IND2021ER.csv": "ER30001,ER30002,ER30657\n1,1,40\n1,2,40\n2,1,41\n",
	"psid/FAM1968ER.csv": "V3,V81\n1,5000\n2,6000\n",
	"psid/FAM1995ER.csv": "ER5002,ER6993\n40,41000\n41,39000\n",
}

func storeOf(t *testing.T, files map[string]string) blob.Store {
	t.Helper()
	store := blob.NewMemory()
	for key, body := range files {
		_, err := store.Put(context.Background(), key, strings.NewReader(body), blob.PutOptions{ContentType: "text/csv"})
		require.NoError(t, err)
	}
	return store
}

func TestBuildEarlyWaves(t *testing.T) {
	req := Request{Years: []int{1995, 1968}, Crosswalk: []string{"total_family_income"}}
	p, err := newTestBuilder(storeOf(t, earlyWaves), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Len())
	assert.Equal(t, []int{1968, 1995}, p.Years())
	assert.Empty(t, p.Coverage())

	for _, o := range p.Rows() {
		assert.Equal(t, NoSequence, o.Sequence)
		assert.Equal(t, RelationshipUnknown, o.Relationship)
	}
	first := p.Individual(2001)
	require.Len(t, first, 2)
	assert.Equal(t, int64(2), first[0].HouseholdID, "1968 links on the family id")
	income, ok := first[0].Value("total_family_income")
	require.True(t, ok)
	assert.Equal(t, 6000.0, income)
	assert.Equal(t, int64(41), first[1].HouseholdID)
	income, _ = first[1].Value("total_family_income")
	assert.Equal(t, 39000.0, income)
}

func TestBuildHeadsOnlyWithoutHeadshipColumns(t *testing.T) {
	reg := prometheus.NewRegistry()
	req := Request{Years: []int{1968, 1995}, Crosswalk: []string{"total_family_income"}, HeadsOnly: true}
	p, err := newTestBuilder(storeOf(t, earlyWaves), metrics.New(reg), 1).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Len(), "rows are kept when the head cannot be identified")
	assert.Equal(t, []CoverageGap{
		{Variable: FieldRelationship, Year: 1968, Source: "individual", Reason: ReasonHeadshipUnknown},
		{Variable: FieldRelationship, Year: 1995, Source: "individual", Reason: ReasonHeadshipUnknown},
	}, p.Coverage())

	n, err := testutil.GatherAndCount(reg, "psidpanel_panel_coverage_gaps_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBalancedDefaultsToRequestedWaves(t *testing.T) {
	files := map[string]string{
		"psid/IND2021ER.csv": earlyWaves["psid/IND2021ER.csv"],
		"psid/FAM1968ER.csv": earlyWaves["psid/FAM1968ER.csv"],
		"psid/FAM1995ER.csv": "ER5002,ER6993\n99,1\n",
	}
	req := Request{Years: []int{1968, 1995}}
	p, err := newTestBuilder(storeOf(t, files), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{1968}, p.Years())
	assert.Equal(t, []int{1968, 1995}, p.Waves())
	assert.Zero(t, p.Balanced().Len(), "nobody was seen in 1995")
	assert.Equal(t, 3, p.Balanced(1968).Len())
	assert.Equal(t, []int{1968, 1995}, p.CrossSection(1968).Waves())

	back, err := FromSnapshot(p.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, []int{1968, 1995}, back.Waves())

	req.Balanced = true
	balanced, err := newTestBuilder(storeOf(t, files), nil, 2).Build(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, balanced.Len())
}
