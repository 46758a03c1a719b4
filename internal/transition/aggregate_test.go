package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func age(v float64) *float64 { return &v }

func sampleRecords() []Record {
	return []Record{
		{PersonID: 1, YearFrom: 2017, Type: SameHousehold, AgeFrom: age(30)},
		{PersonID: 2, YearFrom: 2017, Type: SameHousehold, AgeFrom: age(50)},
		{PersonID: 3, YearFrom: 2017, Type: Marriage, HouseholdChanged: true, AgeFrom: age(25)},
		{PersonID: 4, YearFrom: 2019, Type: SameHousehold},
		{PersonID: 5, YearFrom: 2019, Type: Splitoff, HouseholdChanged: true, AgeFrom: age(20)},
		{PersonID: 6, YearFrom: 2019, Type: Splitoff, HouseholdChanged: true, AgeFrom: age(22)},
	}
}

func TestComputeRatesUngrouped(t *testing.T) {
	rows, err := ComputeRates(sampleRecords())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, RateRow{Type: SameHousehold, Count: 3, Total: 6, Rate: 0.5}, rows[0])
	assert.Equal(t, Splitoff, rows[1].Type)
	assert.Equal(t, Marriage, rows[2].Type)
	assert.InDelta(t, 1.0/6, rows[2].Rate, 1e-12)

	sum := 0.0
	for _, r := range rows {
		sum += r.Rate
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestComputeRatesGroupedWithoutZeroFill(t *testing.T) {
	rows, err := ComputeRates(sampleRecords(), FieldYearFrom)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []any{2017}, rows[0].Group)
	assert.Equal(t, SameHousehold, rows[0].Type)
	assert.InDelta(t, 2.0/3, rows[0].Rate, 1e-12)
	assert.Equal(t, Marriage, rows[1].Type)
	assert.Equal(t, []any{2019}, rows[2].Group)
	assert.Equal(t, Splitoff, rows[2].Type)
	assert.Equal(t, 3, rows[2].Total)
	for _, r := range rows {
		assert.NotZero(t, r.Count, "unobserved combinations are not emitted")
	}
}

func TestComputeRatesMultipleFieldsAndMissingValues(t *testing.T) {
	rows, err := ComputeRates(sampleRecords(), FieldYearFrom, FieldHouseholdChanged)
	require.NoError(t, err)
	assert.Equal(t, []any{2017, false}, rows[0].Group)
	assert.Equal(t, []any{2017, true}, rows[1].Group)

	byAge, err := ComputeRates(sampleRecords(), FieldAgeFrom)
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, byAge[0].Group, "missing ages form their own group, sorted first")
	assert.Equal(t, []any{20.0}, byAge[1].Group)
}

func TestComputeRatesUnknownField(t *testing.T) {
	_, err := ComputeRates(sampleRecords(), "income")
	var unknown UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "income", unknown.Field)

	rows, err := ComputeRates(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPivotRates(t *testing.T) {
	rows, err := ComputeRates(sampleRecords(), FieldYearFrom)
	require.NoError(t, err)
	pivot := PivotRates(rows, FieldYearFrom)
	assert.Equal(t, []string{"year_from", "same_household_count", "marriage_count", "splitoff_count", "same_household_rate", "marriage_rate", "splitoff_rate"}, pivot.Columns)
	require.Equal(t, 2, pivot.Len())
	assert.Equal(t, 2017, pivot.Rows[0][0])
	assert.Equal(t, 0, pivot.Rows[0][3], "type absent within an observed group reads zero")
	assert.Equal(t, 1, pivot.Rows[1][1])

	long := RatesTable(rows, FieldYearFrom)
	assert.Equal(t, []string{"year_from", "type", "count", "group_total", "rate"}, long.Columns)
	assert.Equal(t, 4, long.Len())
}

func TestSummarize(t *testing.T) {
	rows := Summarize(sampleRecords())
	require.Len(t, rows, 3)
	assert.Equal(t, SameHousehold, rows[0].Type)
	assert.Equal(t, 3, rows[0].Count)
	assert.Equal(t, 0.0, rows[0].PctHouseholdChanged)
	require.NotNil(t, rows[0].MeanAge)
	assert.Equal(t, 40.0, *rows[0].MeanAge, "unknown ages are ignored")
	assert.Equal(t, 30.0, *rows[0].MinAge)
	assert.Equal(t, 50.0, *rows[0].MaxAge)
	assert.Equal(t, 0.5, rows[0].PctOfTotal)

	assert.Equal(t, Splitoff, rows[1].Type)
	assert.Equal(t, 1.0, rows[1].PctHouseholdChanged)
	assert.Equal(t, Marriage, rows[2].Type)

	for _, r := range rows {
		assert.NotEqual(t, Divorce, r.Type, "zero-count types are omitted")
	}
	assert.Empty(t, Summarize(nil))

	tbl := SummaryTable(Summarize([]Record{{Type: OtherMove}}))
	assert.Nil(t, tbl.Rows[0][3])
}

func TestRecordsTable(t *testing.T) {
	tbl := RecordsTable([]Record{{PersonID: 9, YearFrom: 2019, YearTo: 2021, Type: Marriage, MaritalTo: Married}})
	assert.Equal(t, Fields(), tbl.Columns)
	row := tbl.Records()[0]
	assert.Equal(t, "marriage", row["type"])
	assert.Equal(t, 1, row["marital_to"])
	assert.Nil(t, row["marital_from"])
	assert.Nil(t, row["age_from"])
}
