package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		id   int64
		want Type
	}{
		{0, Unknown},
		{1, SRC},
		{1500, SRC},
		{2999, SRC},
		{3000, Unknown},
		{3001, Immigrant},
		{3511, Immigrant},
		{3512, Unknown},
		{4001, Immigrant},
		{4462, Immigrant},
		{5000, Unknown},
		{5001, SEO},
		{5500, SEO},
		{6872, SEO},
		{6873, Unknown},
		{7001, Immigrant},
		{9308, Immigrant},
		{9309, Unknown},
		{-4, Unknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.id), "id %d", tc.id)
	}
}

func TestRangesAreDisjoint(t *testing.T) {
	c := Standard()
	for id := int64(1); id <= 9308; id++ {
		hits := 0
		for _, s := range c.Strata() {
			for _, r := range s.Ranges {
				if r.contains(id) {
					hits++
				}
			}
		}
		require.LessOrEqual(t, hits, 1, "id %d matched %d ranges", id, hits)
		if hits == 0 {
			require.Equal(t, Unknown, c.Classify(id))
		}
	}
}

func TestLatinoConfigured(t *testing.T) {
	c, err := NewClassifier(Range{Low: 9400, High: 9500})
	require.NoError(t, err)
	assert.Equal(t, Latino, c.Classify(9450))
	assert.Equal(t, Unknown, Standard().Classify(9450))
	assert.Equal(t, []Type{SRC, SEO, Immigrant, Latino}, c.Types())
}

func TestOverlappingRangesRejected(t *testing.T) {
	_, err := NewClassifier(Range{Low: 9000, High: 9400})
	var overlap OverlappingRangeError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, Immigrant, overlap.A)
	assert.Equal(t, Latino, overlap.B)

	_, err = NewCustomClassifier(Stratum{Type: SRC, Ranges: []Range{{10, 1}}})
	assert.Error(t, err)
	_, err = NewCustomClassifier(Stratum{Type: Unknown, Ranges: []Range{{1, 2}}})
	assert.Error(t, err)
}

func TestParseTypes(t *testing.T) {
	set, err := ParseTypes("src", " Seo ")
	require.NoError(t, err)
	assert.True(t, set.Has(SRC))
	assert.True(t, set.Has(SEO))
	assert.False(t, set.Has(Immigrant))

	_, err = ParseTypes("src", "martian")
	assert.Error(t, err)
}

func TestEmptySetHasEverything(t *testing.T) {
	assert.True(t, Set{}.Has(Unknown))
	assert.True(t, Set(nil).Has(SRC))
}

type row struct {
	familyID int64
	tag      Type
}

func TestFilterKeepsRequestedAndTags(t *testing.T) {
	rows := []row{{familyID: 12}, {familyID: 5500}, {familyID: 3100}, {familyID: 9999}}
	idOf := func(r row) int64 { return r.familyID }

	got := Filter(Standard(), rows, NewSet(SRC, Immigrant), idOf, func(r row, t Type) row {
		r.tag = t
		return r
	})
	assert.Equal(t, []row{{familyID: 12, tag: SRC}, {familyID: 3100, tag: Immigrant}}, got)

	all := Filter(Standard(), rows, nil, idOf, nil)
	assert.Equal(t, rows, all)
	assert.Equal(t, Type(""), all[0].tag)
}
