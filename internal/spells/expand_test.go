package spells

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dyadpanel/internal/errors"
	"dyadpanel/pkg/contracts/domain"
)

func TestExpand(t *testing.T) {
	t.Run("two disjoint spells of one entity", func(t *testing.T) {
		rows, err := Expand([]Spell[int]{
			{Entity: 255, Start: 1980, End: 1985},
			{Entity: 255, Start: 1990, End: 1992},
		})
		require.NoError(t, err)
		require.Len(t, rows, 9)

		var years []int
		for _, r := range rows {
			assert.Equal(t, 255, r.Entity)
			years = append(years, r.Year)
		}
		assert.Equal(t, []int{1980, 1981, 1982, 1983, 1984, 1985, 1990, 1991, 1992}, years)
	})

	t.Run("overlapping spells are deduplicated", func(t *testing.T) {
		rows, err := Expand([]Spell[int]{
			{Entity: 2, Start: 1980, End: 1985},
			{Entity: 2, Start: 1984, End: 1986},
		})
		require.NoError(t, err)
		assert.Len(t, rows, 7)
	})

	t.Run("single-year spell", func(t *testing.T) {
		rows, err := Expand([]Spell[int]{{Entity: 740, Start: 1991, End: 1991}})
		require.NoError(t, err)
		assert.Equal(t, []EntityYear[int]{{Entity: 740, Year: 1991}}, rows)
	})

	t.Run("spells outside any window still expand", func(t *testing.T) {
		rows, err := Expand([]Spell[int]{{Entity: 300, Start: 1816, End: 1918}})
		require.NoError(t, err)
		assert.Len(t, rows, 103)
	})

	t.Run("start after end is an integrity error", func(t *testing.T) {
		rows, err := Expand([]Spell[int]{
			{Entity: 2, Start: 1980, End: 1985},
			{Entity: 365, Start: 1992, End: 1991},
		})
		require.Error(t, err)
		assert.Nil(t, rows)
		assert.True(t, apperrors.IsIntegrity(err))
		assert.Contains(t, err.Error(), "start_year=1992")
	})

	t.Run("empty input", func(t *testing.T) {
		rows, err := Expand[int](nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMajorPowerYearsAndWindow(t *testing.T) {
	years, err := MajorPowerYears([]domain.MajorPowerSpell{
		{CCode: 365, StartYear: 1970, EndYear: 1975},
		{CCode: 2, StartYear: 1972, EndYear: 1974},
	})
	require.NoError(t, err)
	require.Len(t, years, 9)
	assert.Equal(t, domain.CountryYear{CCode: 2, Year: 1972}, years[0])
	assert.Equal(t, domain.CountryYear{CCode: 365, Year: 1975}, years[8])

	windowed := Window(years, 1973, 1974)
	assert.Len(t, windowed, 4)
	for _, cy := range windowed {
		assert.GreaterOrEqual(t, cy.Year, 1973)
		assert.LessOrEqual(t, cy.Year, 1974)
	}
}

func TestSet(t *testing.T) {
	rows, err := Expand([]Spell[string]{{Entity: "2_20", Start: 1990, End: 1991}})
	require.NoError(t, err)
	set := NewSet(rows)
	assert.True(t, set.Contains("2_20", 1990))
	assert.True(t, set.Contains("2_20", 1991))
	assert.False(t, set.Contains("2_20", 1992))
	assert.False(t, set.Contains("20_2", 1990))
}

// TestExpandProperties checks that expansion yields exactly the inclusive range.
func TestExpandProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("years equal the inclusive range", prop.ForAll(
		func(start, length int) bool {
			end := start + length
			rows, err := Expand([]Spell[int]{{Entity: 1, Start: start, End: end}})
			if err != nil || len(rows) != length+1 {
				return false
			}
			for i, r := range rows {
				if r.Year != start+i {
					return false
				}
			}
			return true
		},
		gen.IntRange(1816, 2020),
		gen.IntRange(0, 60),
	))

	properties.Property("expanding a spell twice adds nothing", prop.ForAll(
		func(start, length int) bool {
			s := Spell[int]{Entity: 1, Start: start, End: start + length}
			once, err1 := Expand([]Spell[int]{s})
			twice, err2 := Expand([]Spell[int]{s, s})
			return err1 == nil && err2 == nil && len(once) == len(twice)
		},
		gen.IntRange(1816, 2020),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}
