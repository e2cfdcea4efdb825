package relevance

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyadpanel/internal/dyad"
	"dyadpanel/pkg/contracts/domain"
)

const (
	stateA = 20
	stateB = 70
	stateC = 2
)

func byKey(rows []domain.DyadYear) map[string]domain.DyadYear {
	m := make(map[string]domain.DyadYear, len(rows))
	for _, r := range rows {
		m[dyad.Directed(r.CCode1, r.CCode2, r.Year)] = r
	}
	return m
}

func activeYear(year int, codes ...int) []domain.CountryYear {
	out := make([]domain.CountryYear, len(codes))
	for i, c := range codes {
		out[i] = domain.CountryYear{CCode: c, Year: year}
	}
	return out
}

func TestBuild_Completeness(t *testing.T) {
	in := Input{
		Contiguity: []domain.ContiguityRecord{
			{StateA: stateA, StateB: stateB, Year: 1980, Type: 1},
			{StateA: stateB, StateB: stateA, Year: 1980, Type: 1},
		},
		MajorPowers: []domain.CountryYear{{CCode: stateC, Year: 1980}},
		Active:      activeYear(1980, stateA, stateB, stateC),
	}

	res, err := NewBuilder(slog.Default(), Options{}).Build(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Rows, 6)

	rows := byKey(res.Rows)
	require.Len(t, rows, 6, "directed keys must be unique")

	for _, k := range []string{"20_70_1980", "70_20_1980"} {
		r, ok := rows[k]
		require.True(t, ok, k)
		assert.True(t, r.IsContiguous, k)
		assert.False(t, r.HasMajorPower, k)
		assert.Equal(t, 1, r.ContiguityType, k)
	}
	for _, k := range []string{"2_20_1980", "20_2_1980", "2_70_1980", "70_2_1980"} {
		r, ok := rows[k]
		require.True(t, ok, k)
		assert.False(t, r.IsContiguous, k)
		assert.True(t, r.HasMajorPower, k)
		assert.Equal(t, domain.ContiguityNone, r.ContiguityType, k)
	}

	assert.Equal(t, "20_70", rows["70_20_1980"].UndirectedID)
	assert.Equal(t, 2, res.Stats.ContiguousOnly)
	assert.Equal(t, 4, res.Stats.MajorPowerOnly)
	assert.Equal(t, 0, res.Stats.BothCriteria)
	assert.Equal(t, 6, res.Stats.TotalRows)
}

func TestBuild_ContiguityRowWinsOverSynthetic(t *testing.T) {
	in := Input{
		Contiguity: []domain.ContiguityRecord{
			{StateA: stateA, StateB: stateB, Year: 1980, Type: 1},
			{StateA: stateB, StateB: stateA, Year: 1980, Type: 1},
			{StateA: stateC, StateB: stateA, Year: 1980, Type: 4},
			{StateA: stateA, StateB: stateC, Year: 1980, Type: 4},
		},
		MajorPowers: []domain.CountryYear{{CCode: stateC, Year: 1980}},
		Active:      activeYear(1980, stateA, stateB, stateC),
	}

	res, err := NewBuilder(nil, Options{}).Build(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Rows, 6)

	rows := byKey(res.Rows)
	for _, k := range []string{"2_20_1980", "20_2_1980"} {
		r := rows[k]
		assert.True(t, r.IsContiguous, k)
		assert.True(t, r.HasMajorPower, k)
		assert.Equal(t, 4, r.ContiguityType, k)
	}
	assert.Equal(t, 2, res.Stats.BothCriteria)
	assert.Equal(t, 2, res.Stats.SyntheticDiscarded)
	assert.Equal(t, 2, res.Stats.SyntheticRows)
}

func TestBuild_TwoMajorPowersProduceOnePairOfRows(t *testing.T) {
	in := Input{
		MajorPowers: []domain.CountryYear{{CCode: 2, Year: 1990}, {CCode: 365, Year: 1990}},
		Active:      activeYear(1990, 2, 365),
	}

	res, err := NewBuilder(nil, Options{}).Build(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2_365_1990", dyad.Directed(res.Rows[0].CCode1, res.Rows[0].CCode2, res.Rows[0].Year))
	assert.Equal(t, "365_2_1990", dyad.Directed(res.Rows[1].CCode1, res.Rows[1].CCode2, res.Rows[1].Year))
}

func TestBuild_DuplicateContiguityCollapsesToClosestType(t *testing.T) {
	in := Input{
		Contiguity: []domain.ContiguityRecord{
			{StateA: 20, StateB: 70, Year: 1980, Type: 3},
			{StateA: 20, StateB: 70, Year: 1980, Type: 1},
		},
	}
	res, err := NewBuilder(nil, Options{}).Build(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Rows[0].ContiguityType)
	assert.Equal(t, 1, res.Stats.DuplicateContiguity)
}

func TestBuild_YearsAreIndependent(t *testing.T) {
	in := Input{
		Contiguity: []domain.ContiguityRecord{
			{StateA: 20, StateB: 70, Year: 1980, Type: 1},
		},
		MajorPowers: []domain.CountryYear{{CCode: 2, Year: 1981}},
		Active:      append(activeYear(1980, 2, 20, 70), activeYear(1981, 2, 20)...),
	}
	res, err := NewBuilder(nil, Options{}).Build(context.Background(), in)
	require.NoError(t, err)

	rows := byKey(res.Rows)
	assert.Len(t, rows, 3)
	assert.Contains(t, rows, "20_70_1980")
	assert.Contains(t, rows, "2_20_1981")
	assert.Contains(t, rows, "20_2_1981")
	assert.NotContains(t, rows, "2_20_1980", "2 is not a major power in 1980")
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	var in Input
	for y := 1973; y <= 1990; y++ {
		in.MajorPowers = append(in.MajorPowers, domain.CountryYear{CCode: 2, Year: y}, domain.CountryYear{CCode: 365, Year: y})
		in.Active = append(in.Active, activeYear(y, 2, 20, 70, 200, 365, 710)...)
		in.Contiguity = append(in.Contiguity,
			domain.ContiguityRecord{StateA: 2, StateB: 20, Year: y, Type: 1},
			domain.ContiguityRecord{StateA: 20, StateB: 2, Year: y, Type: 1},
			domain.ContiguityRecord{StateA: 365, StateB: 710, Year: y, Type: 1},
		)
	}

	seq, err := NewBuilder(nil, Options{Parallelism: 1}).Build(context.Background(), in)
	require.NoError(t, err)
	par, err := NewBuilder(nil, Options{Parallelism: 8}).Build(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, seq.Rows, par.Rows)
	assert.Equal(t, seq.Stats, par.Stats)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(nil, Options{}).Build(ctx, Input{
		MajorPowers: []domain.CountryYear{{CCode: 2, Year: 1990}},
		Active:      activeYear(1990, 2, 20),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActiveStates(t *testing.T) {
	got := ActiveStates(
		[]domain.ContiguityRecord{{StateA: 20, StateB: 70, Year: 1980, Type: 1}},
		[]domain.CountryYear{{CCode: 2, Year: 1980}, {CCode: 2, Year: 1981}},
	)
	assert.Equal(t, []domain.CountryYear{
		{CCode: 2, Year: 1980}, {CCode: 20, Year: 1980}, {CCode: 70, Year: 1980},
		{CCode: 2, Year: 1981},
	}, got)
}

func TestWindowContiguity(t *testing.T) {
	got := WindowContiguity([]domain.ContiguityRecord{
		{StateA: 20, StateB: 70, Year: 1972, Type: 1},
		{StateA: 20, StateB: 70, Year: 1973, Type: 1},
		{StateA: 20, StateB: 70, Year: 2014, Type: 1},
		{StateA: 20, StateB: 70, Year: 2015, Type: 1},
	}, 1973, 2014)
	require.Len(t, got, 2)
	assert.Equal(t, 1973, got[0].Year)
	assert.Equal(t, 2014, got[1].Year)
}

// TestBuildProperties checks uniqueness and the inclusion rule over random inputs.
func TestBuildProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	state := gen.IntRange(1, 12)

	properties.Property("rows are unique and relevant", prop.ForAll(
		func(pairs [][]int, majors []int) bool {
			var in Input
			for _, p := range pairs {
				if p[0] == p[1] {
					continue
				}
				in.Contiguity = append(in.Contiguity, domain.ContiguityRecord{StateA: p[0], StateB: p[1], Year: 2000, Type: 1})
			}
			for _, m := range majors {
				in.MajorPowers = append(in.MajorPowers, domain.CountryYear{CCode: m, Year: 2000})
			}
			in.Active = ActiveStates(in.Contiguity, in.MajorPowers)

			res, err := NewBuilder(nil, Options{Parallelism: 4}).Build(context.Background(), in)
			if err != nil {
				return false
			}
			seen := make(map[dyad.Key]bool)
			for _, r := range res.Rows {
				k := dyad.NewKey(r.CCode1, r.CCode2, r.Year)
				if seen[k] || !r.IsRelevant() || r.CCode1 == r.CCode2 {
					return false
				}
				if r.UndirectedID != dyad.UndirectedID(r.CCode2, r.CCode1) {
					return false
				}
				seen[k] = true
			}
			return res.Stats.ContiguousOnly+res.Stats.MajorPowerOnly+res.Stats.BothCriteria == len(res.Rows)
		},
		gen.SliceOf(gen.SliceOfN(2, state)),
		gen.SliceOf(state),
	))

	properties.TestingRun(t)
}
