package outcome

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyadpanel/internal/dyad"
	"dyadpanel/pkg/contracts/domain"
)

func panelRows(keys ...dyad.Key) []domain.DyadYear {
	rows := make([]domain.DyadYear, len(keys))
	for i, k := range keys {
		rows[i] = domain.DyadYear{CCode1: k.A, CCode2: k.B, Year: k.Year, IsContiguous: true, UndirectedID: dyad.UndirectedID(k.A, k.B)}
	}
	return rows
}

func TestMerge(t *testing.T) {
	panel := panelRows(dyad.NewKey(20, 70, 1980), dyad.NewKey(70, 20, 1980))

	t.Run("retained when the directed key is relevant", func(t *testing.T) {
		res := NewMerger(nil).Merge(context.Background(), []domain.DisputeOutcome{
			{StateA: 20, StateB: 70, Year: 1980, HostilityLevel: 4, DisputeID: "3551"},
		}, panel, 1973, 2014)

		o, ok := res.Lookup(20, 70, 1980)
		require.True(t, ok)
		assert.Equal(t, 4, o.HostilityLevel)
		assert.Equal(t, "3551", o.IDs())
		assert.Equal(t, 1, res.Stats.Retained)
		assert.Equal(t, 0, res.Stats.Dropped)
		assert.True(t, res.HadDispute(dyad.NewPair(70, 20), 1980))

		_, ok = res.Lookup(70, 20, 1980)
		assert.False(t, ok, "the reverse direction carries no dispute of its own")
	})

	t.Run("dropped when the dyad is not relevant", func(t *testing.T) {
		res := NewMerger(nil).Merge(context.Background(), []domain.DisputeOutcome{
			{StateA: 20, StateB: 70, Year: 1980, HostilityLevel: 4},
			{StateA: 20, StateB: 200, Year: 1980, HostilityLevel: 4},
		}, panel, 1973, 2014)

		assert.Equal(t, 1, res.Stats.Retained)
		assert.Equal(t, 1, res.Stats.Dropped)
		assert.Equal(t, 2, res.Stats.InWindow)
		assert.InDelta(t, 0.5, res.Stats.CaptureRate(), 1e-12)
	})

	t.Run("out-of-window disputes are not counted", func(t *testing.T) {
		res := NewMerger(nil).Merge(context.Background(), []domain.DisputeOutcome{
			{StateA: 20, StateB: 70, Year: 1972, HostilityLevel: 5},
			{StateA: 20, StateB: 70, Year: 2015, HostilityLevel: 5},
		}, panel, 1973, 2014)

		assert.Equal(t, Stats{}, res.Stats)
		assert.Empty(t, res.Directed)
		assert.Zero(t, res.Stats.CaptureRate())
	})

	t.Run("multiple disputes keep the highest hostility", func(t *testing.T) {
		res := NewMerger(nil).Merge(context.Background(), []domain.DisputeOutcome{
			{StateA: 20, StateB: 70, Year: 1980, HostilityLevel: 3, DisputeID: "b"},
			{StateA: 20, StateB: 70, Year: 1980, HostilityLevel: 5, DisputeID: "a"},
			{StateA: 20, StateB: 70, Year: 1980, HostilityLevel: 2, DisputeID: "a"},
		}, panel, 1973, 2014)

		o, ok := res.Lookup(20, 70, 1980)
		require.True(t, ok)
		assert.Equal(t, 5, o.HostilityLevel)
		assert.Equal(t, "a;b", o.IDs())
		assert.Equal(t, 3, res.Stats.Retained)
		assert.Equal(t, 2, res.Stats.Collapsed)
		assert.Equal(t, 1, res.Stats.Outcomes)
	})
}

func TestSorted(t *testing.T) {
	panel := panelRows(dyad.NewKey(70, 20, 1981), dyad.NewKey(20, 70, 1980), dyad.NewKey(2, 20, 1980))
	res := NewMerger(nil).Merge(context.Background(), []domain.DisputeOutcome{
		{StateA: 70, StateB: 20, Year: 1981, HostilityLevel: 2},
		{StateA: 20, StateB: 70, Year: 1980, HostilityLevel: 3},
		{StateA: 2, StateB: 20, Year: 1980, HostilityLevel: 4},
	}, panel, 1973, 2014)

	sorted := res.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, dyad.NewKey(2, 20, 1980), sorted[0].Key)
	assert.Equal(t, dyad.NewKey(20, 70, 1980), sorted[1].Key)
	assert.Equal(t, dyad.NewKey(70, 20, 1981), sorted[2].Key)
}
