package derive

import (
	"cmp"
	"slices"

	"dyadpanel/internal/dyad"
	"dyadpanel/pkg/contracts/domain"
)

// DisputeLookup reports whether an undirected dyad had a recorded dispute in a year.
type DisputeLookup func(pair dyad.Pair, year int) bool

// HistoryIndex holds the one-year-lagged dispute indicator per undirected dyad-year.
type HistoryIndex map[dyad.YearPair]bool

// PrevMID reports the lagged indicator of a directed row as 0 or 1.
func (h HistoryIndex) PrevMID(a, b, year int) int {
	if h[dyad.NewYearPair(a, b, year)] {
		return 1
	}
	return 0
}

// BuildHistory computes the lagged dispute indicator. The panel's rows are
// reduced to distinct undirected dyad-years, sorted by (dyad, year). An
// element is flagged iff the element right before it in that order is the
// same dyad, exactly one year earlier, and that earlier dyad-year had a
// dispute. A gap in the dyad's years always resets the indicator.
func BuildHistory(rows []domain.DyadYear, hadDispute DisputeLookup) HistoryIndex {
	seq := make([]dyad.YearPair, 0, len(rows))
	seen := make(map[dyad.YearPair]struct{}, len(rows))
	for _, r := range rows {
		yp := dyad.NewYearPair(r.CCode1, r.CCode2, r.Year)
		if _, ok := seen[yp]; ok {
			continue
		}
		seen[yp] = struct{}{}
		seq = append(seq, yp)
	}

	slices.SortFunc(seq, func(a, b dyad.YearPair) int {
		return cmp.Or(
			cmp.Compare(a.Low, b.Low),
			cmp.Compare(a.High, b.High),
			cmp.Compare(a.Year, b.Year),
		)
	})

	index := make(HistoryIndex, len(seq))
	for i, cur := range seq {
		if i == 0 {
			index[cur] = false
			continue
		}
		prev := seq[i-1]
		index[cur] = prev.Pair == cur.Pair &&
			prev.Year == cur.Year-1 &&
			hadDispute != nil && hadDispute(prev.Pair, prev.Year)
	}
	return index
}
