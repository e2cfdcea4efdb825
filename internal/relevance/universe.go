package relevance

import (
	"cmp"
	"slices"

	"dyadpanel/pkg/contracts/domain"
)

// WindowContiguity keeps contiguity rows whose year lies in [start, end].
func WindowContiguity(records []domain.ContiguityRecord, start, end int) []domain.ContiguityRecord {
	out := make([]domain.ContiguityRecord, 0, len(records))
	for _, r := range records {
		if r.Year >= start && r.Year <= end {
			out = append(out, r)
		}
	}
	return out
}

// ActiveStates derives the dyad-eligible universe per year: every state that
// appears on either side of a contiguity row that year, plus every major
// power of that year. Including the major powers means a major power with no
// contiguous neighbours is still paired with the states that do appear.
func ActiveStates(contiguity []domain.ContiguityRecord, majorPowers []domain.CountryYear) []domain.CountryYear {
	set := make(map[domain.CountryYear]struct{}, len(contiguity))
	for _, r := range contiguity {
		set[domain.CountryYear{CCode: r.StateA, Year: r.Year}] = struct{}{}
		set[domain.CountryYear{CCode: r.StateB, Year: r.Year}] = struct{}{}
	}
	for _, cy := range majorPowers {
		set[cy] = struct{}{}
	}

	out := make([]domain.CountryYear, 0, len(set))
	for cy := range set {
		out = append(out, cy)
	}
	slices.SortFunc(out, func(a, b domain.CountryYear) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.CCode, b.CCode))
	})
	return out
}
