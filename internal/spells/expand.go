// Package spells turns interval records into one observation per entity-year.
//
// Expansion never applies the analysis window. A spell lying entirely outside
// the window still expands in full; windowing is done by the consumers so the
// same expansion serves both windowed and open-ended features.
package spells

import (
	"cmp"
	"slices"

	apperrors "dyadpanel/internal/errors"
	"dyadpanel/pkg/contracts/domain"
)

// Spell is an inclusive [Start, End] interval attached to an entity.
type Spell[K comparable] struct {
	Entity K
	Start  int
	End    int
}

// EntityYear is one entity observed in one year.
type EntityYear[K comparable] struct {
	Entity K
	Year   int
}

// Years returns the number of years the spell covers.
func (s Spell[K]) Years() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start + 1
}

// Expand returns the unique (entity, year) pairs covered by spells. Years
// shared by overlapping spells of one entity appear once. Results are
// grouped by entity in first-seen order and sorted by year within each
// entity. A spell with Start > End is an integrity error.
func Expand[K comparable](spells []Spell[K]) ([]EntityYear[K], error) {
	total := 0
	for i, s := range spells {
		if s.Start > s.End {
			return nil, apperrors.NewIntegrityError("malformed spell: start year after end year", nil).
				WithContext("index", i).
				WithContext("entity", s.Entity).
				WithContext("start_year", s.Start).
				WithContext("end_year", s.End)
		}
		total += s.Years()
	}

	order := make([]K, 0)
	years := make(map[K]map[int]struct{})
	for _, s := range spells {
		set, ok := years[s.Entity]
		if !ok {
			set = make(map[int]struct{}, s.Years())
			years[s.Entity] = set
			order = append(order, s.Entity)
		}
		for y := s.Start; y <= s.End; y++ {
			set[y] = struct{}{}
		}
	}

	out := make([]EntityYear[K], 0, total)
	for _, entity := range order {
		ys := make([]int, 0, len(years[entity]))
		for y := range years[entity] {
			ys = append(ys, y)
		}
		slices.Sort(ys)
		for _, y := range ys {
			out = append(out, EntityYear[K]{Entity: entity, Year: y})
		}
	}
	return out, nil
}

// Set is a membership index over expanded entity-years.
type Set[K comparable] map[EntityYear[K]]struct{}

// NewSet indexes expanded entity-years for membership tests.
func NewSet[K comparable](rows []EntityYear[K]) Set[K] {
	set := make(Set[K], len(rows))
	for _, r := range rows {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether entity is present in year.
func (s Set[K]) Contains(entity K, year int) bool {
	_, ok := s[EntityYear[K]{Entity: entity, Year: year}]
	return ok
}

// MajorPowerYears expands major-power spells into sorted country-years.
func MajorPowerYears(records []domain.MajorPowerSpell) ([]domain.CountryYear, error) {
	in := make([]Spell[int], len(records))
	for i, r := range records {
		in[i] = Spell[int]{Entity: r.CCode, Start: r.StartYear, End: r.EndYear}
	}
	expanded, err := Expand(in)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CountryYear, len(expanded))
	for i, e := range expanded {
		out[i] = domain.CountryYear{CCode: e.Entity, Year: e.Year}
	}
	slices.SortFunc(out, func(a, b domain.CountryYear) int {
		return cmp.Or(cmp.Compare(a.CCode, b.CCode), cmp.Compare(a.Year, b.Year))
	})
	return out, nil
}

// Window keeps the country-years whose year lies in [start, end].
func Window(rows []domain.CountryYear, start, end int) []domain.CountryYear {
	out := make([]domain.CountryYear, 0, len(rows))
	for _, r := range rows {
		if r.Year >= start && r.Year <= end {
			out = append(out, r)
		}
	}
	return out
}
