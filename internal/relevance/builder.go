// Package relevance derives the politically relevant dyad-year set: every
// directed pair that is geographically contiguous or includes a major power.
package relevance

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"dyadpanel/internal/dyad"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/pkg/contracts/domain"
)

// Input holds the windowed tables the builder consumes.
type Input struct {
	// Contiguity rows, directed as given by the source.
	Contiguity []domain.ContiguityRecord
	// MajorPowers are the major-power country-years.
	MajorPowers []domain.CountryYear
	// Active is the universe of dyad-eligible states per year. Synthetic
	// major-power rows pair a major power only with active states.
	Active []domain.CountryYear
}

// Options tunes the builder without changing its output.
type Options struct {
	// Parallelism bounds the number of years cross-joined concurrently.
	// Values below 2 run sequentially.
	Parallelism int
}

// Stats are exact counters describing one build.
type Stats struct {
	Years               int `json:"years"`
	ContiguityRows      int `json:"contiguity_rows"`
	DuplicateContiguity int `json:"duplicate_contiguity_rows"`
	SyntheticCandidates int `json:"synthetic_candidates"`
	SyntheticDiscarded  int `json:"synthetic_discarded"`
	SyntheticRows       int `json:"synthetic_rows"`
	ContiguousOnly      int `json:"contiguous_only"`
	MajorPowerOnly      int `json:"major_power_only"`
	BothCriteria        int `json:"both_criteria"`
	TotalRows           int `json:"total_rows"`
}

// Result is the relevance panel and its build counters.
type Result struct {
	Rows  []domain.DyadYear
	Stats Stats
}

// Builder builds the relevance panel
type Builder struct {
	logger *slog.Logger
	opts   Options
}

// NewBuilder creates a relevance builder
func NewBuilder(logger *slog.Logger, opts Options) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger: logger.With(slog.String("component", "relevance_builder")),
		opts:   opts,
	}
}

// yearSlice is the per-year work unit of the major-power cross-join.
type yearSlice struct {
	year   int
	majors []int
	active []int
}

// yearOutput is what one year contributes; each worker owns its own value.
type yearOutput struct {
	rows       []domain.DyadYear
	candidates int
	discarded  int
}

// Build runs the four relevance steps:
//
//  1. every contiguity row qualifies; HasMajorPower is set when either side
//     is a major power that year;
//  2. for each year and major power m, synthetic rows (m,s) and (s,m) are
//     proposed for every other active state s, with contiguity type 0;
//  3. a synthetic row is discarded when a contiguity row with the same
//     directed key exists, so the contiguity row (with its true type) wins;
//  4. surviving synthetic rows are unioned with the contiguity rows.
//
// Rows come back sorted by (year, ccode1, ccode2).
func (b *Builder) Build(ctx context.Context, in Input) (*Result, error) {
	majorSet := make(map[domain.CountryYear]struct{}, len(in.MajorPowers))
	for _, cy := range in.MajorPowers {
		majorSet[cy] = struct{}{}
	}
	isMajor := func(ccode, year int) bool {
		_, ok := majorSet[domain.CountryYear{CCode: ccode, Year: year}]
		return ok
	}

	contiguous, duplicates := collapseContiguity(in.Contiguity)
	if duplicates > 0 {
		b.logger.WarnContext(ctx, "duplicate directed contiguity rows collapsed to closest type",
			slog.Int("duplicates", duplicates))
	}

	stats := Stats{ContiguityRows: len(contiguous), DuplicateContiguity: duplicates}

	// Step 1
	rows := make([]domain.DyadYear, 0, len(contiguous))
	existing := make(map[dyad.Key]struct{}, len(contiguous))
	for _, c := range contiguous {
		key := dyad.NewKey(c.StateA, c.StateB, c.Year)
		existing[key] = struct{}{}
		rows = append(rows, domain.DyadYear{
			CCode1:         c.StateA,
			CCode2:         c.StateB,
			Year:           c.Year,
			ContiguityType: c.Type,
			IsContiguous:   true,
			HasMajorPower:  isMajor(c.StateA, c.Year) || isMajor(c.StateB, c.Year),
			UndirectedID:   dyad.UndirectedID(c.StateA, c.StateB),
		})
	}

	// Steps 2 and 3, one year at a time
	slicesByYear := partitionByYear(in.MajorPowers, in.Active)
	stats.Years = len(slicesByYear)
	outputs := make([]yearOutput, len(slicesByYear))

	g, gctx := errgroup.WithContext(ctx)
	if b.opts.Parallelism > 1 {
		g.SetLimit(b.opts.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for i, ys := range slicesByYear {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("cross-join year %d: %w", ys.year, err)
			}
			outputs[i] = crossJoinYear(ys, existing)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Step 4
	for _, out := range outputs {
		stats.SyntheticCandidates += out.candidates
		stats.SyntheticDiscarded += out.discarded
		stats.SyntheticRows += len(out.rows)
		rows = append(rows, out.rows...)
	}

	slices.SortFunc(rows, compareRows)

	for i := range rows {
		if i > 0 && compareRows(rows[i-1], rows[i]) == 0 {
			return nil, apperrors.NewIntegrityError("duplicate directed dyad-year in relevance set", nil).
				WithContext("key", dyad.Directed(rows[i].CCode1, rows[i].CCode2, rows[i].Year))
		}
		switch {
		case rows[i].BothCriteria():
			stats.BothCriteria++
		case rows[i].IsContiguous:
			stats.ContiguousOnly++
		case rows[i].HasMajorPower:
			stats.MajorPowerOnly++
		}
	}
	stats.TotalRows = len(rows)

	b.logger.InfoContext(ctx, "relevance set built",
		slog.Int("years", stats.Years),
		slog.Int("contiguity_rows", stats.ContiguityRows),
		slog.Int("synthetic_rows", stats.SyntheticRows),
		slog.Int("synthetic_discarded", stats.SyntheticDiscarded),
		slog.Int("both_criteria", stats.BothCriteria),
		slog.Int("total_rows", stats.TotalRows))

	return &Result{Rows: rows, Stats: stats}, nil
}

// crossJoinYear proposes the synthetic major-power rows of one year. A pair
// of two major powers is proposed from both sides; the seen set keeps one.
func crossJoinYear(ys yearSlice, existing map[dyad.Key]struct{}) yearOutput {
	var out yearOutput
	seen := make(map[dyad.Key]struct{}, len(ys.majors)*len(ys.active)*2)
	for _, m := range ys.majors {
		for _, s := range ys.active {
			if s == m {
				continue
			}
			for _, key := range [2]dyad.Key{dyad.NewKey(m, s, ys.year), dyad.NewKey(s, m, ys.year)} {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out.candidates++
				if _, ok := existing[key]; ok {
					out.discarded++
					continue
				}
				out.rows = append(out.rows, domain.DyadYear{
					CCode1:         key.A,
					CCode2:         key.B,
					Year:           key.Year,
					ContiguityType: domain.ContiguityNone,
					IsContiguous:   false,
					HasMajorPower:  true,
					UndirectedID:   dyad.UndirectedID(key.A, key.B),
				})
			}
		}
	}
	return out
}

// partitionByYear groups major powers and active states by year. Only years
// with at least one major power produce work. Both lists are sorted and
// deduplicated so the cross-join is deterministic.
func partitionByYear(majors, active []domain.CountryYear) []yearSlice {
	majorByYear := groupByYear(majors)
	activeByYear := groupByYear(active)

	years := make([]int, 0, len(majorByYear))
	for y := range majorByYear {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make([]yearSlice, 0, len(years))
	for _, y := range years {
		out = append(out, yearSlice{year: y, majors: majorByYear[y], active: activeByYear[y]})
	}
	return out
}

func groupByYear(rows []domain.CountryYear) map[int][]int {
	byYear := make(map[int][]int)
	for _, cy := range rows {
		byYear[cy.Year] = append(byYear[cy.Year], cy.CCode)
	}
	for y, codes := range byYear {
		slices.Sort(codes)
		byYear[y] = slices.Compact(codes)
	}
	return byYear
}

// collapseContiguity keeps one row per directed key, choosing the closest
// (lowest) contiguity type, and reports how many rows were folded away.
func collapseContiguity(records []domain.ContiguityRecord) ([]domain.ContiguityRecord, int) {
	index := make(map[dyad.Key]int, len(records))
	out := make([]domain.ContiguityRecord, 0, len(records))
	duplicates := 0
	for _, r := range records {
		key := dyad.NewKey(r.StateA, r.StateB, r.Year)
		if i, ok := index[key]; ok {
			duplicates++
			if r.Type < out[i].Type {
				out[i].Type = r.Type
			}
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out, duplicates
}

func compareRows(a, b domain.DyadYear) int {
	return cmp.Or(
		cmp.Compare(a.Year, b.Year),
		cmp.Compare(a.CCode1, b.CCode1),
		cmp.Compare(a.CCode2, b.CCode2),
	)
}
