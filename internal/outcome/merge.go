// Package outcome attaches militarized-dispute outcomes to the relevance panel.
package outcome

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"dyadpanel/internal/dyad"
	"dyadpanel/pkg/contracts/domain"
)

// Outcome is the collapsed dispute record of one directed dyad-year.
type Outcome struct {
	Key            dyad.Key
	HostilityLevel int
	DisputeIDs     []string
}

// IDs joins the dispute identifiers with ";".
func (o Outcome) IDs() string {
	return strings.Join(o.DisputeIDs, ";")
}

// Stats reports what the merge kept and dropped.
type Stats struct {
	InWindow  int `json:"disputes_in_window"`
	Retained  int `json:"disputes_retained"`
	Dropped   int `json:"disputes_dropped"`
	Collapsed int `json:"disputes_collapsed"`
	Outcomes  int `json:"dyad_years_with_dispute"`
}

// CaptureRate is the share of in-window dispute records that fell on a
// politically relevant dyad-year. It is 0 when there were no disputes.
func (s Stats) CaptureRate() float64 {
	if s.InWindow == 0 {
		return 0
	}
	return float64(s.Retained) / float64(s.InWindow)
}

// Result holds the retained outcomes indexed both ways.
type Result struct {
	// Directed maps a directed dyad-year to its outcome.
	Directed map[dyad.Key]Outcome
	// Undirected marks undirected dyad-years with at least one retained dispute.
	Undirected map[dyad.YearPair]struct{}
	Stats      Stats
}

// Lookup returns the outcome recorded for the directed dyad-year, if any.
func (r *Result) Lookup(a, b, year int) (Outcome, bool) {
	o, ok := r.Directed[dyad.NewKey(a, b, year)]
	return o, ok
}

// HadDispute reports whether the undirected dyad had a retained dispute in year.
func (r *Result) HadDispute(pair dyad.Pair, year int) bool {
	_, ok := r.Undirected[dyad.YearPair{Pair: pair, Year: year}]
	return ok
}

// Merger matches dispute records to the relevance panel
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a new outcome merger
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger.With(slog.String("component", "outcome_merger"))}
}

// Merge keeps the in-window disputes whose directed key is a panel row and
// drops the rest. Disputes on non-relevant dyads are outside the sample by
// construction, so dropping them is reported, not raised.
//
// Several disputes on one directed dyad-year collapse into a single outcome
// carrying the highest hostility level and every dispute id.
func (m *Merger) Merge(ctx context.Context, disputes []domain.DisputeOutcome, panel []domain.DyadYear, start, end int) *Result {
	relevant := make(map[dyad.Key]struct{}, len(panel))
	for _, r := range panel {
		relevant[dyad.NewKey(r.CCode1, r.CCode2, r.Year)] = struct{}{}
	}

	res := &Result{
		Directed:   make(map[dyad.Key]Outcome),
		Undirected: make(map[dyad.YearPair]struct{}),
	}

	for _, d := range disputes {
		if d.Year < start || d.Year > end {
			continue
		}
		res.Stats.InWindow++

		key := dyad.NewKey(d.StateA, d.StateB, d.Year)
		if _, ok := relevant[key]; !ok {
			res.Stats.Dropped++
			continue
		}
		res.Stats.Retained++

		o, exists := res.Directed[key]
		if exists {
			res.Stats.Collapsed++
		} else {
			o = Outcome{Key: key}
		}
		o.HostilityLevel = max(o.HostilityLevel, d.HostilityLevel)
		if d.DisputeID != "" && !slices.Contains(o.DisputeIDs, d.DisputeID) {
			o.DisputeIDs = append(o.DisputeIDs, d.DisputeID)
			slices.Sort(o.DisputeIDs)
		}
		res.Directed[key] = o
		res.Undirected[key.Undirected()] = struct{}{}
	}
	res.Stats.Outcomes = len(res.Directed)

	m.logger.InfoContext(ctx, "dispute outcomes merged",
		slog.Int("in_window", res.Stats.InWindow),
		slog.Int("retained", res.Stats.Retained),
		slog.Int("dropped", res.Stats.Dropped),
		slog.Int("collapsed", res.Stats.Collapsed),
		slog.Float64("capture_rate", res.Stats.CaptureRate()))

	return res
}

// Sorted returns the retained outcomes ordered by (year, ccode1, ccode2).
func (r *Result) Sorted() []Outcome {
	out := make([]Outcome, 0, len(r.Directed))
	for _, o := range r.Directed {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b Outcome) int {
		return cmp.Or(
			cmp.Compare(a.Key.Year, b.Key.Year),
			cmp.Compare(a.Key.A, b.Key.A),
			cmp.Compare(a.Key.B, b.Key.B),
		)
	})
	return out
}
