// Package panel assembles the analytical dyad-year panel: spell expansion,
// relevance set, outcome merge and derived variables, in that order.
package panel

import (
	"iter"

	"dyadpanel/internal/derive"
	"dyadpanel/internal/dyad"
	"dyadpanel/internal/outcome"
	"dyadpanel/internal/relevance"
	"dyadpanel/pkg/contracts/domain"
)

// Diagnostics are the exact counters reported with a panel.
type Diagnostics struct {
	RunID            string          `json:"run_id,omitempty"`
	StartYear        int             `json:"start_year"`
	EndYear          int             `json:"end_year"`
	TotalRows        int             `json:"total_rows"`
	UniqueDyads      int             `json:"unique_undirected_dyads"`
	ContiguousOnly   int             `json:"contiguous_only"`
	MajorPowerOnly   int             `json:"major_power_only"`
	BothCriteria     int             `json:"both_criteria"`
	MajorPowerYears  int             `json:"major_power_years"`
	ActiveStateYears int             `json:"active_state_years"`
	CaptureRate      float64         `json:"dispute_capture_rate"`
	Relevance        relevance.Stats `json:"relevance"`
	Disputes         outcome.Stats   `json:"disputes"`
	Coverage         derive.Coverage `json:"coverage"`
	MissingTables    []string        `json:"missing_tables,omitempty"`
}

// Panel is the assembled analytical panel. It is read-only: accessors hand
// out copies, never the backing slice.
type Panel struct {
	rows        []domain.PanelRow
	index       map[dyad.Key]int
	diagnostics Diagnostics
}

// Len returns the number of directed dyad-years.
func (p *Panel) Len() int {
	return len(p.rows)
}

// Rows returns a copy of the panel rows sorted by (year, ccode1, ccode2).
func (p *Panel) Rows() []domain.PanelRow {
	out := make([]domain.PanelRow, len(p.rows))
	copy(out, p.rows)
	return out
}

// All iterates the rows in panel order without copying the whole table.
func (p *Panel) All() iter.Seq2[int, domain.PanelRow] {
	return func(yield func(int, domain.PanelRow) bool) {
		for i, r := range p.rows {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Row returns the row of a directed dyad-year.
func (p *Panel) Row(ccode1, ccode2, year int) (domain.PanelRow, bool) {
	i, ok := p.index[dyad.NewKey(ccode1, ccode2, year)]
	if !ok {
		return domain.PanelRow{}, false
	}
	return p.rows[i], true
}

// Diagnostics returns the panel's counters.
func (p *Panel) Diagnostics() Diagnostics {
	d := p.diagnostics
	d.MissingTables = append([]string(nil), p.diagnostics.MissingTables...)
	return d
}

// WithRunID returns a shallow copy of the panel whose diagnostics carry runID.
func (p *Panel) WithRunID(runID string) *Panel {
	cp := *p
	cp.diagnostics.RunID = runID
	return &cp
}
