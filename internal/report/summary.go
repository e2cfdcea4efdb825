// Package report builds the descriptive summary tables of an assembled panel.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"dyadpanel/internal/panel"
	"dyadpanel/pkg/contracts/domain"
)

// Table is a rectangular summary table. Name doubles as the CSV file stem
// and the workbook sheet name.
type Table struct {
	Name   string     `json:"name"`
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Summary holds every summary table of a panel
type Summary struct {
	Composition   Table
	Outcomes      Table
	Descriptives  Table
	Vulnerability Table
	Yearly        Table
}

// Tables returns the tables in presentation order
func (s *Summary) Tables() []Table {
	return []Table{s.Composition, s.Outcomes, s.Descriptives, s.Vulnerability, s.Yearly}
}

// Variable is a numeric panel column
type Variable struct {
	Name  string
	Value func(domain.PanelRow) domain.Float
}

func intValue(v int) domain.Float { return domain.Some(float64(v)) }

// Variables are the derived columns summarized in the descriptives table
var Variables = []Variable{
	{"trade_total", func(r domain.PanelRow) domain.Float { return r.Trade.Total }},
	{"dependence_lower", func(r domain.PanelRow) domain.Float { return r.Trade.Lower }},
	{"dependence_higher", func(r domain.PanelRow) domain.Float { return r.Trade.Higher }},
	{"asymmetry", func(r domain.PanelRow) domain.Float { return r.Trade.Asymmetry }},
	{"vulnerability_ratio", func(r domain.PanelRow) domain.Float { return r.Trade.Vulnerability }},
	{"capability_ratio", func(r domain.PanelRow) domain.Float { return r.CapabilityRatio }},
	{"power_parity", func(r domain.PanelRow) domain.Float { return intValue(r.PowerParity) }},
	{"joint_democracy", func(r domain.PanelRow) domain.Float { return r.JointDemocracy.Float() }},
	{"mixed_regime", func(r domain.PanelRow) domain.Float { return r.MixedRegime.Float() }},
	{"alliance", func(r domain.PanelRow) domain.Float { return r.Alliance.Float() }},
	{"prev_mid", func(r domain.PanelRow) domain.Float { return intValue(r.PrevMID) }},
	{"conflict_intensity", func(r domain.PanelRow) domain.Float { return intValue(r.ConflictIntensity) }},
}

// conflictLevels are the values conflict intensity takes, with labels
var conflictLevels = []struct {
	Level int
	Label string
}{
	{0, "No dispute"},
	{domain.HostilityThreat, "Threat"},
	{domain.HostilityDisplay, "Display"},
	{domain.HostilityUse, "Use of force"},
	{domain.HostilityWar, "War"},
}

// Builder computes summary tables
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a summary builder
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger.With(slog.String("component", "report_builder"))}
}

// Build computes every summary table of p
func (b *Builder) Build(ctx context.Context, p *panel.Panel) *Summary {
	rows := p.Rows()
	diag := p.Diagnostics()

	s := &Summary{
		Composition:   composition(diag),
		Outcomes:      outcomes(rows),
		Descriptives:  descriptives(rows),
		Vulnerability: vulnerabilityByHostility(rows),
		Yearly:        yearly(rows),
	}

	b.logger.InfoContext(ctx, "summary tables built",
		slog.Int("rows", len(rows)),
		slog.Int("tables", len(s.Tables())))
	return s
}

func composition(d panel.Diagnostics) Table {
	t := Table{
		Name:   "composition",
		Title:  "Sample composition",
		Header: []string{"category", "rows", "share_pct"},
	}
	add := func(label string, n int) {
		t.Rows = append(t.Rows, []string{label, strconv.Itoa(n), percent(n, d.TotalRows)})
	}
	add("contiguous_only", d.ContiguousOnly)
	add("major_power_only", d.MajorPowerOnly)
	add("both_criteria", d.BothCriteria)
	add("total", d.TotalRows)
	t.Rows = append(t.Rows,
		[]string{"unique_undirected_dyads", strconv.Itoa(d.UniqueDyads), ""},
		[]string{"disputes_retained", strconv.Itoa(d.Disputes.Retained), ""},
		[]string{"disputes_dropped", strconv.Itoa(d.Disputes.Dropped), ""},
		[]string{"dispute_capture_pct", "", formatFloat(100*d.CaptureRate, 2)},
	)
	return t
}

func outcomes(rows []domain.PanelRow) Table {
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.ConflictIntensity]++
	}

	t := Table{
		Name:   "outcomes",
		Title:  "Outcome distribution",
		Header: []string{"conflict_intensity", "label", "rows", "share_pct"},
	}
	for _, lvl := range conflictLevels {
		n := counts[lvl.Level]
		t.Rows = append(t.Rows, []string{strconv.Itoa(lvl.Level), lvl.Label, strconv.Itoa(n), percent(n, len(rows))})
	}
	return t
}

func descriptives(rows []domain.PanelRow) Table {
	t := Table{
		Name:   "descriptives",
		Title:  "Descriptive statistics",
		Header: []string{"variable", "n", "mean", "sd", "min", "median", "max"},
	}
	for _, v := range Variables {
		d := Describe(defined(rows, v.Value))
		t.Rows = append(t.Rows, []string{
			v.Name,
			strconv.Itoa(d.N),
			formatFloat(d.Mean, 4),
			formatFloat(d.SD, 4),
			formatFloat(d.Min, 4),
			formatFloat(d.Median, 4),
			formatFloat(d.Max, 4),
		})
	}
	return t
}

// vulnerabilityByHostility compares trade measures across hostility levels
// among dispute dyad-years.
func vulnerabilityByHostility(rows []domain.PanelRow) Table {
	t := Table{
		Name:   "vulnerability_by_hostility",
		Title:  "Trade vulnerability by hostility level (dispute dyad-years)",
		Header: []string{"hostility", "label", "rows", "n_vulnerability", "mean_vulnerability", "mean_asymmetry"},
	}
	for _, lvl := range conflictLevels[1:] {
		var subset []domain.PanelRow
		for _, r := range rows {
			if r.ConflictIntensity == lvl.Level {
				subset = append(subset, r)
			}
		}
		vuln := defined(subset, func(r domain.PanelRow) domain.Float { return r.Trade.Vulnerability })
		asym := defined(subset, func(r domain.PanelRow) domain.Float { return r.Trade.Asymmetry })
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(lvl.Level),
			lvl.Label,
			strconv.Itoa(len(subset)),
			strconv.Itoa(len(vuln)),
			formatFloat(Describe(vuln).Mean, 4),
			formatFloat(Describe(asym).Mean, 4),
		})
	}
	return t
}

func yearly(rows []domain.PanelRow) Table {
	type counts struct{ rows, contiguous, major, disputes int }
	byYear := make(map[int]*counts)
	var years []int
	for _, r := range rows {
		c, ok := byYear[r.Year]
		if !ok {
			c = &counts{}
			byYear[r.Year] = c
			years = append(years, r.Year)
		}
		c.rows++
		if r.IsContiguous {
			c.contiguous++
		}
		if r.HasMajorPower {
			c.major++
		}
		if r.HasDispute() {
			c.disputes++
		}
	}
	slices.Sort(years)

	t := Table{
		Name:   "yearly",
		Title:  "Yearly counts",
		Header: []string{"year", "rows", "contiguous", "major_power", "disputes"},
	}
	for _, y := range years {
		c := byYear[y]
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(y),
			strconv.Itoa(c.rows),
			strconv.Itoa(c.contiguous),
			strconv.Itoa(c.major),
			strconv.Itoa(c.disputes),
		})
	}
	return t
}

func defined(rows []domain.PanelRow, value func(domain.PanelRow) domain.Float) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := value(r).Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

func percent(n, total int) string {
	if total == 0 {
		return domain.NA
	}
	return formatFloat(100*float64(n)/float64(total), 2)
}

func formatFloat(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NA
	}
	return fmt.Sprintf("%.*f", precision, v)
}
