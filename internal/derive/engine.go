package derive

import (
	"context"
	"fmt"
	"log/slog"

	"dyadpanel/internal/dyad"
	"dyadpanel/internal/outcome"
	"dyadpanel/internal/spells"
	"dyadpanel/pkg/contracts/domain"
)

// Coverage counts, per derived variable, the rows on which it is defined.
// PowerParity, PrevMID and Disputes are always defined and count the rows
// where the indicator is set.
type Coverage struct {
	TradeTotal      int `json:"trade_total"`
	DependenceLower int `json:"dependence_lower"`
	Asymmetry       int `json:"asymmetry"`
	Vulnerability   int `json:"vulnerability_ratio"`
	CapabilityRatio int `json:"capability_ratio"`
	PowerParity     int `json:"power_parity"`
	JointDemocracy  int `json:"joint_democracy"`
	MixedRegime     int `json:"mixed_regime"`
	Alliance        int `json:"alliance"`
	PrevMID         int `json:"prev_mid"`
	Disputes        int `json:"disputes"`
}

// Input is everything the engine needs for one window.
type Input struct {
	Rows     []domain.DyadYear
	Outcomes *outcome.Result
	Tables   domain.Tables
	Start    int
	End      int
}

// Engine derives panel covariates
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a derived-variable engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With(slog.String("component", "derive_engine"))}
}

type stateYearValues struct {
	cinc   domain.Float
	gdp    domain.Float
	regime domain.Float
}

// Derive enriches every relevance row. Absent optional tables leave their
// variables undefined on every row; they never fail the run. The output is
// a new slice in the order of in.Rows.
func (e *Engine) Derive(ctx context.Context, in Input) ([]domain.PanelRow, Coverage, error) {
	var cov Coverage

	states := make(map[domain.CountryYear]stateYearValues)
	for _, c := range in.Tables.Capabilities {
		k := domain.CountryYear{CCode: c.CCode, Year: c.Year}
		v := states[k]
		v.cinc, v.gdp = c.CINC, c.GDP
		states[k] = v
	}
	for _, r := range in.Tables.Regimes {
		k := domain.CountryYear{CCode: r.CCode, Year: r.Year}
		v := states[k]
		v.regime = r.Score
		states[k] = v
	}

	var trade *TradeIndex
	if in.Tables.HasTrade() {
		trade = NewTradeIndex(in.Tables.Trade)
		if trade.Duplicates() > 0 {
			e.logger.WarnContext(ctx, "duplicate trade records ignored",
				slog.Int("duplicates", trade.Duplicates()))
		}
	} else {
		e.logger.WarnContext(ctx, "trade table not supplied; trade variables undefined")
	}
	if !in.Tables.HasCapabilities() {
		e.logger.WarnContext(ctx, "capability table not supplied; dependence and capability variables undefined")
	}
	if !in.Tables.HasRegimes() {
		e.logger.WarnContext(ctx, "regime table not supplied; regime variables undefined")
	}

	var alliances spells.Set[dyad.Pair]
	if in.Tables.HasAlliances() {
		set, err := allianceYears(in.Tables.Alliances, in.End)
		if err != nil {
			return nil, Coverage{}, fmt.Errorf("expand alliance spells: %w", err)
		}
		alliances = set
	} else {
		e.logger.WarnContext(ctx, "alliance table not supplied; alliance flag undefined")
	}

	var hadDispute DisputeLookup
	if in.Outcomes != nil {
		hadDispute = in.Outcomes.HadDispute
	}
	history := BuildHistory(in.Rows, hadDispute)

	out := make([]domain.PanelRow, len(in.Rows))
	for i, r := range in.Rows {
		if i%50000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, Coverage{}, fmt.Errorf("derive variables: %w", err)
			}
		}

		s1 := states[domain.CountryYear{CCode: r.CCode1, Year: r.Year}]
		s2 := states[domain.CountryYear{CCode: r.CCode2, Year: r.Year}]

		row := domain.PanelRow{
			DyadYear: r,
			CINC1:    s1.cinc,
			CINC2:    s2.cinc,
			Regime1:  s1.regime,
			Regime2:  s2.regime,
			PrevMID:  history.PrevMID(r.CCode1, r.CCode2, r.Year),
		}

		row.Trade = TradeMeasures(trade.Total(r.CCode1, r.CCode2, r.Year), s1.gdp, s2.gdp)
		row.CapabilityRatio = CapabilityRatio(s1.cinc, s2.cinc)
		row.PowerParity = PowerParity(row.CapabilityRatio)
		row.JointDemocracy = JointDemocracy(s1.regime, s2.regime)
		row.MixedRegime = MixedRegime(s1.regime, s2.regime)

		if alliances != nil {
			row.Alliance = domain.FlagOf(alliances.Contains(dyad.NewPair(r.CCode1, r.CCode2), r.Year))
		}

		if in.Outcomes != nil {
			if o, ok := in.Outcomes.Lookup(r.CCode1, r.CCode2, r.Year); ok {
				row.ConflictIntensity = o.HostilityLevel
				row.DisputeIDs = o.IDs()
			}
		}

		cov.add(row)
		out[i] = row
	}

	e.logger.InfoContext(ctx, "derived variables computed",
		slog.Int("rows", len(out)),
		slog.Int("trade_defined", cov.TradeTotal),
		slog.Int("vulnerability_defined", cov.Vulnerability),
		slog.Int("capability_defined", cov.CapabilityRatio),
		slog.Int("prev_mid", cov.PrevMID),
		slog.Int("disputes", cov.Disputes))

	return out, cov, nil
}

func (c *Coverage) add(r domain.PanelRow) {
	if r.Trade.Total.Valid {
		c.TradeTotal++
	}
	if r.Trade.Lower.Valid {
		c.DependenceLower++
	}
	if r.Trade.Asymmetry.Valid {
		c.Asymmetry++
	}
	if r.Trade.Vulnerability.Valid {
		c.Vulnerability++
	}
	if r.CapabilityRatio.Valid {
		c.CapabilityRatio++
	}
	c.PowerParity += r.PowerParity
	if r.JointDemocracy.Valid {
		c.JointDemocracy++
	}
	if r.MixedRegime.Valid {
		c.MixedRegime++
	}
	if r.Alliance.Valid {
		c.Alliance++
	}
	c.PrevMID += r.PrevMID
	if r.HasDispute() {
		c.Disputes++
	}
}

// allianceYears expands alliance spells to the end of the window. Spells
// that start after the window contribute nothing.
func allianceYears(records []domain.AllianceSpell, end int) (spells.Set[dyad.Pair], error) {
	in := make([]spells.Spell[dyad.Pair], 0, len(records))
	for _, a := range records {
		if a.StartYear > end {
			continue
		}
		in = append(in, spells.Spell[dyad.Pair]{
			Entity: dyad.NewPair(a.StateA, a.StateB),
			Start:  a.StartYear,
			End:    end,
		})
	}
	years, err := spells.Expand(in)
	if err != nil {
		return nil, err
	}
	return spells.NewSet(years), nil
}
