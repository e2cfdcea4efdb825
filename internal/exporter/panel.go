package exporter

import (
	"iter"

	"dyadpanel/internal/panel"
	"dyadpanel/pkg/contracts/domain"
)

// PanelColumns is the column contract of the panel CSV. Downstream scripts
// address columns by these names; append new columns, never reorder.
var PanelColumns = []string{
	"year", "ccode1", "ccode2", "dyad_id",
	"conttype", "contiguous", "major_power",
	"trade_total", "dependence1", "dependence2",
	"dependence_lower", "dependence_higher", "asymmetry", "vulnerability_ratio",
	"cinc1", "cinc2", "capability_ratio", "power_parity",
	"regime1", "regime2", "joint_democracy", "mixed_regime",
	"alliance", "prev_mid",
	"conflict_intensity", "dispute_ids",
}

// PanelRecord flattens a row in PanelColumns order
func PanelRecord(r domain.PanelRow) []string {
	return []string{
		formatInt(r.Year), formatInt(r.CCode1), formatInt(r.CCode2), r.UndirectedID,
		formatInt(r.ContiguityType), formatBool(r.IsContiguous), formatBool(r.HasMajorPower),
		formatFloat(r.Trade.Total), formatFloat(r.Trade.Dependence1), formatFloat(r.Trade.Dependence2),
		formatFloat(r.Trade.Lower), formatFloat(r.Trade.Higher), formatFloat(r.Trade.Asymmetry), formatFloat(r.Trade.Vulnerability),
		formatFloat(r.CINC1), formatFloat(r.CINC2), formatFloat(r.CapabilityRatio), formatInt(r.PowerParity),
		formatFloat(r.Regime1), formatFloat(r.Regime2), r.JointDemocracy.String(), r.MixedRegime.String(),
		r.Alliance.String(), formatInt(r.PrevMID),
		formatInt(r.ConflictIntensity), r.DisputeIDs,
	}
}

// panelRecords streams the panel without materializing a copy of the rows
func panelRecords(p *panel.Panel) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for _, r := range p.All() {
			if !yield(PanelRecord(r)) {
				return
			}
		}
	}
}
