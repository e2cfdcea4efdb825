package domain

// DyadYear is a politically relevant directed dyad in one year. A row is
// relevant because the pair is contiguous, because one side is a major
// power, or both.
type DyadYear struct {
	CCode1         int    `json:"ccode1"`
	CCode2         int    `json:"ccode2"`
	Year           int    `json:"year"`
	ContiguityType int    `json:"conttype"`
	IsContiguous   bool   `json:"contiguous"`
	HasMajorPower  bool   `json:"major_power"`
	UndirectedID   string `json:"dyad_id"`
}

// IsRelevant reports whether the row satisfies at least one inclusion rule
func (d DyadYear) IsRelevant() bool {
	return d.IsContiguous || d.HasMajorPower
}

// BothCriteria reports whether the row qualifies by contiguity and by major-power presence
func (d DyadYear) BothCriteria() bool {
	return d.IsContiguous && d.HasMajorPower
}

// TradeVariables are the bilateral trade measures of a dyad-year
type TradeVariables struct {
	Total         Float `json:"trade_total"`
	Dependence1   Float `json:"dependence1"`
	Dependence2   Float `json:"dependence2"`
	Lower         Float `json:"dependence_lower"`
	Higher        Float `json:"dependence_higher"`
	Asymmetry     Float `json:"asymmetry"`
	Vulnerability Float `json:"vulnerability_ratio"`
}

// PanelRow is one observation of the analytical panel: a DyadYear enriched
// with derived covariates and the conflict outcome.
type PanelRow struct {
	DyadYear

	Trade TradeVariables `json:"trade"`

	CINC1           Float `json:"cinc1"`
	CINC2           Float `json:"cinc2"`
	CapabilityRatio Float `json:"capability_ratio"`
	PowerParity     int   `json:"power_parity"`

	Regime1        Float `json:"regime1"`
	Regime2        Float `json:"regime2"`
	JointDemocracy Flag  `json:"joint_democracy"`
	MixedRegime    Flag  `json:"mixed_regime"`

	Alliance Flag `json:"alliance"`
	PrevMID  int  `json:"prev_mid"`

	// ConflictIntensity is 0 without a dispute, otherwise the hostility level.
	ConflictIntensity int    `json:"conflict_intensity"`
	DisputeIDs        string `json:"dispute_ids,omitempty"`
}

// HasDispute reports whether a dispute was recorded for the row
func (r PanelRow) HasDispute() bool {
	return r.ConflictIntensity > 0
}
