package domain

// Contiguity types as coded in the contiguity dataset.
const (
	ContiguityNone     = 0 // synthetic major-power row
	ContiguityLand     = 1
	ContiguityWater12  = 2
	ContiguityWater24  = 3
	ContiguityWater150 = 4
	ContiguityWater400 = 5
	MinContiguityType  = ContiguityLand
	MaxContiguityType  = ContiguityWater400
)

// Hostility levels of a militarized dispute.
const (
	HostilityThreat  = 2
	HostilityDisplay = 3
	HostilityUse     = 4
	HostilityWar     = 5
)

// Regime score bounds and the democracy threshold.
const (
	MinRegimeScore     = -10
	MaxRegimeScore     = 10
	DemocracyThreshold = 6
)

// CountryYear is one state observed in one year
type CountryYear struct {
	CCode int `json:"ccode"`
	Year  int `json:"year"`
}

// MajorPowerSpell marks a state as a major power for every year in
// [StartYear, EndYear].
type MajorPowerSpell struct {
	CCode     int `json:"ccode" validate:"gt=0"`
	StartYear int `json:"start_year" validate:"gt=0"`
	EndYear   int `json:"end_year" validate:"gt=0"`
}

// ContiguityRecord is a directed contiguity observation
type ContiguityRecord struct {
	StateA int `json:"ccode1" validate:"gt=0"`
	StateB int `json:"ccode2" validate:"gt=0,nefield=StateA"`
	Year   int `json:"year" validate:"gt=0"`
	Type   int `json:"conttype" validate:"min=1,max=5"`
}

// DisputeOutcome is the peak hostility reached by a dispute between an
// ordered pair of states in a year.
type DisputeOutcome struct {
	StateA         int    `json:"ccode1" validate:"gt=0"`
	StateB         int    `json:"ccode2" validate:"gt=0,nefield=StateA"`
	Year           int    `json:"year" validate:"gt=0"`
	HostilityLevel int    `json:"hihost" validate:"min=2,max=5"`
	DisputeID      string `json:"dispnum"`
}

// TradeFlow holds bilateral flows for a pair in a year. Flows may be
// missing or negative in source data; see the derive package for handling.
type TradeFlow struct {
	StateA   int   `json:"ccode1" validate:"gt=0"`
	StateB   int   `json:"ccode2" validate:"gt=0,nefield=StateA"`
	Year     int   `json:"year" validate:"gt=0"`
	FlowAtoB Float `json:"flow1"`
	FlowBtoA Float `json:"flow2"`
}

// Capability holds the composite capability index and GDP of a state-year.
type Capability struct {
	CCode int   `json:"ccode" validate:"gt=0"`
	Year  int   `json:"year" validate:"gt=0"`
	CINC  Float `json:"cinc"`
	GDP   Float `json:"gdp"`
}

// RegimeScore is a state's regime score in a year on the [-10, 10] scale.
type RegimeScore struct {
	CCode int   `json:"ccode" validate:"gt=0"`
	Year  int   `json:"year" validate:"gt=0"`
	Score Float `json:"polity2"`
}

// AllianceSpell is an alliance between two states from StartYear onward.
// Its end is the end of the analysis window.
type AllianceSpell struct {
	StateA    int `json:"ccode1" validate:"gt=0"`
	StateB    int `json:"ccode2" validate:"gt=0,nefield=StateA"`
	StartYear int `json:"start_year" validate:"gt=0"`
}

// Tables is the full set of normalized input tables for one run. The
// optional tables are nil when the dataset was not supplied, which is
// different from supplied-but-empty.
type Tables struct {
	MajorPowers  []MajorPowerSpell
	Contiguity   []ContiguityRecord
	Disputes     []DisputeOutcome
	Trade        []TradeFlow
	Capabilities []Capability
	Regimes      []RegimeScore
	Alliances    []AllianceSpell
}

// HasTrade reports whether the trade table was supplied
func (t Tables) HasTrade() bool { return t.Trade != nil }

// HasCapabilities reports whether the capability table was supplied
func (t Tables) HasCapabilities() bool { return t.Capabilities != nil }

// HasRegimes reports whether the regime table was supplied
func (t Tables) HasRegimes() bool { return t.Regimes != nil }

// HasAlliances reports whether the alliance table was supplied
func (t Tables) HasAlliances() bool { return t.Alliances != nil }
