package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	apperrors "dyadpanel/internal/errors"
	"dyadpanel/pkg/contracts/domain"
)

// Cell values read as missing
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	".":    {},
	"nan":  {},
	"null": {},
}

// rowReader reads typed values from one source row
type rowReader struct {
	table string
	line  int
	cols  map[string]int
	cells []string
}

func (r rowReader) raw(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r rowReader) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// key parses a required integer column. Missing or non-integer values are
// integrity errors; the loader skips such rows in optional tables.
func (r rowReader) key(col string) (int, error) {
	s := r.raw(col)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Spreadsheets store whole numbers as floats
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return int(f), nil
	}
	return 0, apperrors.NewIntegrityError("missing or mistyped key column", nil).
		WithContext("table", r.table).
		WithContext("line", r.line).
		WithContext("column", col).
		WithContext("value", s)
}

// float parses an optional numeric column. Missing tokens and unparseable
// values are undefined.
func (r rowReader) float(col string) domain.Float {
	s := r.raw(col)
	if _, missing := missingTokens[strings.ToLower(s)]; missing {
		return domain.None()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return domain.None()
	}
	return domain.Some(v)
}

func (r rowReader) text(col string) string {
	s := r.raw(col)
	// Integral ids exported from spreadsheets come back as "4001.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func parseMajorPower(r rowReader) (domain.MajorPowerSpell, error) {
	var rec domain.MajorPowerSpell
	var err error
	if rec.CCode, err = r.key(ColCCode); err != nil {
		return rec, err
	}
	if rec.StartYear, err = r.key(ColStartYear); err != nil {
		return rec, err
	}
	rec.EndYear, err = r.key(ColEndYear)
	return rec, err
}

func parseContiguity(r rowReader) (domain.ContiguityRecord, error) {
	var rec domain.ContiguityRecord
	var err error
	if rec.StateA, err = r.key(ColCCode1); err != nil {
		return rec, err
	}
	if rec.StateB, err = r.key(ColCCode2); err != nil {
		return rec, err
	}
	if rec.Year, err = r.key(ColYear); err != nil {
		return rec, err
	}
	rec.Type, err = r.key(ColContType)
	return rec, err
}

func parseDispute(r rowReader) (domain.DisputeOutcome, error) {
	var rec domain.DisputeOutcome
	var err error
	if rec.StateA, err = r.key(ColCCode1); err != nil {
		return rec, err
	}
	if rec.StateB, err = r.key(ColCCode2); err != nil {
		return rec, err
	}
	if rec.Year, err = r.key(ColYear); err != nil {
		return rec, err
	}
	if rec.HostilityLevel, err = r.key(ColHostility); err != nil {
		return rec, err
	}
	rec.DisputeID = r.text(ColDisputeID)
	return rec, nil
}

func parseTrade(r rowReader) (domain.TradeFlow, error) {
	var rec domain.TradeFlow
	var err error
	if rec.StateA, err = r.key(ColCCode1); err != nil {
		return rec, err
	}
	if rec.StateB, err = r.key(ColCCode2); err != nil {
		return rec, err
	}
	if rec.Year, err = r.key(ColYear); err != nil {
		return rec, err
	}
	rec.FlowAtoB = r.float(ColFlow1)
	rec.FlowBtoA = r.float(ColFlow2)
	return rec, nil
}

func parseCapability(r rowReader) (domain.Capability, error) {
	var rec domain.Capability
	var err error
	if rec.CCode, err = r.key(ColCCode); err != nil {
		return rec, err
	}
	if rec.Year, err = r.key(ColYear); err != nil {
		return rec, err
	}
	rec.CINC = nonNegative(r.float(ColCINC))
	rec.GDP = nonNegative(r.float(ColGDP))
	return rec, nil
}

func parseRegime(r rowReader) (domain.RegimeScore, error) {
	var rec domain.RegimeScore
	var err error
	if rec.CCode, err = r.key(ColCCode); err != nil {
		return rec, err
	}
	if rec.Year, err = r.key(ColYear); err != nil {
		return rec, err
	}
	// Interruption and transition codes (-66, -77, -88) are not scores
	score := r.float(ColPolity)
	if v, ok := score.Get(); ok && (v < domain.MinRegimeScore || v > domain.MaxRegimeScore) {
		score = domain.None()
	}
	rec.Score = score
	return rec, nil
}

func parseAlliance(r rowReader) (domain.AllianceSpell, error) {
	var rec domain.AllianceSpell
	var err error
	if rec.StateA, err = r.key(ColCCode1); err != nil {
		return rec, err
	}
	if rec.StateB, err = r.key(ColCCode2); err != nil {
		return rec, err
	}
	rec.StartYear, err = r.key(ColStartYear)
	return rec, err
}

// nonNegative treats negative sentinels (-9 and the like) as missing
func nonNegative(f domain.Float) domain.Float {
	if v, ok := f.Get(); ok && v < 0 {
		return domain.None()
	}
	return f
}
