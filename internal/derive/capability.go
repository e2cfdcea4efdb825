package derive

import (
	"math"

	"dyadpanel/pkg/contracts/domain"
)

// ParityThreshold is the largest capability ratio still counted as parity.
const ParityThreshold = 2.0

// CapabilityRatio is the stronger side's index over the weaker side's,
// undefined unless both are present and the weaker is positive.
func CapabilityRatio(cinc1, cinc2 domain.Float) domain.Float {
	a, ok1 := cinc1.Get()
	b, ok2 := cinc2.Get()
	if !ok1 || !ok2 {
		return domain.None()
	}
	lo, hi := math.Min(a, b), math.Max(a, b)
	if lo <= 0 {
		return domain.None()
	}
	return domain.Some(hi / lo)
}

// PowerParity is 1 when the ratio is at most ParityThreshold. An undefined
// ratio is 0, not missing.
func PowerParity(ratio domain.Float) int {
	if r, ok := ratio.Get(); ok && r <= ParityThreshold {
		return 1
	}
	return 0
}

// JointDemocracy is set when both scores reach the democracy threshold.
func JointDemocracy(score1, score2 domain.Float) domain.Flag {
	s1, ok1 := score1.Get()
	s2, ok2 := score2.Get()
	if !ok1 || !ok2 {
		return domain.Flag{}
	}
	return domain.FlagOf(isDemocracy(s1) && isDemocracy(s2))
}

// MixedRegime is set when exactly one score reaches the democracy threshold.
func MixedRegime(score1, score2 domain.Float) domain.Flag {
	s1, ok1 := score1.Get()
	s2, ok2 := score2.Get()
	if !ok1 || !ok2 {
		return domain.Flag{}
	}
	return domain.FlagOf(isDemocracy(s1) != isDemocracy(s2))
}

func isDemocracy(score float64) bool {
	return score >= domain.DemocracyThreshold
}
