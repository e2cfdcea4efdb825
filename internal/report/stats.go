package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Descriptive summarizes the defined values of one variable
type Descriptive struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Describe computes N, mean, sample standard deviation, min, median and
// max. With fewer than two values SD is NaN; with none every statistic but
// N is NaN.
func Describe(values []float64) Descriptive {
	d := Descriptive{N: len(values)}
	if d.N == 0 {
		nan := math.NaN()
		d.Mean, d.SD, d.Min, d.Median, d.Max = nan, nan, nan, nan, nan
		return d
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	d.Median = median(sorted)
	if d.N < 2 {
		d.Mean, d.SD = sorted[0], math.NaN()
		return d
	}
	d.Mean, d.SD = stat.MeanStdDev(sorted, nil)
	return d
}

// median expects sorted input
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
