package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyadpanel/pkg/contracts/domain"
)

func completeRow(intensity int) domain.PanelRow {
	row := domain.PanelRow{
		DyadYear:          domain.DyadYear{CCode1: 2, CCode2: 20, Year: 1990, IsContiguous: true},
		CapabilityRatio:   domain.Some(4),
		JointDemocracy:    domain.FlagOf(true),
		Alliance:          domain.FlagOf(false),
		PrevMID:           1,
		ConflictIntensity: intensity,
	}
	row.Trade.Vulnerability = domain.Some(math.E)
	row.Trade.Asymmetry = domain.Some(0.5)
	return row
}

func TestDefaultPredictors(t *testing.T) {
	row := completeRow(0)
	want := map[string]float64{
		PredLogVulnerability: 1,
		PredAsymmetry:        0.5,
		PredLogCapability:    math.Log(4),
		PredJointDemocracy:   1,
		PredAlliance:         0,
		PredPrevMID:          1,
		PredContiguous:       1,
	}

	preds := DefaultPredictors()
	require.Len(t, preds, len(want))
	for _, p := range preds {
		t.Run(p.Name, func(t *testing.T) {
			v, ok := p.Value(row).Get()
			require.True(t, ok)
			assert.InDelta(t, want[p.Name], v, 1e-12)
		})
	}
}

func TestBuildSample(t *testing.T) {
	missingTrade := completeRow(3)
	missingTrade.Trade.Vulnerability = domain.None()
	zeroCapability := completeRow(2)
	zeroCapability.CapabilityRatio = domain.Some(0)
	noRegime := completeRow(0)
	noRegime.JointDemocracy = domain.Flag{}

	rows := []domain.PanelRow{
		completeRow(0),
		completeRow(4),
		missingTrade,
		zeroCapability,
		noRegime,
		completeRow(0),
	}

	tests := []struct {
		name        string
		spec        Specification
		wantN       int
		wantDropped int
		wantY       []int
	}{
		{"escalation", DefaultSpecifications()[0], 1, 2, []int{4}},
		{"full panel", DefaultSpecifications()[1], 3, 3, []int{0, 4, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := BuildSample(tt.spec, rows)
			assert.Len(t, s.X, tt.wantN)
			assert.Equal(t, tt.wantY, s.Y)
			assert.Equal(t, tt.wantDropped, s.Dropped)
			assert.Len(t, s.Names, 7)
		})
	}
}

func TestFitterFitAll(t *testing.T) {
	x, y := simulate(1500, []float64{0.8}, []float64{-0.5, 1.5}, 5)
	rows := make([]domain.PanelRow, len(y))
	for i := range rows {
		rows[i] = domain.PanelRow{ConflictIntensity: y[i]}
		rows[i].Trade.Asymmetry = domain.Some(x[i][0])
	}

	asymmetryOnly := Specification{
		Name:       "asymmetry_only",
		Outcome:    intensity,
		Predictors: []Predictor{DefaultPredictors()[1]},
	}
	// Every row lacks a vulnerability ratio so nothing survives
	defaults := DefaultSpecifications()[1]

	f := NewFitter(nil, Options{MaxIterations: 50, Tolerance: 1e-8})
	results, err := f.FitAll(context.Background(), []Specification{asymmetryOnly, defaults}, rows)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "asymmetry_only", res.Name)
	assert.Equal(t, 1500, res.N)
	assert.Zero(t, res.Dropped)
	assert.InDelta(t, 0.8, res.Coefficients[0].Estimate, 0.2)

	_, err = f.FitSpecification(context.Background(), defaults, rows)
	assert.ErrorIs(t, err, ErrNoData)
}
