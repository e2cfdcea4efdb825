package model

import (
	"context"
	"log/slog"
	"math"
	"time"

	"dyadpanel/pkg/contracts/domain"
)

// Predictor extracts one covariate from a panel row
type Predictor struct {
	Name  string
	Value func(domain.PanelRow) domain.Float
}

// Specification is one model: an outcome, the rows it applies to and its
// predictors.
type Specification struct {
	Name        string
	Description string
	Include     func(domain.PanelRow) bool
	Outcome     func(domain.PanelRow) int
	Predictors  []Predictor
}

// Predictor names
const (
	PredLogVulnerability = "log_vulnerability"
	PredAsymmetry        = "asymmetry"
	PredLogCapability    = "log_capability_ratio"
	PredJointDemocracy   = "joint_democracy"
	PredAlliance         = "alliance"
	PredPrevMID          = "prev_mid"
	PredContiguous       = "contiguous"
)

func logOf(f domain.Float) domain.Float {
	v, ok := f.Get()
	if !ok || v <= 0 {
		return domain.None()
	}
	return domain.Some(math.Log(v))
}

func boolFloat(b bool) domain.Float {
	if b {
		return domain.Some(1)
	}
	return domain.Some(0)
}

// DefaultPredictors are the covariates shared by both default models
func DefaultPredictors() []Predictor {
	return []Predictor{
		{PredLogVulnerability, func(r domain.PanelRow) domain.Float { return logOf(r.Trade.Vulnerability) }},
		{PredAsymmetry, func(r domain.PanelRow) domain.Float { return r.Trade.Asymmetry }},
		{PredLogCapability, func(r domain.PanelRow) domain.Float { return logOf(r.CapabilityRatio) }},
		{PredJointDemocracy, func(r domain.PanelRow) domain.Float { return r.JointDemocracy.Float() }},
		{PredAlliance, func(r domain.PanelRow) domain.Float { return r.Alliance.Float() }},
		{PredPrevMID, func(r domain.PanelRow) domain.Float { return domain.Some(float64(r.PrevMID)) }},
		{PredContiguous, func(r domain.PanelRow) domain.Float { return boolFloat(r.IsContiguous) }},
	}
}

func intensity(r domain.PanelRow) int { return r.ConflictIntensity }

// DefaultSpecifications returns the escalation model over dispute rows and
// the conflict-intensity model over the full panel.
func DefaultSpecifications() []Specification {
	return []Specification{
		{
			Name:        "escalation",
			Description: "Hostility level among dyad-years with a dispute",
			Include:     domain.PanelRow.HasDispute,
			Outcome:     intensity,
			Predictors:  DefaultPredictors(),
		},
		{
			Name:        "conflict_intensity",
			Description: "Conflict intensity over all politically relevant dyad-years",
			Outcome:     intensity,
			Predictors:  DefaultPredictors(),
		},
	}
}

// Sample is the complete-case design for one specification
type Sample struct {
	X       [][]float64
	Y       []int
	Names   []string
	Dropped int
}

// BuildSample selects the rows a specification includes and keeps those
// with every predictor defined.
func BuildSample(spec Specification, rows []domain.PanelRow) Sample {
	s := Sample{Names: make([]string, len(spec.Predictors))}
	for i, p := range spec.Predictors {
		s.Names[i] = p.Name
	}

rows:
	for _, row := range rows {
		if spec.Include != nil && !spec.Include(row) {
			continue
		}
		x := make([]float64, len(spec.Predictors))
		for i, p := range spec.Predictors {
			v, ok := p.Value(row).Get()
			if !ok {
				s.Dropped++
				continue rows
			}
			x[i] = v
		}
		s.X = append(s.X, x)
		s.Y = append(s.Y, spec.Outcome(row))
	}
	return s
}

// Fitter estimates specifications against panel rows
type Fitter struct {
	logger *slog.Logger
	opts   Options
}

// NewFitter creates a Fitter
func NewFitter(logger *slog.Logger, opts Options) *Fitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fitter{
		logger: logger.With(slog.String("component", "model")),
		opts:   opts,
	}
}

// FitSpecification fits one specification. It returns ErrNoData when no
// row survives case selection.
func (f *Fitter) FitSpecification(ctx context.Context, spec Specification, rows []domain.PanelRow) (*Result, error) {
	sample := BuildSample(spec, rows)
	if len(sample.Y) == 0 {
		return nil, ErrNoData
	}

	start := time.Now()
	res, err := Fit(ctx, sample.X, sample.Y, sample.Names, f.opts)
	if err != nil {
		return nil, err
	}
	res.Name = spec.Name
	res.Description = spec.Description
	res.Dropped = sample.Dropped

	level := slog.LevelInfo
	if !res.Converged {
		level = slog.LevelWarn
	}
	f.logger.LogAttrs(ctx, level, "Model fitted",
		slog.String("model", spec.Name),
		slog.Int("n", res.N),
		slog.Int("dropped", res.Dropped),
		slog.Int("iterations", res.Iterations),
		slog.Bool("converged", res.Converged),
		slog.Float64("log_likelihood", res.LogLik),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// FitAll fits every specification. A specification that cannot be
// estimated on this panel is logged and skipped; context cancellation
// aborts.
func (f *Fitter) FitAll(ctx context.Context, specs []Specification, rows []domain.PanelRow) ([]*Result, error) {
	results := make([]*Result, 0, len(specs))
	for _, spec := range specs {
		res, err := f.FitSpecification(ctx, spec, rows)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			f.logger.WarnContext(ctx, "Model skipped",
				slog.String("model", spec.Name),
				slog.String("error", err.Error()))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
