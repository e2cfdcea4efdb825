package operations

import (
	"context"
	"errors"
	"fmt"
	"io"

	"dyadpanel/internal/dataprocessing"
	"dyadpanel/internal/model"
	"dyadpanel/internal/panel"
	"dyadpanel/internal/report"
	"dyadpanel/pkg/contracts/domain"
)

// Step identifiers
const (
	StepIDLoad        = "load"
	StepIDAssemble    = "assemble"
	StepIDExportPanel = "export_panel"
	StepIDSummarize   = "summarize"
	StepIDFit         = "fit"
)

// TableLoader reads the input tables of a run
type TableLoader interface {
	Load(ctx context.Context) (domain.Tables, *dataprocessing.LoadReport, error)
}

// PanelAssembler builds the panel from normalized tables
type PanelAssembler interface {
	Assemble(ctx context.Context, tables domain.Tables) (*panel.Panel, error)
}

// OutputWriter persists run outputs
type OutputWriter interface {
	ExportPanel(ctx context.Context, p *panel.Panel) error
	ExportDiagnostics(ctx context.Context, d panel.Diagnostics, inputs *dataprocessing.LoadReport) error
	ExportSummary(ctx context.Context, s *report.Summary) ([]string, error)
	ExportModels(ctx context.Context, runID string, results []*model.Result) error
}

// ModelFitter estimates model specifications
type ModelFitter interface {
	FitAll(ctx context.Context, specs []model.Specification, rows []domain.PanelRow) ([]*model.Result, error)
}

var (
	errNoTables = errors.New("input tables have not been loaded")
	errNoPanel  = errors.New("panel has not been assembled")
)

// LoadStep reads and normalizes the input tables
type LoadStep struct {
	Loader TableLoader
}

func (s *LoadStep) ID() string                     { return StepIDLoad }
func (s *LoadStep) Name() string                   { return "Load input tables" }
func (s *LoadStep) Validate(*OperationState) error { return nil }

func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	tables, rep, err := s.Loader.Load(ctx)
	if err != nil {
		return err
	}
	state.Tables = &tables
	state.LoadReport = rep
	return nil
}

// AssembleStep builds the panel
type AssembleStep struct {
	Assembler PanelAssembler
}

func (s *AssembleStep) ID() string   { return StepIDAssemble }
func (s *AssembleStep) Name() string { return "Assemble panel" }

func (s *AssembleStep) Validate(state *OperationState) error {
	if state.Tables == nil {
		return errNoTables
	}
	return nil
}

func (s *AssembleStep) Execute(ctx context.Context, state *OperationState) error {
	p, err := s.Assembler.Assemble(ctx, *state.Tables)
	if err != nil {
		return err
	}
	state.Panel = p.WithRunID(state.ID)
	return nil
}

// ExportPanelStep writes the panel CSV and the diagnostics JSON
type ExportPanelStep struct {
	Writer OutputWriter
	Panel  string
	Diag   string
}

func (s *ExportPanelStep) ID() string   { return StepIDExportPanel }
func (s *ExportPanelStep) Name() string { return "Export panel" }

func (s *ExportPanelStep) Validate(state *OperationState) error {
	if state.Panel == nil {
		return errNoPanel
	}
	return nil
}

func (s *ExportPanelStep) Execute(ctx context.Context, state *OperationState) error {
	if err := s.Writer.ExportPanel(ctx, state.Panel); err != nil {
		return err
	}
	if err := s.Writer.ExportDiagnostics(ctx, state.Panel.Diagnostics(), state.LoadReport); err != nil {
		return err
	}
	state.Written = append(state.Written, s.Panel, s.Diag)
	return nil
}

// SummarizeStep builds the descriptive tables, writes them and optionally
// renders them to Console.
type SummarizeStep struct {
	Builder *report.Builder
	Writer  OutputWriter
	Console io.Writer
}

func (s *SummarizeStep) ID() string   { return StepIDSummarize }
func (s *SummarizeStep) Name() string { return "Summarize panel" }

func (s *SummarizeStep) Validate(state *OperationState) error {
	if state.Panel == nil {
		return errNoPanel
	}
	return nil
}

func (s *SummarizeStep) Execute(ctx context.Context, state *OperationState) error {
	summary := s.Builder.Build(ctx, state.Panel)
	written, err := s.Writer.ExportSummary(ctx, summary)
	state.Written = append(state.Written, written...)
	if err != nil {
		return err
	}
	state.Summary = summary
	if s.Console != nil {
		report.RenderAll(s.Console, summary)
	}
	return nil
}

// FitStep estimates the model specifications and writes the results
type FitStep struct {
	Fitter ModelFitter
	Specs  []model.Specification
	Writer OutputWriter
	Models string
}

func (s *FitStep) ID() string   { return StepIDFit }
func (s *FitStep) Name() string { return "Fit models" }

func (s *FitStep) Validate(state *OperationState) error {
	if state.Panel == nil {
		return errNoPanel
	}
	if len(s.Specs) == 0 {
		return errors.New("no model specifications configured")
	}
	return nil
}

func (s *FitStep) Execute(ctx context.Context, state *OperationState) error {
	results, err := s.Fitter.FitAll(ctx, s.Specs, state.Panel.Rows())
	if err != nil {
		return err
	}
	state.Models = results
	if err := s.Writer.ExportModels(ctx, state.ID, results); err != nil {
		return err
	}
	state.Written = append(state.Written, s.Models)
	return nil
}

// Plan names a predefined sequence of steps
type Plan string

const (
	PlanBuild     Plan = "build"
	PlanSummarize Plan = "summarize"
	PlanFit       Plan = "fit"
	PlanRun       Plan = "run"
)

// Pipeline holds the steps a plan can draw from
type Pipeline struct {
	Load        *LoadStep
	Assemble    *AssembleStep
	ExportPanel *ExportPanelStep
	Summarize   *SummarizeStep
	Fit         *FitStep
}

// Steps returns the steps of a plan in execution order
func (p *Pipeline) Steps(plan Plan) ([]Step, error) {
	steps := []Step{p.Load, p.Assemble, p.ExportPanel}
	switch plan {
	case PlanBuild:
	case PlanSummarize:
		steps = append(steps, p.Summarize)
	case PlanFit:
		steps = append(steps, p.Fit)
	case PlanRun:
		steps = append(steps, p.Summarize, p.Fit)
	default:
		return nil, fmt.Errorf("unknown plan %q", plan)
	}
	return steps, nil
}
