package panel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dyadpanel/internal/derive"
	"dyadpanel/internal/dyad"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/internal/outcome"
	"dyadpanel/internal/relevance"
	"dyadpanel/internal/spells"
	"dyadpanel/pkg/contracts/domain"
)

const tracerName = "dyadpanel/internal/panel"

// StageRecorder receives per-stage measurements. Implementations must be
// safe to call with a nil receiver.
type StageRecorder interface {
	RecordStage(ctx context.Context, stage string, rows int, elapsed time.Duration)
	RecordDisputes(ctx context.Context, retained, dropped int)
}

// Options configures an assembler.
type Options struct {
	StartYear   int
	EndYear     int
	Parallelism int
}

// Assembler runs the panel pipeline
type Assembler struct {
	logger   *slog.Logger
	opts     Options
	tracer   trace.Tracer
	recorder StageRecorder
}

// NewAssembler creates a panel assembler. recorder may be nil.
func NewAssembler(logger *slog.Logger, opts Options, recorder StageRecorder) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		logger:   logger.With(slog.String("component", "panel_assembler")),
		opts:     opts,
		tracer:   otel.Tracer(tracerName),
		recorder: recorder,
	}
}

// Assemble builds the panel from normalized input tables. It fails only on
// integrity violations; absent optional tables degrade their variables to
// undefined.
func (a *Assembler) Assemble(ctx context.Context, tables domain.Tables) (*Panel, error) {
	start, end := a.opts.StartYear, a.opts.EndYear
	if start > end {
		return nil, apperrors.NewConfigError("analysis window is empty", nil).
			WithContext("start_year", start).
			WithContext("end_year", end)
	}

	ctx, span := a.tracer.Start(ctx, "panel.assemble",
		trace.WithAttributes(attribute.Int("start_year", start), attribute.Int("end_year", end)))
	defer span.End()

	p, err := a.assemble(ctx, tables, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", p.Len()))
	return p, nil
}

func (a *Assembler) assemble(ctx context.Context, tables domain.Tables, start, end int) (*Panel, error) {
	a.logger.InfoContext(ctx, "assembling panel",
		slog.Int("start_year", start),
		slog.Int("end_year", end),
		slog.Int("major_power_spells", len(tables.MajorPowers)),
		slog.Int("contiguity_rows", len(tables.Contiguity)),
		slog.Int("dispute_rows", len(tables.Disputes)))

	// Spell expansion
	var majors []domain.CountryYear
	err := a.stage(ctx, "spells", func(ctx context.Context) (int, error) {
		expanded, err := spells.MajorPowerYears(tables.MajorPowers)
		if err != nil {
			return 0, fmt.Errorf("expand major-power spells: %w", err)
		}
		majors = spells.Window(expanded, start, end)
		return len(majors), nil
	})
	if err != nil {
		return nil, err
	}

	// Relevance set
	contiguity := relevance.WindowContiguity(tables.Contiguity, start, end)
	active := relevance.ActiveStates(contiguity, majors)
	var rel *relevance.Result
	err = a.stage(ctx, "relevance", func(ctx context.Context) (int, error) {
		builder := relevance.NewBuilder(a.logger, relevance.Options{Parallelism: a.opts.Parallelism})
		res, err := builder.Build(ctx, relevance.Input{Contiguity: contiguity, MajorPowers: majors, Active: active})
		if err != nil {
			return 0, fmt.Errorf("build relevance set: %w", err)
		}
		rel = res
		return len(res.Rows), nil
	})
	if err != nil {
		return nil, err
	}

	// Outcome merge
	var outcomes *outcome.Result
	err = a.stage(ctx, "outcomes", func(ctx context.Context) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("merge dispute outcomes: %w", err)
		}
		outcomes = outcome.NewMerger(a.logger).Merge(ctx, tables.Disputes, rel.Rows, start, end)
		return outcomes.Stats.Retained, nil
	})
	if err != nil {
		return nil, err
	}
	if a.recorder != nil {
		a.recorder.RecordDisputes(ctx, outcomes.Stats.Retained, outcomes.Stats.Dropped)
	}

	// Derived variables
	var rows []domain.PanelRow
	var coverage derive.Coverage
	err = a.stage(ctx, "derive", func(ctx context.Context) (int, error) {
		out, cov, err := derive.NewEngine(a.logger).Derive(ctx, derive.Input{
			Rows:     rel.Rows,
			Outcomes: outcomes,
			Tables:   tables,
			Start:    start,
			End:      end,
		})
		if err != nil {
			return 0, err
		}
		rows, coverage = out, cov
		return len(out), nil
	})
	if err != nil {
		return nil, err
	}

	index, uniqueDyads, err := validateRows(rows)
	if err != nil {
		return nil, err
	}

	diag := Diagnostics{
		StartYear:        start,
		EndYear:          end,
		TotalRows:        len(rows),
		UniqueDyads:      uniqueDyads,
		ContiguousOnly:   rel.Stats.ContiguousOnly,
		MajorPowerOnly:   rel.Stats.MajorPowerOnly,
		BothCriteria:     rel.Stats.BothCriteria,
		MajorPowerYears:  len(majors),
		ActiveStateYears: len(active),
		CaptureRate:      outcomes.Stats.CaptureRate(),
		Relevance:        rel.Stats,
		Disputes:         outcomes.Stats,
		Coverage:         coverage,
		MissingTables:    missingTables(tables),
	}

	a.logger.InfoContext(ctx, "panel assembled",
		slog.Int("rows", diag.TotalRows),
		slog.Int("unique_dyads", diag.UniqueDyads),
		slog.Int("disputes_retained", diag.Disputes.Retained),
		slog.Int("disputes_dropped", diag.Disputes.Dropped),
		slog.Float64("capture_rate", diag.CaptureRate))

	return &Panel{rows: rows, index: index, diagnostics: diag}, nil
}

// stage runs fn inside a span and reports its row count and duration.
func (a *Assembler) stage(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	ctx, span := a.tracer.Start(ctx, "panel."+name)
	defer span.End()

	began := time.Now()
	rows, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("rows", rows))
	if a.recorder != nil {
		a.recorder.RecordStage(ctx, name, rows, time.Since(began))
	}
	return nil
}

// validateRows enforces the output guarantees: one row per directed
// dyad-year and an undirected id that matches the pair.
func validateRows(rows []domain.PanelRow) (map[dyad.Key]int, int, error) {
	index := make(map[dyad.Key]int, len(rows))
	dyads := make(map[string]struct{})
	for i, r := range rows {
		key := dyad.NewKey(r.CCode1, r.CCode2, r.Year)
		if _, dup := index[key]; dup {
			return nil, 0, apperrors.NewIntegrityError("duplicate directed dyad-year in panel", nil).
				WithContext("key", key.String())
		}
		index[key] = i

		if want := dyad.UndirectedID(r.CCode1, r.CCode2); r.UndirectedID != want {
			return nil, 0, apperrors.NewIntegrityError("undirected dyad id does not match pair", nil).
				WithContext("key", key.String()).
				WithContext("dyad_id", r.UndirectedID).
				WithContext("expected", want)
		}
		dyads[r.UndirectedID] = struct{}{}
	}
	return index, len(dyads), nil
}

func missingTables(t domain.Tables) []string {
	var missing []string
	if !t.HasTrade() {
		missing = append(missing, "trade")
	}
	if !t.HasCapabilities() {
		missing = append(missing, "capabilities")
	}
	if !t.HasRegimes() {
		missing = append(missing, "regimes")
	}
	if !t.HasAlliances() {
		missing = append(missing, "alliances")
	}
	return missing
}
