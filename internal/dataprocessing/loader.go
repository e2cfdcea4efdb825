package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"dyadpanel/internal/config"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/internal/files"
	"dyadpanel/internal/validation"
	"dyadpanel/pkg/contracts/domain"
)

// maxLoggedRejects caps the per-row warnings of one table
const maxLoggedRejects = 5

// TableRecorder receives the row count of every loaded table
type TableRecorder interface {
	RecordTableLoaded(ctx context.Context, table string, rows int)
}

// TableReport describes how one input table was loaded
type TableReport struct {
	Table    string        `json:"table"`
	File     string        `json:"file,omitempty"`
	Found    bool          `json:"found"`
	Required bool          `json:"required"`
	Rows     int           `json:"rows"`
	Rejected int           `json:"rejected"`
	Duration time.Duration `json:"duration_ns"`
}

// LoadReport lists the tables in a fixed order
type LoadReport struct {
	Tables []TableReport `json:"tables"`
}

// Missing returns the optional tables that were not found
func (r *LoadReport) Missing() []string {
	var out []string
	for _, t := range r.Tables {
		if !t.Found {
			out = append(out, t.Table)
		}
	}
	return out
}

// Loader reads and normalizes every input table of a run
type Loader struct {
	logger    *slog.Logger
	discovery *files.Discovery
	files     *validation.FileValidator
	records   *validation.RecordValidator
	inputs    config.InputsConfig
	recorder  TableRecorder
}

// NewLoader creates a loader rooted at inputDir. recorder may be nil.
func NewLoader(logger *slog.Logger, inputDir string, inputs config.InputsConfig, recorder TableRecorder) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "loader"))
	return &Loader{
		logger:    logger,
		discovery: files.NewDiscovery(inputDir),
		files:     validation.NewFileValidator(logger),
		records:   validation.NewRecordValidator(),
		inputs:    inputs,
		recorder:  recorder,
	}
}

// Load reads all tables concurrently. A missing required table, a missing
// key column in any table, or a mistyped key or out-of-range code in a
// required table fails the load. Optional tables that are absent come back
// nil; invalid rows in optional tables, bad keys included, are skipped and
// counted.
func (l *Loader) Load(ctx context.Context) (domain.Tables, *LoadReport, error) {
	if err := l.files.ValidateInputDirectory(l.discovery.BasePath()); err != nil {
		return domain.Tables{}, nil, apperrors.NewMissingInputError("input directory").WithContext("cause", err.Error())
	}
	if found, err := l.discovery.FindTableFiles(); err == nil {
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = f.Name
		}
		l.logger.DebugContext(ctx, "table files in input directory",
			slog.String("directory", l.discovery.BasePath()),
			slog.Any("files", names))
	}

	var tables domain.Tables
	reports := make([]TableReport, 7)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tables.MajorPowers, reports[0], err = loadTable(gctx, l, config.TableMajorPowers, parseMajorPower)
		return err
	})
	g.Go(func() (err error) {
		tables.Contiguity, reports[1], err = loadTable(gctx, l, config.TableContiguity, parseContiguity)
		return err
	})
	g.Go(func() (err error) {
		tables.Disputes, reports[2], err = loadTable(gctx, l, config.TableDisputes, parseDispute)
		return err
	})
	g.Go(func() (err error) {
		tables.Trade, reports[3], err = loadTable(gctx, l, config.TableTrade, parseTrade)
		return err
	})
	g.Go(func() (err error) {
		tables.Capabilities, reports[4], err = loadTable(gctx, l, config.TableCapabilities, parseCapability)
		return err
	})
	g.Go(func() (err error) {
		tables.Regimes, reports[5], err = loadTable(gctx, l, config.TableRegimes, parseRegime)
		return err
	})
	g.Go(func() (err error) {
		tables.Alliances, reports[6], err = loadTable(gctx, l, config.TableAlliances, parseAlliance)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Tables{}, nil, err
	}

	report := &LoadReport{Tables: reports}
	l.logger.InfoContext(ctx, "input tables loaded",
		slog.Int("major_power_spells", len(tables.MajorPowers)),
		slog.Int("contiguity_rows", len(tables.Contiguity)),
		slog.Int("dispute_rows", len(tables.Disputes)),
		slog.Int("trade_rows", len(tables.Trade)),
		slog.Int("capability_rows", len(tables.Capabilities)),
		slog.Int("regime_rows", len(tables.Regimes)),
		slog.Int("alliance_rows", len(tables.Alliances)),
		slog.Any("missing_tables", report.Missing()))

	return tables, report, nil
}

// loadTable reads one table. The returned slice is nil only when an
// optional table was not found.
func loadTable[T any](ctx context.Context, l *Loader, table string, parse func(rowReader) (T, error)) ([]T, TableReport, error) {
	began := time.Now()
	report := TableReport{Table: table, Required: slices.Contains(config.RequiredTables, table)}

	src, _ := l.inputs.Source(table)
	schema, _ := SchemaFor(table, src.Aliases)

	info, found, err := l.discovery.Locate(src.File)
	if err != nil {
		return nil, report, apperrors.NewStorageError("failed to locate input table", err).WithContext("table", table)
	}
	if !found {
		if report.Required {
			return nil, report, apperrors.NewMissingInputError(table).WithContext("file", src.File)
		}
		l.logger.WarnContext(ctx, "optional input table not found, its variables will be NA",
			slog.String("table", table),
			slog.String("file", src.File))
		return nil, report, nil
	}
	report.Found = true
	report.File = info.Path

	if err := l.files.ValidateTableFile(info.Path); err != nil {
		return nil, report, apperrors.NewStorageError("unreadable input table", err).WithContext("table", table)
	}

	var cols map[string]int
	out := make([]T, 0)
	err = scanTable(ctx, info.Path, src.Sheet,
		func(header []string) error {
			resolved, rerr := schema.Resolve(header)
			cols = resolved
			return rerr
		},
		func(line int, cells []string) error {
			r := rowReader{table: table, line: line, cols: cols, cells: cells}
			if r.blank() {
				return nil
			}
			reject := func(cause error) {
				report.Rejected++
				if report.Rejected <= maxLoggedRejects {
					l.logger.WarnContext(ctx, "invalid row skipped",
						slog.String("table", table),
						slog.Int("line", line),
						slog.String("error", cause.Error()))
				}
			}

			rec, err := parse(r)
			if err != nil {
				if report.Required {
					return err
				}
				reject(err)
				return nil
			}
			if verr := l.records.Validate(rec); verr != nil {
				if report.Required {
					return apperrors.NewIntegrityError("out-of-range value in required table", verr).
						WithContext("table", table).
						WithContext("line", line)
				}
				reject(verr)
				return nil
			}
			out = append(out, rec)
			return nil
		})
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeIntegrity) {
			return nil, report, fmt.Errorf("load %s from %s: %w", table, info.Name, err)
		}
		return nil, report, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", info.Name), err).
			WithContext("table", table)
	}

	report.Rows = len(out)
	report.Duration = time.Since(began)
	if l.recorder != nil {
		l.recorder.RecordTableLoaded(ctx, table, report.Rows)
	}
	if report.Rejected > 0 {
		l.logger.WarnContext(ctx, "rows rejected from optional table",
			slog.String("table", table),
			slog.Int("rejected", report.Rejected))
	}
	l.logger.DebugContext(ctx, "input table loaded",
		slog.String("table", table),
		slog.String("file", info.Path),
		slog.Int("rows", report.Rows),
		slog.Duration("duration", report.Duration))

	return out, report, nil
}
