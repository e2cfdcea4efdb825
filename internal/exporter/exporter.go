package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"dyadpanel/internal/config"
	"dyadpanel/internal/dataprocessing"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/internal/files"
	"dyadpanel/internal/model"
	"dyadpanel/internal/panel"
	"dyadpanel/internal/report"
	"dyadpanel/pkg/contracts"
)

// DiagnosticsDocument is the content of the diagnostics JSON
type DiagnosticsDocument struct {
	RunID       string                     `json:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Version     contracts.VersionInfo      `json:"version"`
	Panel       panel.Diagnostics          `json:"panel"`
	Inputs      *dataprocessing.LoadReport `json:"inputs,omitempty"`
}

// ModelsDocument is the content of the models JSON
type ModelsDocument struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Models      []*model.Result `json:"models"`
}

// Exporter writes run outputs under the resolved run paths
type Exporter struct {
	logger  *slog.Logger
	paths   *config.Paths
	manager *files.Manager
	now     func() time.Time
}

// NewExporter creates an Exporter
func NewExporter(logger *slog.Logger, paths *config.Paths, manager *files.Manager) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = files.NewManager(logger)
	}
	return &Exporter{
		logger:  logger.With(slog.String("component", "exporter")),
		paths:   paths,
		manager: manager,
		now:     time.Now,
	}
}

// ExportPanel writes the panel CSV
func (e *Exporter) ExportPanel(ctx context.Context, p *panel.Panel) error {
	var written int
	err := e.write(ctx, e.paths.PanelCSV, func(w io.Writer) error {
		n, err := WriteCSV(w, WriteOptions{Headers: PanelColumns}, panelRecords(p))
		written = n
		return err
	})
	if err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Panel exported",
		slog.String("path", e.paths.PanelCSV),
		slog.Int("rows", written))
	return nil
}

// ExportDiagnostics writes the diagnostics JSON. inputs may be nil when the
// tables were not loaded from disk.
func (e *Exporter) ExportDiagnostics(ctx context.Context, d panel.Diagnostics, inputs *dataprocessing.LoadReport) error {
	doc := DiagnosticsDocument{
		RunID:       d.RunID,
		GeneratedAt: e.now().UTC(),
		Version:     contracts.GetVersionInfo(),
		Panel:       d,
		Inputs:      inputs,
	}
	if err := e.write(ctx, e.paths.DiagnosticsJSON, jsonWriter(doc)); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Diagnostics exported", slog.String("path", e.paths.DiagnosticsJSON))
	return nil
}

// ExportSummary writes one CSV per summary table and the summary workbook.
// It returns the paths written.
func (e *Exporter) ExportSummary(ctx context.Context, s *report.Summary) ([]string, error) {
	tables := s.Tables()
	written := make([]string, 0, len(tables)+1)

	for _, t := range tables {
		path := e.paths.SummaryPath(t.Name)
		err := e.write(ctx, path, func(w io.Writer) error {
			_, err := WriteCSV(w, WriteOptions{Headers: t.Header, BOMPrefix: true}, slices.Values(t.Rows))
			return err
		})
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	err := e.write(ctx, e.paths.SummaryWorkbook, func(w io.Writer) error {
		return WriteWorkbook(w, tables)
	})
	if err != nil {
		return written, err
	}
	written = append(written, e.paths.SummaryWorkbook)

	e.logger.InfoContext(ctx, "Summary exported",
		slog.String("dir", e.paths.SummaryDir),
		slog.Int("tables", len(tables)))
	return written, nil
}

// ExportModels writes the fitted models as JSON
func (e *Exporter) ExportModels(ctx context.Context, runID string, results []*model.Result) error {
	doc := ModelsDocument{
		RunID:       runID,
		GeneratedAt: e.now().UTC(),
		Models:      results,
	}
	if doc.Models == nil {
		doc.Models = []*model.Result{}
	}
	if err := e.write(ctx, e.paths.ModelsJSON, jsonWriter(doc)); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Models exported",
		slog.String("path", e.paths.ModelsJSON),
		slog.Int("models", len(results)))
	return nil
}

func (e *Exporter) write(ctx context.Context, path string, fn func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.manager.WriteAtomic(path, fn); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", filepath.Base(path)), err).
			WithContext("path", path)
	}
	return nil
}

func jsonWriter(v any) func(io.Writer) error {
	return func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
