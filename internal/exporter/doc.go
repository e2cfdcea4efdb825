// Package exporter writes the outputs of a run.
//
// The panel itself goes to a flat CSV with a stable column order and NA for
// undefined values. Run diagnostics and fitted models are written as
// indented JSON. Summary tables are written both as individual CSV files and
// as one workbook with a sheet per table.
//
// Every file is written through files.Manager.WriteAtomic, so a failed or
// cancelled run never leaves a truncated output behind.
//
// Example usage:
//
//	exp := exporter.NewExporter(logger, paths, files.NewManager(logger))
//	if err := exp.ExportPanel(ctx, p); err != nil {
//		return err
//	}
package exporter
