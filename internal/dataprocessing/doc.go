// Package dataprocessing loads the input datasets and normalizes them into
// the canonical tables the panel pipeline consumes.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Schema: maps source column names onto canonical columns through
// built-in and configured aliases
// 2. Reader: streams rows from CSV files and Excel workbooks
// 3. Loader: parses and validates the rows of every table, loading the
// tables concurrently
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, paths.InputDir, cfg.Inputs, metrics)
//	tables, report, err := loader.Load(ctx)
//	if err != nil {
//	    return err
//	}
//
// # Missing Values
//
// Optional numeric columns read "", "NA", "N/A", ".", "NaN" and "null" as
// undefined. Negative capability and GDP values are sentinels and also read
// as undefined, as do regime scores outside [-10, 10]. Key columns never
// have missing values: a key that does not parse as an integer is an
// integrity error.
//
// # Error Handling
//
// Required tables (major powers, contiguity, disputes) must be present and
// every row must pass validation. Optional tables may be absent, in which
// case they load as nil, and their invalid rows, including rows with a blank
// or non-numeric key cell, are skipped and counted in the LoadReport. A key
// column missing from the header fails the load for every table.
package dataprocessing
