package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ctxCheckEvery is how many rows are read between cancellation checks
const ctxCheckEvery = 10000

// scanTable streams a CSV file or an Excel sheet. header receives the
// first row, row every following row with its 1-based line number.
// An empty sheet name selects the first sheet of a workbook.
func scanTable(ctx context.Context, path, sheet string, header func([]string) error, row func(int, []string) error) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return scanCSV(ctx, path, header, row)
	case ".xlsx":
		return scanExcel(ctx, path, sheet, header, row)
	default:
		return fmt.Errorf("unsupported table format: %s", path)
	}
}

func scanCSV(ctx context.Context, path string, header func([]string) error, row func(int, []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s is empty", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if err := header(first); err != nil {
		return err
	}

	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := row(line, record); err != nil {
			return err
		}
	}
}

func scanExcel(ctx context.Context, path, sheet string, header func([]string) error, row func(int, []string) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return fmt.Errorf("%s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		cells, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if line == 1 {
			if err := header(cells); err != nil {
				return err
			}
			continue
		}
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := row(line, cells); err != nil {
			return err
		}
	}
	if line == 0 {
		return fmt.Errorf("sheet %q of %s is empty", sheet, path)
	}
	return rows.Error()
}
