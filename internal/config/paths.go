package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Output file names
const (
	PanelFileName       = "panel.csv"
	DiagnosticsFileName = "diagnostics.json"
	WorkbookFileName    = "summary.xlsx"
	ModelsFileName      = "models.json"
)

// Paths contains all the paths of one run
// This is the single source of truth for every file the pipeline writes
type Paths struct {
	InputDir   string
	OutputDir  string
	SummaryDir string
	ModelsDir  string

	// Well-known output files
	PanelCSV        string
	DiagnosticsJSON string
	SummaryWorkbook string
	ModelsJSON      string
	MetricsTextfile string
}

// ResolvePaths returns the run paths with relative directories anchored at
// base. An empty base means the current working directory.
func (c *Config) ResolvePaths(base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	inputDir := anchor(base, c.Paths.InputDir)
	outputDir := anchor(base, c.Paths.OutputDir)
	summaryDir := filepath.Join(outputDir, "summary")
	modelsDir := filepath.Join(outputDir, "models")

	p := &Paths{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		SummaryDir:      summaryDir,
		ModelsDir:       modelsDir,
		PanelCSV:        filepath.Join(outputDir, PanelFileName),
		DiagnosticsJSON: filepath.Join(outputDir, DiagnosticsFileName),
		SummaryWorkbook: filepath.Join(summaryDir, WorkbookFileName),
		ModelsJSON:      filepath.Join(modelsDir, ModelsFileName),
	}
	if c.Telemetry.MetricsEnabled && c.Telemetry.MetricsTextfile != "" {
		p.MetricsTextfile = anchor(outputDir, c.Telemetry.MetricsTextfile)
	}
	return p, nil
}

func anchor(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// EnsureDirectories creates the output directories if they don't exist.
// The input directory is never created: a missing input directory is an
// error the loader reports.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.SummaryDir,
		p.ModelsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// SummaryPath returns the path of a summary CSV
func (p *Paths) SummaryPath(name string) string {
	return filepath.Join(p.SummaryDir, name+".csv")
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
