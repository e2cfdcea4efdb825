package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name   string
		mutate func(*Config)
		check  func(*testing.T, *Paths)
	}{
		{
			name: "relative directories anchor at base",
			check: func(t *testing.T, p *Paths) {
				assert.Equal(t, filepath.Join(base, "data", "input"), p.InputDir)
				assert.Equal(t, filepath.Join(base, "data", "output", PanelFileName), p.PanelCSV)
				assert.Equal(t, filepath.Join(base, "data", "output", "summary", WorkbookFileName), p.SummaryWorkbook)
				assert.Equal(t, filepath.Join(base, "data", "output", DefaultMetricsTextfile), p.MetricsTextfile)
			},
		},
		{
			name: "absolute directories are kept",
			mutate: func(c *Config) {
				c.Paths.OutputDir = filepath.Join(base, "abs", "out")
			},
			check: func(t *testing.T, p *Paths) {
				assert.Equal(t, filepath.Join(base, "abs", "out"), p.OutputDir)
				assert.Equal(t, filepath.Join(base, "abs", "out", "models", ModelsFileName), p.ModelsJSON)
			},
		},
		{
			name: "metrics disabled leaves textfile empty",
			mutate: func(c *Config) {
				c.Telemetry.MetricsEnabled = false
			},
			check: func(t *testing.T, p *Paths) {
				assert.Empty(t, p.MetricsTextfile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			p, err := cfg.ResolvePaths(base)
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p, err := Default().ResolvePaths(base)
	require.NoError(t, err)

	require.NoError(t, p.EnsureDirectories())
	for _, dir := range []string{p.OutputDir, p.SummaryDir, p.ModelsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.False(t, FileExists(p.InputDir), "input directory must not be created")
	assert.Equal(t, filepath.Join(p.SummaryDir, "composition.csv"), p.SummaryPath("composition"))
}
