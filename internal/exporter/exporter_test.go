package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dyadpanel/internal/config"
	"dyadpanel/internal/dataprocessing"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/internal/model"
	"dyadpanel/internal/panel"
	"dyadpanel/internal/report"
	"dyadpanel/pkg/contracts/domain"
)

func testPanel(t *testing.T) *panel.Panel {
	t.Helper()
	tables := domain.Tables{
		MajorPowers: []domain.MajorPowerSpell{{CCode: 2, StartYear: 1898, EndYear: 2016}},
		Contiguity: []domain.ContiguityRecord{
			{StateA: 20, StateB: 70, Year: 1990, Type: 1},
			{StateA: 70, StateB: 20, Year: 1990, Type: 1},
			{StateA: 20, StateB: 70, Year: 1991, Type: 1},
			{StateA: 70, StateB: 20, Year: 1991, Type: 1},
		},
		Disputes: []domain.DisputeOutcome{
			{StateA: 20, StateB: 70, Year: 1991, HostilityLevel: 3, DisputeID: "77"},
		},
	}
	p, err := panel.NewAssembler(nil, panel.Options{StartYear: 1990, EndYear: 1991}, nil).
		Assemble(context.Background(), tables)
	require.NoError(t, err)
	return p.WithRunID("run-1")
}

func testExporter(t *testing.T) (*Exporter, *config.Paths) {
	t.Helper()
	paths, err := config.Default().ResolvePaths(t.TempDir())
	require.NoError(t, err)
	return NewExporter(nil, paths, nil), paths
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.TrimPrefix(data, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestPanelRecord(t *testing.T) {
	row := domain.PanelRow{
		DyadYear: domain.DyadYear{
			CCode1: 20, CCode2: 70, Year: 1992,
			ContiguityType: 1, IsContiguous: true, UndirectedID: "20_70",
		},
		CINC1:             domain.Some(0.0125),
		JointDemocracy:    domain.FlagOf(true),
		Alliance:          domain.FlagOf(false),
		PowerParity:       1,
		PrevMID:           1,
		ConflictIntensity: 4,
		DisputeIDs:        "4001;4002",
	}
	row.Trade.Vulnerability = domain.Some(2)

	record := PanelRecord(row)
	require.Len(t, record, len(PanelColumns))

	get := func(col string) string {
		i := slices.Index(PanelColumns, col)
		require.GreaterOrEqual(t, i, 0, col)
		return record[i]
	}

	tests := []struct {
		column string
		want   string
	}{
		{"year", "1992"},
		{"ccode1", "20"},
		{"dyad_id", "20_70"},
		{"contiguous", "1"},
		{"major_power", "0"},
		{"trade_total", domain.NA},
		{"vulnerability_ratio", "2"},
		{"cinc1", "0.0125"},
		{"cinc2", domain.NA},
		{"power_parity", "1"},
		{"joint_democracy", "1"},
		{"mixed_regime", domain.NA},
		{"alliance", "0"},
		{"prev_mid", "1"},
		{"conflict_intensity", "4"},
		{"dispute_ids", "4001;4002"},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, get(tt.column))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		records [][]string
		want    string
	}{
		{
			name:    "header and records",
			options: WriteOptions{Headers: []string{"a", "b"}},
			records: [][]string{{"1", "2"}, {"3", "x,y"}},
			want:    "a,b\n1,2\n3,\"x,y\"\n",
		},
		{
			name:    "bom prefix",
			options: WriteOptions{Headers: []string{"a"}, BOMPrefix: true},
			records: [][]string{{"1"}},
			want:    "\xEF\xBB\xBFa\n1\n",
		},
		{
			name:    "no records",
			options: WriteOptions{Headers: []string{"a"}},
			want:    "a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := WriteCSV(&buf, tt.options, slices.Values(tt.records))
			require.NoError(t, err)
			assert.Equal(t, len(tt.records), n)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestExportPanel(t *testing.T) {
	exp, paths := testExporter(t)
	require.NoError(t, exp.ExportPanel(context.Background(), testPanel(t)))

	records := readCSV(t, paths.PanelCSV)
	require.Len(t, records, 13)
	assert.Equal(t, PanelColumns, records[0])

	col := func(name string) int { return slices.Index(PanelColumns, name) }
	first := records[1]
	assert.Equal(t, []string{"1990", "2", "20", "2_20", "0", "0", "1"}, first[:7])
	assert.Equal(t, domain.NA, first[col("trade_total")])

	var dispute []string
	for _, r := range records[1:] {
		if r[col("year")] == "1991" && r[col("ccode1")] == "20" && r[col("ccode2")] == "70" {
			dispute = r
		}
	}
	require.NotNil(t, dispute)
	assert.Equal(t, "3", dispute[col("conflict_intensity")])
	assert.Equal(t, "77", dispute[col("dispute_ids")])
}

func TestExportDiagnostics(t *testing.T) {
	exp, paths := testExporter(t)
	p := testPanel(t)
	inputs := &dataprocessing.LoadReport{Tables: []dataprocessing.TableReport{
		{Table: config.TableDisputes, Found: true, Required: true, Rows: 1},
	}}

	require.NoError(t, exp.ExportDiagnostics(context.Background(), p.Diagnostics(), inputs))

	data, err := os.ReadFile(paths.DiagnosticsJSON)
	require.NoError(t, err)
	var doc DiagnosticsDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 12, doc.Panel.TotalRows)
	assert.Equal(t, 3, doc.Panel.UniqueDyads)
	assert.False(t, doc.GeneratedAt.IsZero())
	require.NotNil(t, doc.Inputs)
	assert.Equal(t, config.TableDisputes, doc.Inputs.Tables[0].Table)
}

func TestExportSummary(t *testing.T) {
	exp, paths := testExporter(t)
	summary := report.NewBuilder(nil).Build(context.Background(), testPanel(t))

	written, err := exp.ExportSummary(context.Background(), summary)
	require.NoError(t, err)

	tables := summary.Tables()
	require.Len(t, written, len(tables)+1)
	for _, tbl := range tables {
		records := readCSV(t, paths.SummaryPath(tbl.Name))
		assert.Equal(t, tbl.Header, records[0], tbl.Name)
		assert.Len(t, records, len(tbl.Rows)+1, tbl.Name)
	}

	f, err := excelize.OpenFile(paths.SummaryWorkbook)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, names, f.GetSheetList())

	head, err := f.GetCellValue("composition", "A1")
	require.NoError(t, err)
	assert.Equal(t, tables[0].Header[0], head)

	total, err := f.GetCellValue("composition", "B5")
	require.NoError(t, err)
	assert.Equal(t, "12", total)
}

func TestExportModels(t *testing.T) {
	exp, paths := testExporter(t)
	results := []*model.Result{{
		Name: "escalation",
		N:    10,
		Coefficients: []model.Coefficient{
			{Name: "asymmetry", Estimate: 0.5, StdErr: domain.Some(0.25)},
		},
	}}

	require.NoError(t, exp.ExportModels(context.Background(), "run-1", results))

	data, err := os.ReadFile(paths.ModelsJSON)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc["run_id"])

	models := doc["models"].([]any)
	require.Len(t, models, 1)
	coef := models[0].(map[string]any)["coefficients"].([]any)[0].(map[string]any)
	assert.Equal(t, 0.25, coef["std_err"])
	assert.Nil(t, coef["z"])

	require.NoError(t, exp.ExportModels(context.Background(), "run-2", nil))
	data, err = os.ReadFile(paths.ModelsJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"models": []`)
}

func TestExportFailures(t *testing.T) {
	t.Run("cancelled context writes nothing", func(t *testing.T) {
		exp, paths := testExporter(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := exp.ExportPanel(ctx, testPanel(t))
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, config.FileExists(paths.PanelCSV))
	})

	t.Run("unwritable location is a storage error", func(t *testing.T) {
		exp, paths := testExporter(t)
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
		paths.PanelCSV = filepath.Join(blocker, "panel.csv")

		err := exp.ExportPanel(context.Background(), testPanel(t))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})
}
