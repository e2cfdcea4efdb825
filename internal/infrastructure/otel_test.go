package infrastructure

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitializeOTel(t *testing.T) {
	var traces bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "dyadpanel-test",
		ServiceVersion: "test",
		TraceExporter:  "stdout",
		EnableMetrics:  true,
		TraceWriter:    &traces,
	}, nil)
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Registry)

	_, span := otel.Tracer("test").Start(context.Background(), "panel.relevance")
	span.End()
	assert.Contains(t, traces.String(), "panel.relevance")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "none"}, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.Registry)
	assert.NoError(t, providers.WriteMetricsTextfile(filepath.Join(t.TempDir(), "m.prom")))
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "jaeger"}, nil)
	assert.Error(t, err)
}

func TestPipelineMetrics_Textfile(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "none", EnableMetrics: true}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordStage(ctx, "relevance", 30, 20*time.Millisecond)
	metrics.RecordDisputes(ctx, 1, 1)
	metrics.RecordTableLoaded(ctx, "contiguity", 10)

	path := filepath.Join(t.TempDir(), "dyadpanel.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "dyadpanel_stage_rows")
	assert.Contains(t, text, `stage="relevance"`)
	assert.Contains(t, text, "dyadpanel_disputes_dropped")
	assert.Contains(t, text, `table="contiguity"`)
}

func TestPipelineMetrics_NilIsNoop(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordStage(context.Background(), "derive", 1, time.Second)
		m.RecordDisputes(context.Background(), 1, 0)
		m.RecordTableLoaded(context.Background(), "trade", 1)
	})
}
