package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dyadpanel/internal/config"
	"dyadpanel/internal/dataprocessing"
	apperrors "dyadpanel/internal/errors"
	"dyadpanel/internal/exporter"
	"dyadpanel/internal/files"
	"dyadpanel/internal/infrastructure"
	"dyadpanel/internal/model"
	"dyadpanel/internal/operations"
	"dyadpanel/internal/panel"
	"dyadpanel/internal/report"
	"dyadpanel/internal/validation"
)

const shutdownTimeout = 5 * time.Second

// options are the persistent flags. Flags override the configuration file
// and environment, but only when given explicitly.
type options struct {
	configPath  string
	startYear   int
	endYear     int
	inputDir    string
	outputDir   string
	parallelism int
	logLevel    string
	quiet       bool
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVar(&o.configPath, "config", "", "path to the YAML configuration file (default: "+config.DefaultConfigFile+" if present)")
	flags.IntVar(&o.startYear, "start-year", config.DefaultStartYear, "first year of the analysis window")
	flags.IntVar(&o.endYear, "end-year", config.DefaultEndYear, "last year of the analysis window")
	flags.StringVar(&o.inputDir, "input", config.DefaultInputDir, "directory holding the input tables")
	flags.StringVar(&o.outputDir, "output", config.DefaultOutputDir, "directory for the panel, summaries and models")
	flags.IntVar(&o.parallelism, "parallelism", config.DefaultParallelism, "workers for the per-year relevance join (0 = number of CPUs)")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "do not print summary tables to stdout")
}

// apply copies explicitly set flags onto cfg
func (o *options) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("start-year") {
		cfg.Analysis.StartYear = o.startYear
	}
	if flags.Changed("end-year") {
		cfg.Analysis.EndYear = o.endYear
	}
	if flags.Changed("input") {
		cfg.Paths.InputDir = o.inputDir
	}
	if flags.Changed("output") {
		cfg.Paths.OutputDir = o.outputDir
	}
	if flags.Changed("parallelism") {
		cfg.Analysis.Parallelism = o.parallelism
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	opts.apply(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid command line overrides", err)
	}
	return cfg, nil
}

func execute(cmd *cobra.Command, opts *options, plan operations.Plan) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize logging", err)
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	paths, err := cfg.ResolvePaths("")
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("failed to create output directories", err)
	}
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.OutputDir); err != nil {
		return apperrors.NewStorageError("output directory is not usable", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	var metrics *infrastructure.PipelineMetrics
	if providers.Meter != nil {
		if metrics, err = infrastructure.CreatePipelineMetrics(providers.Meter); err != nil {
			return apperrors.NewConfigError("failed to create pipeline metrics", err)
		}
	}

	logger.InfoContext(ctx, "Starting run",
		slog.String("command", string(plan)),
		slog.Int("start_year", cfg.Analysis.StartYear),
		slog.Int("end_year", cfg.Analysis.EndYear),
		slog.String("input_dir", paths.InputDir),
		slog.String("output_dir", paths.OutputDir))

	pipeline := newPipeline(cmd, cfg, paths, logger, metrics, opts.quiet)
	steps, err := pipeline.Steps(plan)
	if err != nil {
		return err
	}

	state := operations.NewOperationState(runID)
	runErr := operations.NewManager(logger).Execute(ctx, state, steps)

	if err := providers.WriteMetricsTextfile(paths.MetricsTextfile); err != nil {
		logger.WarnContext(ctx, "Metrics textfile not written", slog.String("error", err.Error()))
	}
	if runErr != nil {
		return runErr
	}

	logger.InfoContext(ctx, "Run completed",
		slog.String("command", string(plan)),
		slog.Int("rows", state.Panel.Len()),
		slog.Duration("duration", state.Duration()))
	for _, path := range state.Written {
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
	}
	return nil
}

func newPipeline(cmd *cobra.Command, cfg *config.Config, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.PipelineMetrics, quiet bool) *operations.Pipeline {
	writer := exporter.NewExporter(logger, paths, files.NewManager(logger))

	summarize := &operations.SummarizeStep{
		Builder: report.NewBuilder(logger),
		Writer:  writer,
	}
	if !quiet {
		summarize.Console = cmd.OutOrStdout()
	}

	return &operations.Pipeline{
		Load: &operations.LoadStep{
			Loader: dataprocessing.NewLoader(logger, paths.InputDir, cfg.Inputs, metrics),
		},
		Assemble: &operations.AssembleStep{
			Assembler: panel.NewAssembler(logger, panel.Options{
				StartYear:   cfg.Analysis.StartYear,
				EndYear:     cfg.Analysis.EndYear,
				Parallelism: cfg.Analysis.Workers(),
			}, metrics),
		},
		ExportPanel: &operations.ExportPanelStep{
			Writer: writer,
			Panel:  paths.PanelCSV,
			Diag:   paths.DiagnosticsJSON,
		},
		Summarize: summarize,
		Fit: &operations.FitStep{
			Fitter: model.NewFitter(logger, model.Options{
				MaxIterations: cfg.Models.MaxIterations,
				Tolerance:     cfg.Models.Tolerance,
			}),
			Specs:  model.DefaultSpecifications(),
			Writer: writer,
			Models: paths.ModelsJSON,
		},
	}
}
