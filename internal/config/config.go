package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Inputs    InputsConfig    `yaml:"inputs" envconfig:"INPUTS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Models    ModelsConfig    `yaml:"models" envconfig:"MODELS"`
}

// AnalysisConfig is the analysis window and worker settings
type AnalysisConfig struct {
	StartYear   int `yaml:"start_year" envconfig:"START_YEAR" validate:"gte=1816,lte=2100"`
	EndYear     int `yaml:"end_year" envconfig:"END_YEAR" validate:"gtefield=StartYear,lte=2100"`
	Parallelism int `yaml:"parallelism" envconfig:"PARALLELISM" validate:"gte=0,lte=256"`
}

// Workers resolves Parallelism to a worker count: 0 means one per CPU.
func (a AnalysisConfig) Workers() int {
	if a.Parallelism == 0 {
		return runtime.NumCPU()
	}
	return a.Parallelism
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// TableSource locates one input table and maps its columns onto the
// canonical schema. Aliases are keyed by canonical column name and are
// tried after the built-in aliases.
type TableSource struct {
	File    string              `yaml:"file" envconfig:"FILE"`
	Sheet   string              `yaml:"sheet" envconfig:"SHEET"`
	Aliases map[string][]string `yaml:"aliases" ignored:"true"`
}

// InputsConfig holds one source per input table
type InputsConfig struct {
	MajorPowers  TableSource `yaml:"major_powers" envconfig:"MAJOR_POWERS"`
	Contiguity   TableSource `yaml:"contiguity" envconfig:"CONTIGUITY"`
	Disputes     TableSource `yaml:"disputes" envconfig:"DISPUTES"`
	Trade        TableSource `yaml:"trade" envconfig:"TRADE"`
	Capabilities TableSource `yaml:"capabilities" envconfig:"CAPABILITIES"`
	Regimes      TableSource `yaml:"regimes" envconfig:"REGIMES"`
	Alliances    TableSource `yaml:"alliances" envconfig:"ALLIANCES"`
}

// Source returns the source of the named table.
func (in InputsConfig) Source(table string) (TableSource, bool) {
	switch table {
	case TableMajorPowers:
		return in.MajorPowers, true
	case TableContiguity:
		return in.Contiguity, true
	case TableDisputes:
		return in.Disputes, true
	case TableTrade:
		return in.Trade, true
	case TableCapabilities:
		return in.Capabilities, true
	case TableRegimes:
		return in.Regimes, true
	case TableAlliances:
		return in.Alliances, true
	default:
		return TableSource{}, false
	}
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricsEnabled  bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// ModelsConfig tunes the ordered-logit fits
type ModelsConfig struct {
	MaxIterations int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"gte=1,lte=10000"`
	Tolerance     float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
}

// Load builds the configuration from defaults, the YAML file at path (if
// any) and DYADPANEL_* environment variables, in increasing precedence.
// An empty path falls back to the well-known locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Unset variables leave the file and default values alone.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and fills derived defaults
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	for _, table := range RequiredTables {
		if src, _ := c.Inputs.Source(table); src.File == "" {
			return fmt.Errorf("input file for required table %q is empty", table)
		}
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		"configs/" + DefaultConfigFile,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			StartYear:   DefaultStartYear,
			EndYear:     DefaultEndYear,
			Parallelism: DefaultParallelism,
		},
		Paths: PathsConfig{
			InputDir:  DefaultInputDir,
			OutputDir: DefaultOutputDir,
		},
		Inputs: InputsConfig{
			MajorPowers:  TableSource{File: TableMajorPowers},
			Contiguity:   TableSource{File: TableContiguity},
			Disputes:     TableSource{File: TableDisputes},
			Trade:        TableSource{File: TableTrade},
			Capabilities: TableSource{File: TableCapabilities},
			Regimes:      TableSource{File: TableRegimes},
			Alliances:    TableSource{File: TableAlliances},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     DefaultServiceName,
			TraceExporter:   DefaultTraceExporter,
			MetricsEnabled:  true,
			MetricsTextfile: DefaultMetricsTextfile,
		},
		Models: ModelsConfig{
			MaxIterations: DefaultMaxIterations,
			Tolerance:     DefaultTolerance,
		},
	}
}
