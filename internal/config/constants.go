package config

// Application constants
const (
	AppName   = "dyadpanel"
	EnvPrefix = "DYADPANEL"

	// Analysis window, inclusive on both ends
	DefaultStartYear = 1973
	DefaultEndYear   = 2014

	// Earliest and latest years the source datasets cover
	MinYear = 1816
	MaxYear = 2100

	// 0 means one worker per CPU
	DefaultParallelism = 0
	MaxParallelism     = 256

	DefaultInputDir  = "data/input"
	DefaultOutputDir = "data/output"

	DefaultConfigFile = "dyadpanel.yaml"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/dyadpanel.log"

	// Telemetry
	DefaultServiceName     = "dyadpanel"
	DefaultTraceExporter   = "none"
	DefaultMetricsTextfile = "dyadpanel.prom"

	// Ordered-logit estimation
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-8
)

// Input table names. They double as default file stems in the input
// directory: <name>.csv or <name>.xlsx.
const (
	TableMajorPowers  = "major_powers"
	TableContiguity   = "contiguity"
	TableDisputes     = "disputes"
	TableTrade        = "trade"
	TableCapabilities = "capabilities"
	TableRegimes      = "regimes"
	TableAlliances    = "alliances"
)

// RequiredTables must be present for a run; the rest are optional.
var RequiredTables = []string{TableMajorPowers, TableContiguity, TableDisputes}

// OptionalTables degrade their derived variables to NA when absent.
var OptionalTables = []string{TableTrade, TableCapabilities, TableRegimes, TableAlliances}
