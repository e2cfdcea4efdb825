// Package config provides configuration management for dyadpanel.
// It loads configuration from multiple sources, validates it, and resolves
// the input and output paths of a run.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// Command-line flags are applied on top by the CLI.
//
// # Environment Variables
//
// All environment variables follow the pattern DYADPANEL_<SECTION>_<FIELD>:
//
//	DYADPANEL_ANALYSIS_START_YEAR=1973
//	DYADPANEL_ANALYSIS_END_YEAR=2014
//	DYADPANEL_ANALYSIS_PARALLELISM=4
//	DYADPANEL_PATHS_INPUT_DIR=data/input
//	DYADPANEL_INPUTS_TRADE_FILE=dyadic_trade.xlsx
//	DYADPANEL_LOGGING_LEVEL=debug
//
// # Schema Mapping
//
// Source datasets name their columns inconsistently. Each table under
// inputs: accepts aliases keyed by canonical column name; they are only
// configurable from the YAML file:
//
//	inputs:
//	  trade:
//	    file: dyadic_trade_4.0.csv
//	    aliases:
//	      flow1: [flow_ab]
//	      flow2: [flow_ba]
//
// # Validation
//
// All configuration is validated at load time with struct tags: the window
// must be inside the years the datasets cover and must not be empty, enum
// settings must hold a known value, and every required table needs a file.
package config
