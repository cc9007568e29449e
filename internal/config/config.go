// Package config provides configuration management for the accident pipeline
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a pipeline run. The defaults reproduce the
// literal constants of the reference analysis.
type Config struct {
	// Data synthesis
	Rows      int       `json:"rows" yaml:"rows"`             // Number of synthetic accident records
	Seed      uint64    `json:"seed" yaml:"seed"`             // Seed shared by synthesis, corruption, split and model
	StartTime time.Time `json:"start_time" yaml:"start_time"` // Timestamp of the first record; later records are hourly

	// Corruption before imputation
	MissingWeather   int `json:"missing_weather" yaml:"missing_weather"`       // Rows whose Weather is blanked
	MissingDriverAge int `json:"missing_driver_age" yaml:"missing_driver_age"` // Rows whose Driver_Age is blanked

	// Modeling
	TestFraction     float64 `json:"test_fraction" yaml:"test_fraction"`           // Fraction of rows held out for testing
	Trees            int     `json:"trees" yaml:"trees"`                           // Number of trees in the forest
	MaxDepth         int     `json:"max_depth" yaml:"max_depth"`                   // 0 = grow until leaves are pure
	MinSamplesSplit  int     `json:"min_samples_split" yaml:"min_samples_split"`   // Minimum rows to split a node
	CVFolds          int     `json:"cv_folds" yaml:"cv_folds"`                     // Folds for cross-validation
	ScaleBeforeSplit bool    `json:"scale_before_split" yaml:"scale_before_split"` // Fit the scaler on all rows (leaks test statistics)

	// Output
	OutputDir  string `json:"output_dir" yaml:"output_dir"`   // Directory for rendered figures
	HTMLReport bool   `json:"html_report" yaml:"html_report"` // Also render an interactive HTML page
	HeadRows   int    `json:"head_rows" yaml:"head_rows"`     // Rows printed by the head summary

	// Debugging
	LogLevel          string `json:"log_level" yaml:"log_level"`                   // debug, info, warn, error
	LogFormat         string `json:"log_format" yaml:"log_format"`                 // console or json
	MetricsCollection bool   `json:"metrics_collection" yaml:"metrics_collection"` // Print per-stage timings
}

// Default configuration values
const (
	DefaultRows             = 1000
	DefaultSeed             = 42
	DefaultMissingWeather   = 50
	DefaultMissingDriverAge = 30
	DefaultTestFraction     = 0.2
	DefaultTrees            = 100
	DefaultMinSamplesSplit  = 2
	DefaultCVFolds          = 5
	DefaultOutputDir        = "figures"
	DefaultHeadRows         = 5
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"

	envPrefix = "ROADSAFETY_"
)

// DefaultStartTime is the timestamp of the first synthetic record.
var DefaultStartTime = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Rows:      DefaultRows,
		Seed:      DefaultSeed,
		StartTime: DefaultStartTime,

		MissingWeather:   DefaultMissingWeather,
		MissingDriverAge: DefaultMissingDriverAge,

		TestFraction:     DefaultTestFraction,
		Trees:            DefaultTrees,
		MaxDepth:         0,
		MinSamplesSplit:  DefaultMinSamplesSplit,
		CVFolds:          DefaultCVFolds,
		ScaleBeforeSplit: true,

		OutputDir:  DefaultOutputDir,
		HTMLReport: false,
		HeadRows:   DefaultHeadRows,

		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Rows <= 0 {
		return fmt.Errorf("Rows must be positive, got %d", c.Rows)
	}

	if c.MissingWeather < 0 || c.MissingWeather > c.Rows {
		return fmt.Errorf("MissingWeather must be between 0 and %d, got %d", c.Rows, c.MissingWeather)
	}

	if c.MissingDriverAge < 0 || c.MissingDriverAge > c.Rows {
		return fmt.Errorf("MissingDriverAge must be between 0 and %d, got %d", c.Rows, c.MissingDriverAge)
	}

	if c.TestFraction <= 0.0 || c.TestFraction >= 1.0 {
		return fmt.Errorf("TestFraction must be between 0 and 1 exclusive, got %f", c.TestFraction)
	}

	if c.Trees <= 0 {
		return fmt.Errorf("Trees must be positive, got %d", c.Trees)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("MaxDepth must be non-negative, got %d", c.MaxDepth)
	}

	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("MinSamplesSplit must be at least 2, got %d", c.MinSamplesSplit)
	}

	if c.CVFolds < 2 {
		return fmt.Errorf("CVFolds must be at least 2, got %d", c.CVFolds)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LogFormat must be console or json, got %q", c.LogFormat)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.Rows == 0 {
		c.Rows = defaults.Rows
	}
	if c.StartTime.IsZero() {
		c.StartTime = defaults.StartTime
	}
	if c.TestFraction == 0.0 {
		c.TestFraction = defaults.TestFraction
	}
	if c.Trees == 0 {
		c.Trees = defaults.Trees
	}
	if c.MinSamplesSplit == 0 {
		c.MinSamplesSplit = defaults.MinSamplesSplit
	}
	if c.CVFolds == 0 {
		c.CVFolds = defaults.CVFolds
	}
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.HeadRows == 0 {
		c.HeadRows = defaults.HeadRows
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	// Note: Seed, MissingWeather/MissingDriverAge and boolean fields are not
	// defaulted here, since zero is a meaningful value for them.
	// Decode over NewConfig() when file values should overlay defaults.

	return c
}

// LoadFromJSON loads configuration from JSON data, overlaying the defaults
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file, overlaying the defaults
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".json" {
		config, err := LoadFromJSON(data)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
		}
		return config, nil
	}

	config := NewConfig()
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv applies ROADSAFETY_* environment variables on top of base.
// Unparseable values are ignored.
func LoadFromEnv(base Config) Config {
	config := base

	envInt("ROWS", &config.Rows)
	envInt("MISSING_WEATHER", &config.MissingWeather)
	envInt("MISSING_DRIVER_AGE", &config.MissingDriverAge)
	envInt("TREES", &config.Trees)
	envInt("MAX_DEPTH", &config.MaxDepth)
	envInt("MIN_SAMPLES_SPLIT", &config.MinSamplesSplit)
	envInt("CV_FOLDS", &config.CVFolds)
	envInt("HEAD_ROWS", &config.HeadRows)

	if val := os.Getenv(envPrefix + "SEED"); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.Seed = parsed
		}
	}

	if val := os.Getenv(envPrefix + "START_TIME"); val != "" {
		if parsed, err := time.Parse(time.RFC3339, val); err == nil {
			config.StartTime = parsed.UTC()
		}
	}

	if val := os.Getenv(envPrefix + "TEST_FRACTION"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.TestFraction = parsed
		}
	}

	envBool("SCALE_BEFORE_SPLIT", &config.ScaleBeforeSplit)
	envBool("HTML_REPORT", &config.HTMLReport)
	envBool("METRICS_COLLECTION", &config.MetricsCollection)

	if val := os.Getenv(envPrefix + "OUTPUT_DIR"); val != "" {
		config.OutputDir = val
	}
	if val := os.Getenv(envPrefix + "LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv(envPrefix + "LOG_FORMAT"); val != "" {
		config.LogFormat = strings.ToLower(val)
	}

	return config
}

func envInt(key string, dst *int) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			*dst = parsed
		}
	}
}
