package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paveg/roadsafety/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 1000, cfg.Rows)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime)
	assert.Equal(t, 50, cfg.MissingWeather)
	assert.Equal(t, 30, cfg.MissingDriverAge)
	assert.InDelta(t, 0.2, cfg.TestFraction, 0.001)
	assert.Equal(t, 100, cfg.Trees)
	assert.Equal(t, 0, cfg.MaxDepth)
	assert.Equal(t, 2, cfg.MinSamplesSplit)
	assert.Equal(t, 5, cfg.CVFolds)
	assert.True(t, cfg.ScaleBeforeSplit)
	assert.False(t, cfg.HTMLReport)
	assert.False(t, cfg.MetricsCollection)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:          "valid config",
			mutate:        func(*config.Config) {},
			expectedError: "",
		},
		{
			name:          "zero rows",
			mutate:        func(c *config.Config) { c.Rows = 0 },
			expectedError: "Rows must be positive, got 0",
		},
		{
			name:          "too many missing weather rows",
			mutate:        func(c *config.Config) { c.MissingWeather = 1001 },
			expectedError: "MissingWeather must be between 0 and 1000, got 1001",
		},
		{
			name:          "negative missing ages",
			mutate:        func(c *config.Config) { c.MissingDriverAge = -1 },
			expectedError: "MissingDriverAge must be between 0 and 1000, got -1",
		},
		{
			name:          "test fraction of one",
			mutate:        func(c *config.Config) { c.TestFraction = 1 },
			expectedError: "TestFraction must be between 0 and 1 exclusive, got 1.000000",
		},
		{
			name:          "no trees",
			mutate:        func(c *config.Config) { c.Trees = -3 },
			expectedError: "Trees must be positive, got -3",
		},
		{
			name:          "negative depth",
			mutate:        func(c *config.Config) { c.MaxDepth = -1 },
			expectedError: "MaxDepth must be non-negative, got -1",
		},
		{
			name:          "min samples split of one",
			mutate:        func(c *config.Config) { c.MinSamplesSplit = 1 },
			expectedError: "MinSamplesSplit must be at least 2, got 1",
		},
		{
			name:          "single fold",
			mutate:        func(c *config.Config) { c.CVFolds = 1 },
			expectedError: "CVFolds must be at least 2, got 1",
		},
		{
			name:          "unknown log format",
			mutate:        func(c *config.Config) { c.LogFormat = "xml" },
			expectedError: `LogFormat must be console or json, got "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedError)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{Rows: 200, MissingWeather: 0}.WithDefaults()

	assert.Equal(t, 200, cfg.Rows)
	assert.Zero(t, cfg.Seed, "zero is a valid seed")
	assert.Equal(t, 100, cfg.Trees)
	assert.Equal(t, 0, cfg.MissingWeather)
	assert.Equal(t, "figures", cfg.OutputDir)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "run.yaml")
		content := "rows: 500\nseed: 7\ntrees: 25\nscale_before_split: false\nstart_time: 2024-06-01T00:00:00Z\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.Rows)
		assert.Equal(t, uint64(7), cfg.Seed)
		assert.Equal(t, 25, cfg.Trees)
		assert.False(t, cfg.ScaleBeforeSplit)
		assert.Equal(t, 50, cfg.MissingWeather, "unset keys keep their defaults")
		assert.Equal(t, 2024, cfg.StartTime.Year())
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "run.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"cv_folds": 3, "html_report": true}`), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.CVFolds)
		assert.True(t, cfg.HTMLReport)
		assert.True(t, cfg.ScaleBeforeSplit)
	})

	t.Run("zero seed is kept", func(t *testing.T) {
		path := filepath.Join(dir, "zero.yaml")
		require.NoError(t, os.WriteFile(path, []byte("seed: 0\n"), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Zero(t, cfg.Seed)
		assert.Zero(t, cfg.WithDefaults().Seed)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"rows":`), 0o600))

		_, err := config.LoadFromFile(path)
		assert.ErrorContains(t, err, "parsing JSON configuration")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "run.toml")
		require.NoError(t, os.WriteFile(path, []byte("rows = 1"), 0o600))

		_, err := config.LoadFromFile(path)
		assert.EqualError(t, err, "unsupported config file format: .toml")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rows: [unterminated"), 0o600))

		_, err := config.LoadFromFile(path)
		assert.ErrorContains(t, err, "parsing config file")
	})
}

func TestConfig_LoadFromJSON(t *testing.T) {
	cfg, err := config.LoadFromJSON([]byte(`{"rows": 300, "test_fraction": 0.25}`))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Rows)
	assert.InDelta(t, 0.25, cfg.TestFraction, 1e-9)

	_, err = config.LoadFromJSON([]byte(`{"rows":`))
	assert.ErrorContains(t, err, "parsing JSON configuration")
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("ROADSAFETY_ROWS", "250")
	t.Setenv("ROADSAFETY_SEED", "99")
	t.Setenv("ROADSAFETY_TEST_FRACTION", "0.3")
	t.Setenv("ROADSAFETY_SCALE_BEFORE_SPLIT", "false")
	t.Setenv("ROADSAFETY_LOG_FORMAT", "JSON")
	t.Setenv("ROADSAFETY_TREES", "not-a-number")
	t.Setenv("ROADSAFETY_START_TIME", "2022-03-04T05:00:00Z")

	cfg := config.LoadFromEnv(config.NewConfig())

	assert.Equal(t, 250, cfg.Rows)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.InDelta(t, 0.3, cfg.TestFraction, 1e-9)
	assert.False(t, cfg.ScaleBeforeSplit)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 100, cfg.Trees, "invalid values are ignored")
	assert.Equal(t, time.Date(2022, 3, 4, 5, 0, 0, 0, time.UTC), cfg.StartTime)

	t.Setenv("ROADSAFETY_SEED", "0")
	assert.Zero(t, config.LoadFromEnv(config.NewConfig()).WithDefaults().Seed)
}
