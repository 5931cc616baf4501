package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env here
	for _, k := range []string{"EXTRACTION_STRATEGY", "OUTPUT_FORMAT", "LOG_FORMAT", "CONVERT_WORKERS", "AWS_REGION"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "heuristic", cfg.Extraction.Strategy)
	assert.True(t, cfg.Extraction.Fallback)
	assert.Equal(t, 0.5, cfg.Extraction.LineTolerance)
	assert.Equal(t, 4, cfg.Extraction.Workers)
	assert.Equal(t, 60*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, "USD", cfg.Output.Currency)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestLoad_FromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("EXTRACTION_STRATEGY", "table")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("ANALYSIS_TIMEOUT", "90s")
	t.Setenv("ANALYSIS_RATE_LIMIT", "2.5")
	t.Setenv("OUTPUT_FORMAT", "CSV")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CONVERT_WORKERS", "8")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "table", cfg.Extraction.Strategy)
	assert.Equal(t, "eu-west-1", cfg.Analysis.Region)
	assert.Equal(t, 90*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 2.5, cfg.Analysis.RateLimit)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 8, cfg.Extraction.Workers)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Extraction: ExtractionConfig{Strategy: "heuristic", LineTolerance: 0.5, Workers: 1},
			Analysis:   AnalysisConfig{Timeout: time.Second},
			Output:     OutputConfig{Format: "xlsx"},
			Log:        LogConfig{Format: "text"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown strategy", func(c *Config) { c.Extraction.Strategy = "vision" }, false},
		{"table without region", func(c *Config) { c.Extraction.Strategy = "table" }, false},
		{"table with region", func(c *Config) { c.Extraction.Strategy = "table"; c.Analysis.Region = "us-east-1" }, true},
		{"unknown format", func(c *Config) { c.Output.Format = "pdf" }, false},
		{"no workers", func(c *Config) { c.Extraction.Workers = 0 }, false},
		{"zero tolerance", func(c *Config) { c.Extraction.LineTolerance = 0 }, false},
		{"zero timeout", func(c *Config) { c.Analysis.Timeout = 0 }, false},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
