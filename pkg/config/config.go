package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all converter configuration
type Config struct {
	Extraction    ExtractionConfig
	Analysis      AnalysisConfig
	Output        OutputConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type ExtractionConfig struct {
	Strategy      string // heuristic or table
	Fallback      bool   // fall back to heuristics when no table is found
	LineTolerance float64
	Workers       int
}

type AnalysisConfig struct {
	Region    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
}

type OutputConfig struct {
	Dir      string
	Format   string // xlsx or csv
	Currency string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Extraction: ExtractionConfig{
			Strategy:      getEnv("EXTRACTION_STRATEGY", "heuristic"),
			Fallback:      getEnvAsBool("EXTRACTION_FALLBACK", true),
			LineTolerance: getEnvAsFloat("LINE_TOLERANCE", 0.5),
			Workers:       getEnvAsInt("CONVERT_WORKERS", 4),
		},
		Analysis: AnalysisConfig{
			Region:    getEnv("AWS_REGION", ""),
			Timeout:   getEnvAsDuration("ANALYSIS_TIMEOUT", 60*time.Second),
			RateLimit: getEnvAsFloat("ANALYSIS_RATE_LIMIT", 1),
		},
		Output: OutputConfig{
			Dir:      getEnv("OUTPUT_DIR", "./output"),
			Format:   strings.ToLower(getEnv("OUTPUT_FORMAT", "xlsx")),
			Currency: strings.ToUpper(getEnv("OUTPUT_CURRENCY", "USD")),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", false),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the converter cannot run with.
func (c *Config) Validate() error {
	switch c.Extraction.Strategy {
	case "heuristic":
	case "table":
		if c.Analysis.Region == "" {
			return errors.New("AWS_REGION is required for the table strategy")
		}
	default:
		return fmt.Errorf("unknown EXTRACTION_STRATEGY %q", c.Extraction.Strategy)
	}

	switch c.Output.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("unknown OUTPUT_FORMAT %q", c.Output.Format)
	}

	if c.Extraction.Workers < 1 {
		return errors.New("CONVERT_WORKERS must be at least 1")
	}
	if c.Extraction.LineTolerance <= 0 {
		return errors.New("LINE_TOLERANCE must be positive")
	}
	if c.Analysis.Timeout <= 0 {
		return errors.New("ANALYSIS_TIMEOUT must be positive")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
