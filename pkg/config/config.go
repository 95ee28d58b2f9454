package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Rates    RatesConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ImportConfig carries the statement-import tunables. The defaults are the
// long-standing values; overriding them is rare and mostly useful for
// experiments against unusual bank exports.
type ImportConfig struct {
	// TransferWindowDays is how many days from a transaction date the
	// transfer matcher searches, inclusive of the date itself.
	TransferWindowDays int
	// FuzzyRatioLow and FuzzyRatioHigh bound the accepted ratio between a
	// candidate row value and the converted transaction value.
	FuzzyRatioLow  float64
	FuzzyRatioHigh float64
	// PreviewRows caps how many rows per file the CLI preview prints.
	PreviewRows int
}

type RatesConfig struct {
	// RefreshSchedule is a cron expression for the exchange-rate refresh job.
	RefreshSchedule string
}

// Load reads configuration from environment variables, with .env files
// honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "tophat-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Import: ImportConfig{
			TransferWindowDays: getEnvAsInt("IMPORT_TRANSFER_WINDOW_DAYS", 5),
			FuzzyRatioLow:      getEnvAsFloat("IMPORT_FUZZY_RATIO_LOW", 0.8),
			FuzzyRatioHigh:     getEnvAsFloat("IMPORT_FUZZY_RATIO_HIGH", 1.2),
			PreviewRows:        getEnvAsInt("IMPORT_PREVIEW_ROWS", 20),
		},
		Rates: RatesConfig{
			RefreshSchedule: getEnv("RATES_REFRESH_SCHEDULE", "0 6 * * *"),
		},
	}

	if cfg.Import.TransferWindowDays < 1 {
		return nil, fmt.Errorf("IMPORT_TRANSFER_WINDOW_DAYS must be positive, got %d", cfg.Import.TransferWindowDays)
	}
	if cfg.Import.FuzzyRatioLow <= 0 || cfg.Import.FuzzyRatioHigh < cfg.Import.FuzzyRatioLow {
		return nil, fmt.Errorf("invalid fuzzy ratio bounds [%v, %v]", cfg.Import.FuzzyRatioLow, cfg.Import.FuzzyRatioHigh)
	}

	return cfg, nil
}

// DefaultImport returns the import tunables with their defaults, bypassing
// the environment. Used by tests and the in-memory CLI path.
func DefaultImport() ImportConfig {
	return ImportConfig{
		TransferWindowDays: 5,
		FuzzyRatioLow:      0.8,
		FuzzyRatioHigh:     1.2,
		PreviewRows:        20,
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
