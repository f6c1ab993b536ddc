package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the sheets catalog connector
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// External services
	CatalogBaseURL string
	SheetsBaseURL  string

	// Import settings
	LockTimeout           time.Duration
	WriteBlockSizeDivisor int
	MinWriteBlockSize     int
	DefaultSheetSize      int

	// Export settings
	ExportBlockSize   int
	CategoryTreeDepth int

	// Divisor for dimensional weight, cm^3 per kg
	VolumetricFactor float64

	// Backoff before the single retry on 429 responses
	SheetWriteRetryDelay  time.Duration
	ProductSpecRetryDelay time.Duration
	SkuSpecRetryDelay     time.Duration

	// Rate limiting for catalog API calls (requests per second)
	CatalogRateLimit int
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "catalog_sheets")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8094"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "http://catalog-api:8080"),
		SheetsBaseURL:  getEnv("SHEETS_BASE_URL", "http://sheets-proxy:8080"),

		LockTimeout:           getEnvAsDuration("IMPORT_LOCK_TIMEOUT", 30*time.Minute),
		WriteBlockSizeDivisor: getEnvAsInt("WRITE_BLOCK_SIZE_DIVISOR", 10),
		MinWriteBlockSize:     getEnvAsInt("MIN_WRITE_BLOCK_SIZE", 5),
		DefaultSheetSize:      getEnvAsInt("DEFAULT_SHEET_SIZE", 1000),

		ExportBlockSize:   getEnvAsInt("EXPORT_BLOCK_SIZE", 5),
		CategoryTreeDepth: getEnvAsInt("CATEGORY_TREE_DEPTH", 10),

		VolumetricFactor: float64(getEnvAsInt("VOLUMETRIC_FACTOR", 166)),

		SheetWriteRetryDelay:  getEnvAsDuration("SHEET_WRITE_RETRY_DELAY", 60*time.Second),
		ProductSpecRetryDelay: getEnvAsDuration("PRODUCT_SPEC_RETRY_DELAY", 10*time.Second),
		SkuSpecRetryDelay:     getEnvAsDuration("SKU_SPEC_RETRY_DELAY", 5*time.Second),

		CatalogRateLimit: getEnvAsInt("CATALOG_RATE_LIMIT", 10),
	}

	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
