package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Price source
	SurgeURL      string
	SurgeAPIKey   string
	SurgeRetryMax int
	SurgeDelay    time.Duration

	// Banking APIs
	MercuryURL    string
	MercuryAPIKey string
	CircleURL     string
	CircleAPIKey  string

	// Collection
	AccountTimeout   time.Duration
	CollectWorkers   int
	ProviderInterval time.Duration
	RPCRetryMax      int
	RPCRetryDelay    time.Duration

	// Serve mode
	DatabaseURL          string
	HTTPPort             string
	AdminAPIKey          string
	ReportWorkerInterval time.Duration

	// Export
	SheetsSpreadsheetID string
	SheetsCredentials   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		SurgeURL:      envOrDefault("SURGE_URL", "https://surge.switchboard.xyz"),
		SurgeAPIKey:   os.Getenv("SURGE_API_KEY"),
		SurgeRetryMax: envOrDefaultInt("SURGE_RETRY_MAX", 3),
		SurgeDelay:    envOrDefaultDuration("SURGE_RETRY_BASE_DELAY", 2*time.Second),

		MercuryURL:    envOrDefault("MERCURY_URL", "https://api.mercury.com/api/v1"),
		MercuryAPIKey: os.Getenv("MERCURY_API_KEY"),
		CircleURL:     envOrDefault("CIRCLE_URL", "https://api.circle.com"),
		CircleAPIKey:  os.Getenv("CIRCLE_API_KEY"),

		AccountTimeout:   envOrDefaultDuration("ACCOUNT_TIMEOUT", 30*time.Second),
		CollectWorkers:   envOrDefaultInt("COLLECT_WORKERS", 4),
		ProviderInterval: envOrDefaultDuration("PROVIDER_MIN_INTERVAL", 200*time.Millisecond),
		RPCRetryMax:      envOrDefaultInt("RPC_RETRY_MAX", 3),
		RPCRetryDelay:    envOrDefaultDuration("RPC_RETRY_BASE_DELAY", 2*time.Second),

		DatabaseURL:          os.Getenv("DATABASE_URL"),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:          os.Getenv("ADMIN_API_KEY"),
		ReportWorkerInterval: envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),

		SheetsSpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetsCredentials:   os.Getenv("SHEETS_CREDENTIALS_JSON"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
