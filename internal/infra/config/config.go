package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// AppConfig holds all process-level configuration for the application
type AppConfig struct {
	TelegramToken          string
	DatabaseURL            string
	StorageDriver          string
	AdminTelegramID        int64
	ManagerTelegramID      int64 // Receives analysis reports; 0 disables delivery
	LogLevel               string
	Environment            string
	SurveyConfigPath       string
	OpenAIAPIKey           string
	OpenAIBaseURL          string
	OpenAIModel            string
	CompletionTimeout      time.Duration
	CompletionMaxRetries   int
	BroadcastRatePerSecond float64
	AnalysisLookbackDays   int
	SchedulerTimezone      string
}

// Load reads configuration from environment variables and .env file (if present).
func Load(envFiles ...string) (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load(envFiles...)

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.StorageDriver = strings.ToLower(os.Getenv("STORAGE_DRIVER"))
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageDriverPostgres
	}
	if cfg.StorageDriver != StorageDriverPostgres && cfg.StorageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q (want %s or %s)", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" && cfg.StorageDriver == StorageDriverPostgres {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	if managerIDStr := os.Getenv("MANAGER_TELEGRAM_ID"); managerIDStr != "" {
		cfg.ManagerTelegramID, err = strconv.ParseInt(managerIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MANAGER_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.SurveyConfigPath = getEnvOrDefault("SURVEY_CONFIG_PATH", "config.yaml")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", "gpt-4")

	cfg.CompletionTimeout, err = time.ParseDuration(getEnvOrDefault("COMPLETION_TIMEOUT", "30s"))
	if err != nil || cfg.CompletionTimeout <= 0 {
		return nil, fmt.Errorf("invalid COMPLETION_TIMEOUT: %q", os.Getenv("COMPLETION_TIMEOUT"))
	}

	cfg.CompletionMaxRetries, err = strconv.Atoi(getEnvOrDefault("COMPLETION_MAX_RETRIES", "1"))
	if err != nil || cfg.CompletionMaxRetries < 0 {
		return nil, fmt.Errorf("invalid COMPLETION_MAX_RETRIES: %q", os.Getenv("COMPLETION_MAX_RETRIES"))
	}

	cfg.BroadcastRatePerSecond, err = strconv.ParseFloat(getEnvOrDefault("BROADCAST_RATE_PER_SECOND", "25"), 64)
	if err != nil || cfg.BroadcastRatePerSecond <= 0 {
		return nil, fmt.Errorf("invalid BROADCAST_RATE_PER_SECOND: %q", os.Getenv("BROADCAST_RATE_PER_SECOND"))
	}

	cfg.AnalysisLookbackDays, err = strconv.Atoi(getEnvOrDefault("ANALYSIS_LOOKBACK_DAYS", "7"))
	if err != nil || cfg.AnalysisLookbackDays <= 0 {
		return nil, fmt.Errorf("invalid ANALYSIS_LOOKBACK_DAYS: %q", os.Getenv("ANALYSIS_LOOKBACK_DAYS"))
	}

	cfg.SchedulerTimezone = os.Getenv("SCHEDULER_TIMEZONE")
	if cfg.SchedulerTimezone != "" {
		if _, err := time.LoadLocation(cfg.SchedulerTimezone); err != nil {
			return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE: %w", err)
		}
	}

	return cfg, nil
}

// Location resolves SchedulerTimezone, falling back to the server's local time.
func (c *AppConfig) Location() *time.Location {
	if c.SchedulerTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AnalysisLookback is the window the periodic analysis aggregates over.
func (c *AppConfig) AnalysisLookback() time.Duration {
	return time.Duration(c.AnalysisLookbackDays) * 24 * time.Hour
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
