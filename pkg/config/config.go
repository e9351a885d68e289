package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string
	Timezone string

	// Database. An empty DatabaseURL selects local mode on SQLite.
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Working day
	WorkStart string
	WorkEnd   string

	// Risk thresholds
	RiskOverbookedRatio    float64
	RiskBackToBackMinutes  float64
	RiskBackToBackMinCount int
	RiskNoBreakGapMinutes  float64
	RiskNoBreakMinMinutes  float64

	// Caches and state
	RuleCacheSize int
	StateTTL      time.Duration

	// Event source circuit breaker
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
	BreakerInterval    time.Duration

	// Outbox relay
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxRetries      int
	OutboxRetentionDays   int
	OutboxCleanupInterval time.Duration

	// Worker
	RiskScanCron     string
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("PLANWISE_USER_ID", "00000000-0000-0000-0000-000000000001"),
		Timezone: getEnv("PLANWISE_TIMEZONE", "UTC"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", defaultSQLitePath()),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		WorkStart: getEnv("WORK_START", "09:00"),
		WorkEnd:   getEnv("WORK_END", "17:00"),

		RiskOverbookedRatio:    getFloatEnv("RISK_OVERBOOKED_RATIO", 0.85),
		RiskBackToBackMinutes:  getFloatEnv("RISK_BACK_TO_BACK_MINUTES", 10),
		RiskBackToBackMinCount: getIntEnv("RISK_BACK_TO_BACK_COUNT", 2),
		RiskNoBreakGapMinutes:  getFloatEnv("RISK_NO_BREAK_GAP_MINUTES", 30),
		RiskNoBreakMinMinutes:  getFloatEnv("RISK_NO_BREAK_SCHEDULED_MINUTES", 240),

		RuleCacheSize: getIntEnv("RULE_CACHE_SIZE", 256),
		StateTTL:      getDurationEnv("STATE_TTL", 24*time.Hour),

		BreakerMaxFailures: uint32(max(getIntEnv("BREAKER_MAX_FAILURES", 5), 1)),
		BreakerTimeout:     getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),
		BreakerInterval:    getDurationEnv("BREAKER_INTERVAL", time.Minute),

		OutboxPollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", time.Hour),

		RiskScanCron:     getEnv("RISK_SCAN_CRON", "0 7 * * *"),
		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	cfg.LocalMode = cfg.DatabaseURL == ""
	cfg.DatabaseDriver = "postgres"
	if cfg.LocalMode {
		cfg.DatabaseDriver = "sqlite"
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid PLANWISE_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.RuleCacheSize <= 0 {
		return nil, fmt.Errorf("RULE_CACHE_SIZE must be positive, got %d", cfg.RuleCacheSize)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location returns the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".planwise", "planwise.db")
	}
	return filepath.Join(home, ".planwise", "planwise.db")
}
