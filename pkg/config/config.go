package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv             string
	LogLevel           string
	LogFormat          string
	DefaultBlockReason string

	// Block API
	APIURL       string
	APIToken     string
	ActorID      string
	APITimeout   time.Duration
	APIRateLimit float64
	APIRateBurst int

	// Circuit breaker
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold uint32

	// Local mode
	LocalMode      bool
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string

	// Redis
	RedisURL         string
	BookingsCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Outbox (local mode only)
	OutboxEnabled    bool
	OutboxMaxRetries int
	OutboxRetention  time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", ""),
		DefaultBlockReason: getEnv("DEFAULT_BLOCK_REASON", ""),

		APIURL:       strings.TrimRight(getEnv("SALONOPS_API_URL", ""), "/"),
		APIToken:     getEnv("SALONOPS_API_TOKEN", ""),
		ActorID:      getEnv("SALONOPS_ACTOR_ID", ""),
		APITimeout:   getDurationEnv("API_TIMEOUT", 15*time.Second),
		APIRateLimit: getFloatEnv("API_RATE_LIMIT", 5),
		APIRateBurst: getIntEnv("API_RATE_BURST", 5),

		BreakerMaxRequests:      uint32(getIntEnv("BREAKER_MAX_REQUESTS", 1)),
		BreakerInterval:         getDurationEnv("BREAKER_INTERVAL", time.Minute),
		BreakerTimeout:          getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),
		BreakerFailureThreshold: uint32(getIntEnv("BREAKER_FAILURE_THRESHOLD", 5)),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", ""),
		SQLitePath:     getEnv("SQLITE_PATH", getDefaultSQLitePath()),

		RedisURL:         getEnv("REDIS_URL", ""),
		BookingsCacheTTL: getDurationEnv("BOOKINGS_CACHE_TTL", 30*time.Second),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxEnabled:    getBoolEnv("OUTBOX_ENABLED", true),
		OutboxMaxRetries: getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetention:  getDurationEnv("OUTBOX_RETENTION", 7*24*time.Hour),
	}

	// Local mode is the default whenever no Block API is configured.
	cfg.LocalMode = getBoolEnv("LOCAL_MODE", cfg.APIURL == "")

	if cfg.DatabaseDriver == "" {
		if cfg.DatabaseURL == "" || isSQLiteURL(cfg.DatabaseURL) {
			cfg.DatabaseDriver = "sqlite"
		} else {
			cfg.DatabaseDriver = "postgres"
		}
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

// IsSQLite returns true if the local store uses SQLite.
func (c *Config) IsSQLite() bool {
	return c.DatabaseDriver == "sqlite"
}

// IsPostgres returns true if the local store uses PostgreSQL.
func (c *Config) IsPostgres() bool {
	return c.DatabaseDriver == "postgres"
}

func isSQLiteURL(url string) bool {
	return strings.HasPrefix(url, "sqlite://") ||
		strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db") ||
		strings.HasSuffix(url, ".sqlite") ||
		strings.HasSuffix(url, ".sqlite3")
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".salonops", "data.db")
	}
	return filepath.Join(home, ".salonops", "data.db")
}
