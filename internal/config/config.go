// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full configuration of the server and worker binaries.
type Config struct {
	App         AppConfig
	DB          DBConfig
	Auth        AuthConfig
	Mail        MailConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	Reconcile   ReconcileConfig
	Numerator   NumeratorConfig
	Idempotency IdempotencyConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Env      string
	Port     string
	LogLevel string
}

// IsDevelopment reports whether APP_ENV is development.
func (a AppConfig) IsDevelopment() bool { return a.Env == "development" }

// DBConfig holds PostgreSQL settings.
type DBConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	TxIsolation      string
	StatementTimeout time.Duration
	LockTimeout      time.Duration
}

// AuthConfig holds bearer-token settings. An empty secret disables authentication.
type AuthConfig struct {
	JWTSecret string
}

// Enabled reports whether /api/v1 requires a token.
func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

// MailConfig holds the mail relay used for order notifications.
type MailConfig struct {
	RelayURL string
	Token    string
	From     string
}

// Enabled reports whether a relay is configured.
func (m MailConfig) Enabled() bool { return m.RelayURL != "" }

// RedisConfig holds the event relay target.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// OutboxConfig tunes the worker's relay loop.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// ReconcileConfig schedules the nightly sweep.
type ReconcileConfig struct {
	Schedule string
}

// NumeratorConfig selects the order code strategy.
type NumeratorConfig struct {
	Strategy  string
	RangeSize int64
}

// IdempotencyConfig controls Idempotency-Key handling on POST endpoints.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// Load reads environment variables, optionally preloading envFile.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnv("APP_PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			URL:              os.Getenv("DATABASE_URL"),
			MaxConns:         int32(getEnvInt("DB_MAX_CONNS", 25)),
			MinConns:         int32(getEnvInt("DB_MIN_CONNS", 5)),
			TxIsolation:      strings.ToLower(getEnv("DB_TX_ISOLATION", "read_committed")),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
			LockTimeout:      getEnvDuration("DB_LOCK_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Mail: MailConfig{
			RelayURL: os.Getenv("MAIL_RELAY_URL"),
			Token:    os.Getenv("MAIL_RELAY_TOKEN"),
			From:     getEnv("MAIL_FROM", "orders@shopledger.local"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("EVENTS_CHANNEL", "shopledger.events"),
		},
		Outbox: OutboxConfig{
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 100),
			Retention:    getEnvDuration("OUTBOX_RETENTION", 7*24*time.Hour),
		},
		Reconcile: ReconcileConfig{
			Schedule: getEnv("RECONCILE_SCHEDULE", "0 3 * * *"),
		},
		Numerator: NumeratorConfig{
			Strategy:  strings.ToLower(getEnv("NUMERATOR_STRATEGY", "strict")),
			RangeSize: int64(getEnvInt("NUMERATOR_RANGE_SIZE", 50)),
		},
		Idempotency: IdempotencyConfig{
			Enabled: getEnv("IDEMPOTENCY_ENABLED", "true") == "true",
			TTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.DB.URL == "":
		return errors.New("DATABASE_URL must be provided")
	case c.DB.MaxConns < 1:
		return errors.New("DB_MAX_CONNS must be positive")
	case c.DB.MinConns > c.DB.MaxConns:
		return errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}

	switch c.DB.TxIsolation {
	case "read_committed", "repeatable_read", "serializable":
	default:
		return fmt.Errorf("DB_TX_ISOLATION %q is not supported", c.DB.TxIsolation)
	}

	switch c.Numerator.Strategy {
	case "strict", "cached":
	default:
		return fmt.Errorf("NUMERATOR_STRATEGY %q is not supported", c.Numerator.Strategy)
	}

	if c.Outbox.BatchSize < 1 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
