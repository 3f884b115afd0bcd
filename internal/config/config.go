package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type PricingConfig struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Pricing  PricingConfig
}

// NewConfig loads configuration from the environment, with an optional .env
// file for local development. Missing database settings are hard errors;
// everything else has a default.
func NewConfig() (*Config, error) {
	// Best effort: absence of a .env file is fine in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Port = envOr("APP_PORT", "8080")

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = envOr("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = envOr("DB_MIGRATIONS_PATH", "migrations")

	if cfg.Postgres.MaxConns, err = envInt32("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.Postgres.MinConns, err = envInt32("DB_MIN_CONNS", 2); err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute

	if cfg.Pricing.FreeShippingThreshold, err = envInt64("FREE_SHIPPING_THRESHOLD", 1_000_000); err != nil {
		return nil, err
	}
	if cfg.Pricing.FlatShippingFee, err = envInt64("FLAT_SHIPPING_FEE", 30_000); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

func envInt32(key string, fallback int32) (int32, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return int32(v), nil
}

func envInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return v, nil
}
