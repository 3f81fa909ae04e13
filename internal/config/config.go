package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	StoreBackend  string
	DatabaseURL   string
	MigrationsDir string

	// Redis (optional; queue and pub/sub run in-process without it)
	RedisURL string

	// ID tokens
	JWTSecret string

	// Frontend
	FrontendURL string

	LogLevel string
	Timezone string

	// Learning events and sessions
	WorkerCount          int
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
}

// Load reads the configuration from the environment, after loading a .env
// file if one exists.
func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage is Load for tools that only touch the document store; it
// skips the checks that concern the HTTP service.
func LoadStorage() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	godotenv.Load()

	return &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		StoreBackend:         getEnvOrDefault("STORE_BACKEND", StorePostgres),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		Timezone:             getEnvOrDefault("TIMEZONE", "UTC"),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 4),
		SessionIdleTimeout:   time.Duration(getEnvAsIntOrDefault("SESSION_IDLE_TIMEOUT_MINUTES", 30)) * time.Minute,
		SessionSweepInterval: time.Duration(getEnvAsIntOrDefault("SESSION_SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
	}
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("required environment variable JWT_SECRET is not set")
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.SessionIdleTimeout <= 0 || c.SessionSweepInterval <= 0 {
		return fmt.Errorf("session idle timeout and sweep interval must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("required environment variable DATABASE_URL is not set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreBackend)
	}
	return nil
}

// Location returns the zone learning analytics are bucketed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
