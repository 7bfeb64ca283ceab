// Package config handles loading and validating runtime configuration for the Golf Society API.
// Configuration values (like the database URL and the admin password) are read from environment
// variables rather than being hardcoded, so the same binary runs in dev and production with only
// the environment changing.
package config

import (
	"errors"
	"os"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// In development you keep secrets in .env; in production real env vars are used instead.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port          string        // TCP port the HTTP server listens on (e.g. "8080")
	Env           string        // "development" or "production"
	DatabaseURL   string        // Postgres URL, or a SQLite file path / "file:" DSN for local runs
	AdminPassword string        // The single admin credential; required
	SessionSecret string        // HMAC key for admin session tokens; defaults to AdminPassword
	SessionTTL    time.Duration // How long an admin session token stays valid
	DataBranch    string        // Branch of the versioned store holding the society's documents
	RedisURL      string        // Optional; when set the writer lock is shared through Redis
	LogLevel      string        // logrus level name: "debug", "info", "warn", ...
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables and returns a populated Config.
// A missing .env file is fine: in production the deployment platform sets real env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		Env:           getenv("ENV", "development"),
		DatabaseURL:   getenv("DATABASE_URL", "golf-society.db"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DataBranch:    getenv("DATA_BRANCH", "main"),
		RedisURL:      os.Getenv("REDIS_URL"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	// Admin writes are impossible without a password, so refuse to start rather than
	// run a server that rejects every finalize.
	if cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD is required")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.AdminPassword
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "12h"))
	if err != nil {
		return nil, errors.New("SESSION_TTL must be a duration like 12h or 30m")
	}
	cfg.SessionTTL = ttl

	return cfg, nil
}

// getenv returns the value of key, or fallback when it is unset or empty.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
