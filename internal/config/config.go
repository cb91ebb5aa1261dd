package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the server settings, read from the environment.
type Config struct {
	// HTTP Server
	Port         string `env:"PORT" envDefault:"8080"`
	StaticDir    string `env:"STATIC_DIR" envDefault:"web/static"`
	SecureCookie bool   `env:"SECURE_COOKIE" envDefault:"false"`

	// Database
	DBPath string `env:"DB_PATH" envDefault:"expenses.db"`

	// Sessions
	SessionTTL             time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// Password hashing
	BcryptCost      int `env:"BCRYPT_COST" envDefault:"10"`
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Seed account, created when the users table is empty
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@localhost"`
	AdminUser     string `env:"ADMIN_USER"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "port cannot be empty")
	}
	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session cleanup interval %v: must be at least 1 second", c.SessionCleanupInterval))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.HashConcurrency < 0 {
		errors = append(errors, fmt.Sprintf("invalid hash concurrency %d: must not be negative", c.HashConcurrency))
	}
	if _, err := c.SlogLevel(); err != nil {
		errors = append(errors, err.Error())
	}
	if (c.AdminUser == "") != (c.AdminPassword == "") {
		errors = append(errors, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
