// Package config loads TaskMate settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHTTPPort = "8099"
	DefaultMCPAddr  = "0.0.0.0:8082"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Storage
	StorageDriver string
	SQLitePath    string
	FilePath      string
	DatabaseURL   string
	RedisURL      string
	RedisKey      string

	// RabbitMQ; empty disables broker publishing.
	RabbitMQURL string

	// Home Assistant mirror
	HASSEnabled bool
	HASSURL     string
	HASSToken   string
	HASSTimeout time.Duration

	// HTTP API
	HTTPAddr string

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// ShutdownTimeout bounds how long pending writes may take on exit.
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver: strings.ToLower(getEnv("TASKMATE_STORAGE_DRIVER", "")),
		SQLitePath:    getEnv("TASKMATE_SQLITE_PATH", ""),
		FilePath:      getEnv("TASKMATE_FILE_PATH", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisKey:      getEnv("TASKMATE_REDIS_KEY", "taskmate:tasks"),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		HASSURL:     getEnv("HASS_URL", "http://supervisor/core"),
		HASSToken:   getEnv("SUPERVISOR_TOKEN", ""),
		HASSTimeout: getDurationEnv("HASS_TIMEOUT", 10*time.Second),

		HTTPAddr: getEnv("HTTP_ADDR", ":"+getEnv("PORT", DefaultHTTPPort)),

		MCPAddr:      getEnv("MCP_ADDR", DefaultMCPAddr),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	// The mirror defaults on when running as an add-on with a supervisor token.
	cfg.HASSEnabled = getBoolEnv("HASS_ENABLED", cfg.HASSToken != "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "", "auto", "sqlite", "file", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("TASKMATE_STORAGE_DRIVER=postgres requires DATABASE_URL")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("TASKMATE_STORAGE_DRIVER=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown TASKMATE_STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
