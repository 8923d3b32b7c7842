// Package config loads server configuration from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	Port      int    // HTTP listen port
	DBPath    string // SQLite database path; ":memory:" for in-memory
	LogLevel  string // zerolog level name
	LogPretty bool   // console-formatted logs for development
}

// Load reads configuration from the environment with sensible defaults.
// Missing values are not errors; everything has a default.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      8080,
		DBPath:    "finwise.db",
		LogLevel:  "info",
		LogPretty: false,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		cfg.Port = port
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		cfg.LogPretty = v == "1" || v == "true"
	}
	return cfg, nil
}
