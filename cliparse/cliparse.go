// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMongo    = "mongo"
)

type Config struct {
	Port          int           `env:"PORT" envDefault:"3318"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	DatabaseType  string        `env:"DATABASE_TYPE" envDefault:"sqlite"`
	MongoDatabase string        `env:"MONGO_DATABASE" envDefault:"quickly_decide"`
	AdminKeySalt  string        `env:"ADMIN_KEY_SALT"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"text"`
	TickInterval  time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
}

// ParseFlags reads the environment, then lets CLI flags override it.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	fs := flag.NewFlagSet("quickly-decide", flag.ContinueOnError)

	// Network / storage config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or mongo)")
	fs.StringVar(&cfg.MongoDatabase, "mongo-db", cfg.MongoDatabase, "Mongo database name")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", cfg.AdminKeySalt, "Admin key salt (prefer env)")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text or json)")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Poll countdown resolution; limits stay in wall-clock minutes")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = strings.ToLower(strings.TrimSpace(cfg.DatabaseType))
	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres, DatabaseMongo:
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}
	if cfg.DatabaseType == DatabaseMongo && cfg.MongoDatabase == "" {
		return Config{}, errors.New("MONGO_DATABASE required for mongo")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("tick interval must be positive, got %s", cfg.TickInterval)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("unsupported LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}
