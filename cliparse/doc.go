// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Environment variables are read first (github.com/caarlos0/env), then CLI
flags override them. main loads a .env file before calling ParseFlags.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path / DSN, Postgres URL or Mongo URI (required)
  - DatabaseType: sqlite, postgres or mongo (default: sqlite)
  - MongoDatabase: Mongo database name (default: quickly_decide)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - LogLevel: debug, info, warn or error (default: info)
  - LogFormat: text or json (default: text)
  - TickInterval: Poll countdown resolution; a poll still ends limit_time minutes after it starts (default: 1s)

# Environment Variables

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	MONGO_DATABASE → --mongo-db
	ADMIN_KEY_SALT → --admin-salt
	LOG_LEVEL      → --log-level
	LOG_FORMAT     → --log-format
	TICK_INTERVAL  → --tick

# Validation

ParseFlags returns an error if:

  - DATABASE_URL or ADMIN_KEY_SALT is missing
  - DATABASE_TYPE or LOG_FORMAT is not a supported value
  - the port is out of range or the tick interval is not positive
*/
package cliparse
