// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Decide API server.

Quickly Decide lets a group pick where to eat: a poll lists members and
restaurant options, members give opinions, and the poll ends when its
admin decides, abandons it, or its time limit runs out.

# Starting the Server

Configuration comes from the environment (a .env file is loaded if
present) or CLI flags:

	DATABASE_URL=file:decide.db ADMIN_KEY_SALT=... go run .

	go run . -t postgres -d "postgres://..." -admin-salt ...

# Configuration

  - DATABASE_URL (-d): connection string (required)
  - DATABASE_TYPE (-t): sqlite, postgres or mongo (default: sqlite)
  - MONGO_DATABASE (-mongo-db): database name for mongo
  - ADMIN_KEY_SALT (-admin-salt): secret for admin key HMAC (required)
  - PORT (-p): server port (default: 3318)
  - TICK_INTERVAL (-tick): countdown resolution (default: 1s)
  - LOG_LEVEL, LOG_FORMAT: slog level and text/json output

# Architecture

  - lifecycle: poll state machine over a Store and Directory
  - timer: countdown state machine run as a goroutine
  - expiry: one countdown per time-limited poll, abandoning on expiry
  - db, mongostore, memstore: Store implementations
  - handlers, router, middleware: HTTP surface
  - auth: admin key generation and validation
  - cliparse: configuration parsing
*/
package main
