// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db stores polls, users and restaurants in SQLite or PostgreSQL.

# Opening

Open connects, pings and creates the schema:

	conn, err := db.Open(ctx, db.DialectSQLite, "file:decide.db")
	store := db.NewStore(conn, db.DialectSQLite)

Safe to call on an existing database - uses IF NOT EXISTS for all tables
and indexes. SQLite is limited to one open connection.

# Tables

  - users: id, name
  - restaurants: id, name, address
  - polls: members, options and opinions as JSON text, start_time in
    Unix milliseconds, version for compare-and-set

# Queries

Statements are written with ? placeholders and rebound to $N for
PostgreSQL. ReplacePoll only writes when the stored version matches and
reports models.ErrConflict otherwise.
*/
package db
