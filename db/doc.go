// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens database connections and applies the schema.

# Connections

Open returns a *sql.DB for either dialect:

	conn, err := db.Open(db.DialectSQLite, "file:rankem.db")
	conn, err := db.Open(db.DialectPostgres, "postgres://...")

SQLite connections are capped at one open connection.

# Migrations

Migrate applies the SQL files embedded from migrations/ with golang-migrate:

	if err := db.Migrate(conn, db.DialectPostgres); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - already applied versions are skipped.

# Tables

  - game: game metadata, voting mode, vote count
  - game_item: items to rank, ordered by position
  - game_category: categories, ordered by position
  - participant: one row per participant who voted
  - leaderboard: one row per (game, category) with a version counter
  - leaderboard_entry: item totals and movement flags, ordered by position

# Relationships

	game 1──* game_item
	game 1──* game_category
	game 1──* participant
	game 1──* leaderboard
	leaderboard 1──* leaderboard_entry

All foreign keys use ON DELETE CASCADE.
*/
package db
