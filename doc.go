// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the rankem API server.

rankem runs ranking games: participants order a fixed set of items in one
or more categories, and every ballot is folded into a per-category
leaderboard using positional points (first of N earns N, last earns 1).
Leaderboards remember their previous order so clients can show which items
moved up or down after each vote.

# Starting the Server

	ADMIN_KEY_SALT=... DATABASE_URL=file:rankem.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --admin-salt ...

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:

  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - DATABASE_URL (-d): Connection string, unless DATABASE_TYPE is memory

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - REDIS_ADDR (--redis): Enables the cross-process vote lock and the
    leaderboard mirror used by top-N reads
  - LOCK_TTL_MS (--lock-ttl): Vote lock expiry (default: 5000)

# Architecture

  - ranking: Positional scoring, stable ordering and movement flags
  - aggregator: Ballot validation, leaderboard recomputation, retries
  - store: Repository over SQL (sqlite, postgres) or memory
  - lock: Per-game mutual exclusion, local or Redis
  - mirror: Redis sorted-set copy of each leaderboard
  - handlers, router, middleware: HTTP surface
  - models: Request/response and domain types
  - auth: Game codes, admin keys, participant ids
  - db: Connections and embedded migrations
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
