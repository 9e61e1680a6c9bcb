// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mirror copies committed leaderboards into Redis (a position-scored sorted set plus an entry hash) so the
// top of a category can be served without touching the database. The store
// stays the source of truth; a stale or missing mirror only costs a fallback
// read.
package mirror
