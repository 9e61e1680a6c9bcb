// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	if err := cliparse.LoadDotEnv(".env"); err != nil {
		// unreadable .env
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p           Server port
	-d           Database URL
	-t           Database type: sqlite, postgres or memory
	--redis      Redis address
	--lock-ttl   Vote lock TTL in milliseconds
	--admin-salt Admin key salt

# Environment Variables

	PORT           → -p           (default 3318)
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t           (default sqlite)
	REDIS_ADDR     → --redis
	LOCK_TTL_MS    → --lock-ttl   (default 5000)
	ADMIN_KEY_SALT → --admin-salt

CLI flags take precedence over environment variables, which take
precedence over .env.

# Validation

ParseFlags returns an error when ADMIN_KEY_SALT is missing, when the
database type is unknown, or when DATABASE_URL is missing for a non-memory
store.
*/
package cliparse
