// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import "testing"

func TestMigrate_SQLite(t *testing.T) {
	conn, err := Open(DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	if err := Migrate(conn, DialectSQLite); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Second run is a no-op
	if err := Migrate(conn, DialectSQLite); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	for _, table := range []string{"game", "game_item", "game_category", "participant", "leaderboard", "leaderboard_entry"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_UnknownDialect(t *testing.T) {
	if _, err := Open("mongo", "x"); err == nil {
		t.Error("expected error for unknown dialect")
	}
	if err := Migrate(nil, DialectSQLite); err == nil {
		t.Error("expected error for nil connection")
	}
}
