// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/rankem/auth"
	"github.com/danielhkuo/rankem/cliparse"
	"github.com/danielhkuo/rankem/db"
	"github.com/danielhkuo/rankem/models"
	"github.com/danielhkuo/rankem/store"
)

// SetupTestDB opens a fresh in-memory SQLite database with the full schema.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn, db.DialectSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore returns a SQLStore over SetupTestDB
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return store.NewSQLStore(SetupTestDB(t), db.DialectSQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: cliparse.DatabaseSQLite,
		AdminKeySalt: "test-admin-salt",
		LockTTL:      5 * time.Second,
	}
}

// CreateTestGame stores a game and returns its ID and admin key.
// mode should be "public", "private" or "restrictive".
func CreateTestGame(t *testing.T, repo store.Repository, cfg cliparse.Config, mode string, items, categories []string) (gameID, adminKey string) {
	t.Helper()

	gameID, err := auth.GenerateGameCode()
	if err != nil {
		t.Fatalf("Failed to generate game code: %v", err)
	}

	err = repo.CreateGame(context.Background(), &models.Game{
		ID:         gameID,
		Title:      "Test Game",
		Items:      items,
		Categories: categories,
		VotingMode: mode,
	})
	if err != nil {
		t.Fatalf("Failed to create test game: %v", err)
	}

	return gameID, auth.GenerateAdminKey(gameID, cfg.AdminKeySalt)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
