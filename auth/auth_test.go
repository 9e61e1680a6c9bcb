// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"

	"github.com/danielhkuo/rankem/models"
)

func TestGenerateGameCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateGameCode()
		if err != nil {
			t.Fatalf("GenerateGameCode() error = %v", err)
		}
		if len(code) != GameCodeLength {
			t.Fatalf("GenerateGameCode() length = %d, want %d", len(code), GameCodeLength)
		}

		// digit, letter, digit, letter, ...
		for j, c := range code {
			if j%2 == 0 && !(c >= '0' && c <= '9') {
				t.Errorf("GenerateGameCode() = %q: position %d should be a digit", code, j)
			}
			if j%2 == 1 && !(c >= 'A' && c <= 'Z') {
				t.Errorf("GenerateGameCode() = %q: position %d should be a letter", code, j)
			}
		}
		seen[code] = true
	}

	// 26^3 * 10^3 possibilities; 200 draws should be almost all distinct
	if len(seen) < 190 {
		t.Errorf("GenerateGameCode() produced too many duplicates: %d unique of 200", len(seen))
	}
}

func TestNormalizeGameCode(t *testing.T) {
	if got := NormalizeGameCode("  4k7q2z "); got != "4K7Q2Z" {
		t.Errorf("NormalizeGameCode() = %q, want 4K7Q2Z", got)
	}
}

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name   string
		gameID string
		salt   string
	}{
		{"standard", "1A2B3C", "secret-salt"},
		{"empty game id", "", "salt"},
		{"empty salt", "9Z8Y7X", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.gameID, tt.salt)

			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			if key != GenerateAdminKey(tt.gameID, tt.salt) {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			if tt.gameID != "" && tt.salt != "" {
				if key == GenerateAdminKey(tt.gameID+"x", tt.salt) {
					t.Error("GenerateAdminKey() produced same key for different game IDs")
				}
			}

			// Should be URL-safe (no padding)
			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	gameID := "1A2B3C"
	salt := "test-salt"
	validKey := GenerateAdminKey(gameID, salt)

	tests := []struct {
		name     string
		gameID   string
		adminKey string
		salt     string
		wantErr  bool
	}{
		{"valid key", gameID, validKey, salt, false},
		{"wrong key", gameID, "wrong-key", salt, true},
		{"wrong game id", "4D5E6F", validKey, salt, true},
		{"wrong salt", gameID, validKey, "different-salt", true},
		{"empty key", gameID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.gameID, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestAnonymousParticipant(t *testing.T) {
	a := AnonymousParticipant()
	b := AnonymousParticipant()

	if !strings.HasPrefix(a, models.AnonymousPrefix) {
		t.Errorf("AnonymousParticipant() = %q, want prefix %q", a, models.AnonymousPrefix)
	}
	if a == b {
		t.Error("AnonymousParticipant() returned the same identifier twice")
	}
}

func TestHashIP(t *testing.T) {
	hash := HashIP("192.168.1.1", "ip-salt")

	if len(hash) != 16 {
		t.Errorf("HashIP() length = %d, want 16", len(hash))
	}
	if hash != HashIP("192.168.1.1", "ip-salt") {
		t.Error("HashIP() is not deterministic")
	}
	if hash == HashIP("192.168.1.2", "ip-salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if hash == HashIP("192.168.1.1", "other-salt") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

func BenchmarkGenerateGameCode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateGameCode()
	}
}

func BenchmarkGenerateAdminKey(b *testing.B) {
	gameID := "1A2B3C"
	salt := "test-salt"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateAdminKey(gameID, salt)
	}
}
