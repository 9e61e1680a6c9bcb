// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/rankem/models"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

const (
	codeDigits  = "0123456789"
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// GameCodeLength is the length of a game code: three digit-letter pairs
	GameCodeLength = 6
)

// GenerateGameCode creates a short, human-typable game code such as "4K7Q2Z".
// Codes alternate digit and letter so they are easy to read out loud.
func GenerateGameCode() (string, error) {
	var sb strings.Builder
	sb.Grow(GameCodeLength)
	for i := 0; i < GameCodeLength/2; i++ {
		d, err := randomIndex(len(codeDigits))
		if err != nil {
			return "", fmt.Errorf("failed to generate game code: %w", err)
		}
		l, err := randomIndex(len(codeLetters))
		if err != nil {
			return "", fmt.Errorf("failed to generate game code: %w", err)
		}
		sb.WriteByte(codeDigits[d])
		sb.WriteByte(codeLetters[l])
	}
	return sb.String(), nil
}

// NormalizeGameCode upper-cases and trims a code typed by a user
func NormalizeGameCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GenerateAdminKey creates an HMAC-based admin key for a game
// This is deterministic and verifiable
func GenerateAdminKey(gameID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(gameID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the game
func ValidateAdminKey(gameID, adminKey, salt string) error {
	expected := GenerateAdminKey(gameID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// AnonymousParticipant returns a participant identifier for a voter who gave
// no name. Every call returns a fresh identifier, so anonymous ballots never
// trip the duplicate-vote check.
func AnonymousParticipant() string {
	return models.AnonymousPrefix + uuid.NewString()
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
