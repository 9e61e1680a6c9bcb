// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides game codes, admin keys and participant identifiers.

# Game Codes

Game ids are six characters alternating digit and letter:

	code, err := auth.GenerateGameCode() // e.g. "4K7Q2Z"
	id := auth.NormalizeGameCode(" 4k7q2z ")

Codes are short, so callers retry on collision.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(gameID, salt)
	err := auth.ValidateAdminKey(gameID, adminKey, salt)

No key is stored; validation recomputes it.

# Anonymous Participants

	id := auth.AnonymousParticipant() // "Anonymous_<uuid>"

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
