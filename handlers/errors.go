// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/rankem/auth"
	"github.com/danielhkuo/rankem/lock"
	"github.com/danielhkuo/rankem/middleware"
	"github.com/danielhkuo/rankem/models"
)

// writeError maps store and aggregator errors to HTTP responses.
// what names the missing resource in 404 messages.
func writeError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, models.ErrDuplicateVote):
		middleware.ErrorResponse(w, http.StatusConflict, models.ErrDuplicateVote.Error())
	case errors.Is(err, models.ErrValidation):
		msg := strings.TrimSuffix(err.Error(), ": "+models.ErrValidation.Error())
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
	case errors.Is(err, models.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "Leaderboard changed while voting, please try again")
	case errors.Is(err, lock.ErrNotAcquired):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Game is busy, please try again")
	default:
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}

// gameID reads and normalizes the {id} path value
func gameID(r *http.Request) string {
	return auth.NormalizeGameCode(r.PathValue("id"))
}

// parseLimit reads ?limit=, falling back to def and capping at maxN
func parseLimit(r *http.Request, def, maxN int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > maxN {
		n = maxN
	}
	return n, true
}

// requireAdmin checks the X-Admin-Key header and writes 401 on mismatch
func requireAdmin(w http.ResponseWriter, r *http.Request, id, salt string) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(id, adminKey, salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}
