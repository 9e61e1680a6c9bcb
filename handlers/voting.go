// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"unicode/utf8"

	"github.com/danielhkuo/rankem/aggregator"
	"github.com/danielhkuo/rankem/auth"
	"github.com/danielhkuo/rankem/cliparse"
	"github.com/danielhkuo/rankem/middleware"
	"github.com/danielhkuo/rankem/models"
)

// maxUserAgentLength caps what is stored per participant
const maxUserAgentLength = 500

type VotingHandler struct {
	agg *aggregator.Aggregator
	cfg cliparse.Config
}

func NewVotingHandler(agg *aggregator.Aggregator, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{agg: agg, cfg: cfg}
}

// SubmitRankings handles POST /games/{id}/rankings
// New ballots return 201, edits return 200.
func (h *VotingHandler) SubmitRankings(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game id is required")
		return
	}

	// Parse request
	var req models.SubmitRankingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Rankings) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "rankings cannot be empty")
		return
	}

	// Capture privacy-preserving metadata
	userAgent := truncateUserAgent(r.Header.Get("User-Agent"))

	resp, err := h.agg.Submit(r.Context(), aggregator.SubmitRequest{
		GameID:        id,
		ParticipantID: req.Identity,
		Rankings:      req.Rankings,
		IsEdit:        req.IsEditing,
		Previous:      req.PreviousRankings,
		IPHash:        auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt),
		UserAgent:     userAgent,
	})
	if err != nil {
		writeError(w, err, "Game")
		return
	}

	status := http.StatusCreated
	if req.IsEditing {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, resp)
}

// truncateUserAgent cuts s to at most maxUserAgentLength bytes without
// splitting a UTF-8 sequence.
func truncateUserAgent(s string) string {
	if len(s) <= maxUserAgentLength {
		return s
	}
	n := maxUserAgentLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
