// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/rankem/aggregator"
	"github.com/danielhkuo/rankem/middleware"
	"github.com/danielhkuo/rankem/models"
)

const (
	defaultTopLimit = 3
	maxTopLimit     = 100
)

type ResultsHandler struct {
	agg *aggregator.Aggregator
}

func NewResultsHandler(agg *aggregator.Aggregator) *ResultsHandler {
	return &ResultsHandler{agg: agg}
}

// GetResults handles GET /games/{id}/results
// A game without votes returns its categories with empty rankings.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game id is required")
		return
	}

	results, err := h.agg.FetchResults(r.Context(), id)
	if err != nil {
		writeError(w, err, "Game")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// GetTop handles GET /games/{id}/results/{category}/top
func (h *ResultsHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	category := r.PathValue("category")
	if id == "" || category == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game id and category are required")
		return
	}
	limit, ok := parseLimit(r, defaultTopLimit, maxTopLimit)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	ranking, source, err := h.agg.Top(r.Context(), id, category, limit)
	if err != nil {
		writeError(w, err, "Game or category")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TopResponse{
		Category: category,
		Ranking:  ranking,
		Source:   source,
	})
}
