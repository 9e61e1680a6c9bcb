// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/rankem/aggregator"
	"github.com/danielhkuo/rankem/auth"
	"github.com/danielhkuo/rankem/cliparse"
	"github.com/danielhkuo/rankem/middleware"
	"github.com/danielhkuo/rankem/mirror"
	"github.com/danielhkuo/rankem/models"
	"github.com/danielhkuo/rankem/store"
)

const (
	maxCodeAttempts = 5
	maxMyGames      = 50
)

type GameHandler struct {
	repo   store.Repository
	agg    *aggregator.Aggregator
	mirror mirror.Publisher
	cfg    cliparse.Config
}

func NewGameHandler(repo store.Repository, agg *aggregator.Aggregator, pub mirror.Publisher, cfg cliparse.Config) *GameHandler {
	if pub == nil {
		pub = mirror.Nop{}
	}
	return &GameHandler{repo: repo, agg: agg, mirror: pub, cfg: cfg}
}

// CreateGame handles POST /games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGameRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	req.Title = strings.TrimSpace(req.Title)
	req.Items = trimNames(req.Items)
	req.Categories = trimNames(req.Categories)
	if msg := validateRequest(req, createGameMessages); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	mode := req.VotingMode
	if mode == "" {
		mode = models.ModePublic
	}

	game := &models.Game{
		Title:      req.Title,
		Items:      req.Items,
		Categories: req.Categories,
		VotingMode: mode,
	}

	// Codes are short, so collisions are retried
	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		game.ID, err = auth.GenerateGameCode()
		if err != nil {
			break
		}
		err = h.repo.CreateGame(r.Context(), game)
		if !errors.Is(err, models.ErrConflict) {
			break
		}
		slog.Warn("game code collision", "game_id", game.ID)
	}
	if errors.Is(err, models.ErrValidation) {
		writeError(w, err, "Game")
		return
	}
	if err != nil {
		slog.Error("failed to create game", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create game")
		return
	}

	slog.Info("game created", "game_id", game.ID, "items", len(req.Items), "categories", len(req.Categories))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateGameResponse{
		GameID:   game.ID,
		AdminKey: auth.GenerateAdminKey(game.ID, h.cfg.AdminKeySalt),
	})
}

// GetGame handles GET /games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game id is required")
		return
	}

	game, err := h.repo.FindGameByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "Game")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, game)
}

// ListPopular handles GET /games/popular
func (h *GameHandler) ListPopular(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, store.DefaultPopularLimit, store.MaxSearchResults)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	games, err := h.repo.ListPopularGames(r.Context(), limit)
	if err != nil {
		writeError(w, err, "Game")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GameListResponse{Games: summarize(games)})
}

// SearchGames handles GET /games/search?q=
func (h *GameHandler) SearchGames(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, ok := parseLimit(r, store.MaxSearchResults, store.MaxSearchResults)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	games, err := h.repo.SearchGames(r.Context(), term, limit)
	if err != nil {
		writeError(w, err, "Game")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GameListResponse{Games: summarize(games)})
}

// GetMyGames handles GET /my-games?ids=A,B
// The client keeps the ids of games it created or voted in; unknown ids are
// skipped.
func (h *GameHandler) GetMyGames(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		middleware.JSONResponse(w, http.StatusOK, models.MyGamesResponse{Games: []models.MyGame{}})
		return
	}

	seen := map[string]bool{}
	games := []models.MyGame{}
	for _, part := range strings.Split(raw, ",") {
		id := auth.NormalizeGameCode(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if len(seen) > maxMyGames {
			break
		}

		game, err := h.repo.FindGameByID(r.Context(), id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			writeError(w, err, "Game")
			return
		}

		results, err := h.agg.FetchResults(r.Context(), id)
		if errors.Is(err, models.ErrNotFound) {
			continue // deleted in between
		}
		if err != nil {
			writeError(w, err, "Game")
			return
		}

		games = append(games, models.MyGame{Game: summary(*game), Results: results})
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyGamesResponse{Games: games})
}

// UpdateTitle handles PUT /games/{id}/title
func (h *GameHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game id is required")
		return
	}
	if !requireAdmin(w, r, id, h.cfg.AdminKeySalt) {
		return
	}

	var req models.UpdateTitleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if msg := validateRequest(req, updateTitleMessages); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.repo.UpdateGameTitle(r.Context(), id, req.Title); err != nil {
		writeError(w, err, "Game")
		return
	}

	slog.Info("game title updated", "game_id", id)

	game, err := h.repo.FindGameByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "Game")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game id is required")
		return
	}
	if !requireAdmin(w, r, id, h.cfg.AdminKeySalt) {
		return
	}

	game, err := h.repo.FindGameByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "Game")
		return
	}
	if err := h.repo.DeleteGame(r.Context(), id); err != nil {
		writeError(w, err, "Game")
		return
	}

	// Non-fatal: the store is the source of truth
	if err := h.mirror.Remove(r.Context(), id, game.Categories); err != nil {
		slog.Warn("failed to remove mirrored leaderboards", "game_id", id, "error", err)
	}

	slog.Info("game deleted", "game_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// trimNames trims surrounding whitespace from every name
func trimNames(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}

func summary(g models.Game) models.GameSummary {
	return models.GameSummary{
		ID:         g.ID,
		Title:      g.Title,
		Categories: g.Categories,
		Items:      g.Items,
		VotingMode: g.VotingMode,
		VotesCount: g.VotesCount,
		CreatedAt:  g.CreatedAt,
		CreatedAgo: humanize.Time(g.CreatedAt),
	}
}

func summarize(games []models.Game) []models.GameSummary {
	out := make([]models.GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, summary(g))
	}
	return out
}
