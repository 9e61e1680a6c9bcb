// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/rankem/aggregator"
	"github.com/danielhkuo/rankem/cliparse"
	"github.com/danielhkuo/rankem/handlers"
	"github.com/danielhkuo/rankem/middleware"
	"github.com/danielhkuo/rankem/mirror"
	"github.com/danielhkuo/rankem/store"
)

func NewRouter(repo store.Repository, agg *aggregator.Aggregator, pub mirror.Publisher, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	gameHandler := handlers.NewGameHandler(repo, agg, pub, cfg)
	votingHandler := handlers.NewVotingHandler(agg, cfg)
	resultsHandler := handlers.NewResultsHandler(agg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Game discovery and creation
	mux.HandleFunc("POST /games", middleware.WithLogging(gameHandler.CreateGame))
	mux.HandleFunc("GET /games/popular", middleware.WithLogging(gameHandler.ListPopular))
	mux.HandleFunc("GET /games/search", middleware.WithLogging(gameHandler.SearchGames))
	mux.HandleFunc("GET /games/{id}", middleware.WithLogging(gameHandler.GetGame))
	mux.HandleFunc("GET /my-games", middleware.WithLogging(gameHandler.GetMyGames))

	// Admin operations (X-Admin-Key)
	mux.HandleFunc("PUT /games/{id}/title", middleware.WithLogging(gameHandler.UpdateTitle))
	mux.HandleFunc("DELETE /games/{id}", middleware.WithLogging(gameHandler.DeleteGame))

	// Voting
	mux.HandleFunc("POST /games/{id}/rankings", middleware.WithLogging(votingHandler.SubmitRankings))

	// Results
	mux.HandleFunc("GET /games/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /games/{id}/results/{category}/top", middleware.WithLogging(resultsHandler.GetTop))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rankem API v1"))
	})

	return mux
}
