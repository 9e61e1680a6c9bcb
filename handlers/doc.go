// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the rankem API.

# Handler Types

  - GameHandler: game creation, lookup, discovery and admin operations
  - VotingHandler: ranking submission and edits
  - ResultsHandler: aggregated leaderboards and top-N reads

Handlers take a store.Repository and/or an *aggregator.Aggregator:

	agg := aggregator.New(repo, locker, pub)
	gameHandler := handlers.NewGameHandler(repo, agg, pub, cfg)

# Games

	POST   /games               → CreateGame (returns game_id and admin_key)
	GET    /games/{id}          → GetGame
	GET    /games/popular       → ListPopular
	GET    /games/search?q=     → SearchGames
	GET    /my-games?ids=A,B    → GetMyGames
	PUT    /games/{id}/title    → UpdateTitle
	DELETE /games/{id}          → DeleteGame

Title updates and deletion require the X-Admin-Key header. Game ids are
case-insensitive.

# Voting

	POST /games/{id}/rankings → SubmitRankings

A first ballot answers 201, an edit (is_editing with previous_rankings)
answers 200. A repeated identity answers 409.

# Results

	GET /games/{id}/results                 → GetResults
	GET /games/{id}/results/{category}/top  → GetTop

# Errors

writeError maps store and aggregator errors: not found 404, validation 400,
duplicate vote and version conflict 409, lock timeout 503, anything else 500.
*/
package handlers
