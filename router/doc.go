// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the rankem API.

	mux := router.NewRouter(repo, agg, pub, cfg)

# Endpoints

	GET    /health
	GET    /

	POST   /games
	GET    /games/popular
	GET    /games/search?q=
	GET    /games/{id}
	GET    /my-games?ids=

	PUT    /games/{id}/title     (X-Admin-Key)
	DELETE /games/{id}           (X-Admin-Key)

	POST   /games/{id}/rankings

	GET    /games/{id}/results
	GET    /games/{id}/results/{category}/top?limit=

Every API route is wrapped in middleware.WithLogging.
*/
package router
