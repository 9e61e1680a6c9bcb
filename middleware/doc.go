// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("POST /games/{id}/rankings", middleware.WithLogging(handler))

Each request is logged once on completion with method, path, status,
duration_ms and, when the route has one, the game id. 5xx responses are
logged at error level.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST, PUT, DELETE and OPTIONS with the Content-Type,
Authorization and X-Admin-Key headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, results)
	middleware.ErrorResponse(w, http.StatusNotFound, "Game not found")

	var req models.SubmitRankingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Checks X-Forwarded-For, then X-Real-IP, then RemoteAddr. The result is
only ever stored hashed.
*/
package middleware
