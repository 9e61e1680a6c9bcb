// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateGameRequest: title, items, categories, voting_mode
  - UpdateTitleRequest: title
  - SubmitRankingsRequest: rankings, identity, is_editing, previous_rankings

Rankings maps a category name to item names, best first.

# Response Types

  - CreateGameResponse: game_id, admin_key
  - SubmitRankingsResponse: status, message, participant_id
  - GameListResponse, MyGamesResponse: game summaries
  - TopResponse: category, ranking, source
  - ErrorResponse: error, message

# Domain Types

  - Game: items, categories, voting mode, participants, vote count
  - Participant: voter identity with hashed metadata
  - CategoryLeaderboard: versioned, sorted entries of one category
  - LeaderboardEntry: item, points, increase/decrease flags
  - Results, CategoryResults, RankingEntry: read-side projection

# Errors

Stores and the aggregator return the sentinel errors ErrNotFound,
ErrConflict, ErrValidation and ErrDuplicateVote, wrapped with context.
Check them with errors.Is.

# Constants

Voting modes:

	ModePublic      = "public"
	ModePrivate     = "private"
	ModeRestrictive = "restrictive"

Private games are hidden from discovery. Restrictive games only accept
participants whose identity is one of the items.
*/
package models
