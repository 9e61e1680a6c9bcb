// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package aggregator folds ballots into category leaderboards.

A submission moves through validation, loading, computing and persisting.
Steps after validation run while holding the game's lock and inside one
store transaction, so concurrent ballots for the same game never overwrite
each other and a failed ballot leaves no partial writes. A leaderboard that
changed underneath a submission (models.ErrConflict) causes one retry of the
whole submission.

Edits subtract the ballot the client says it cast before and add the new
one. When the client omits the previous ordering of a category, nothing is
subtracted for that category and the edit adds to it like a new ballot.

Committed leaderboards are published to a mirror.Publisher afterwards;
publish failures are logged and do not fail the ballot.
*/
package aggregator
