// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists games, participants and category leaderboards.

Two implementations share the Repository interface: SQLStore over
database/sql (PostgreSQL or SQLite) and MemoryStore for tests and local runs.

All vote-path writes happen inside RunInTx, which scopes a transaction to one
game. On PostgreSQL the game row is locked for the duration of the
transaction; SQLite serializes through its single connection. Every
leaderboard also carries a version that ReplaceLeaderboard compares before
writing.

Errors wrap the sentinels in package models (ErrNotFound, ErrConflict,
ErrDuplicateVote) and are matched with errors.Is.
*/
package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/rankem/models"
)

// Repository is the non-transactional view of the store plus the entry
// point for per-game transactions.
type Repository interface {
	CreateGame(ctx context.Context, game *models.Game) error
	FindGameByID(ctx context.Context, id string) (*models.Game, error)
	UpdateGameTitle(ctx context.Context, id, title string) error
	DeleteGame(ctx context.Context, id string) error

	// FindLeaderboards returns every leaderboard of the game, in no
	// particular order. A game without votes has none.
	FindLeaderboards(ctx context.Context, gameID string) ([]models.CategoryLeaderboard, error)

	ListPopularGames(ctx context.Context, limit int) ([]models.Game, error)
	SearchGames(ctx context.Context, term string, limit int) ([]models.Game, error)

	// RunInTx runs fn in a transaction bound to gameID. Nothing fn wrote is
	// kept unless fn returns nil.
	RunInTx(ctx context.Context, gameID string, fn func(tx Tx) error) error
}

// Tx is the set of operations the vote aggregator performs under the
// per-game transaction.
type Tx interface {
	FindGameByID(ctx context.Context, id string) (*models.Game, error)

	// FindLeaderboard returns nil, nil when the leaderboard does not exist.
	FindLeaderboard(ctx context.Context, gameID, category string) (*models.CategoryLeaderboard, error)

	// CreateLeaderboard fails with models.ErrConflict if it already exists.
	CreateLeaderboard(ctx context.Context, gameID, category string, entries []models.LeaderboardEntry) (*models.CategoryLeaderboard, error)

	// ReplaceLeaderboard overwrites all entries and bumps the version. It
	// fails with models.ErrConflict when the stored version is not
	// expectedVersion.
	ReplaceLeaderboard(ctx context.Context, gameID, category string, expectedVersion int, entries []models.LeaderboardEntry) error

	AddParticipant(ctx context.Context, gameID string, p models.Participant) error
	IncrementVoteCount(ctx context.Context, gameID string) error
}

// Default and maximum list sizes
const (
	DefaultPopularLimit = 5
	MaxSearchResults    = 50
)

// checkGame rejects games whose items or categories are empty, blank or
// repeated. Leaderboards are keyed by these names, so a repeated category
// would receive the same ballot twice.
func checkGame(game *models.Game) error {
	if err := checkNames(game.Items, "item"); err != nil {
		return err
	}
	return checkNames(game.Categories, "category")
}

func checkNames(names []string, kind string) error {
	if len(names) == 0 {
		return fmt.Errorf("game needs at least one %s: %w", kind, models.ErrValidation)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("blank %s name: %w", kind, models.ErrValidation)
		}
		if seen[n] {
			return fmt.Errorf("duplicate %s %q: %w", kind, n, models.ErrValidation)
		}
		seen[n] = true
	}
	return nil
}
