// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zeromicro/go-zero/core/syncx"

	"github.com/danielhkuo/rankem/auth"
	"github.com/danielhkuo/rankem/lock"
	"github.com/danielhkuo/rankem/mirror"
	"github.com/danielhkuo/rankem/models"
	"github.com/danielhkuo/rankem/ranking"
	"github.com/danielhkuo/rankem/store"
)

// maxAttempts bounds how often a submission runs when a leaderboard changed
// underneath it
const maxAttempts = 2

// SubmitRequest is one ballot as received from a client
type SubmitRequest struct {
	GameID        string
	ParticipantID string
	Rankings      models.Rankings
	IsEdit        bool
	// Previous is the ballot being replaced, as remembered by the client.
	// Only read when IsEdit is set.
	Previous  models.Rankings
	IPHash    string
	UserAgent string
}

type Aggregator struct {
	repo   store.Repository
	locker lock.Locker
	mirror mirror.Publisher
	reads  syncx.SingleFlight
}

func New(repo store.Repository, locker lock.Locker, pub mirror.Publisher) *Aggregator {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if pub == nil {
		pub = mirror.Nop{}
	}
	return &Aggregator{
		repo:   repo,
		locker: locker,
		mirror: pub,
		reads:  syncx.NewSingleFlight(),
	}
}

// Submit validates a ballot and folds it into every category leaderboard of
// the game. All categories are written in one transaction; on failure nothing
// is stored.
func (a *Aggregator) Submit(ctx context.Context, req SubmitRequest) (*models.SubmitRankingsResponse, error) {
	if err := validateShape(req.Rankings); err != nil {
		return nil, err
	}

	participant := strings.TrimSpace(req.ParticipantID)
	if participant == "" {
		participant = auth.AnonymousParticipant()
	}

	unlock, err := a.locker.Lock(ctx, req.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game %s: %w", req.GameID, err)
	}
	defer unlock()

	var boards []models.CategoryLeaderboard
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		boards, err = a.submitOnce(ctx, req, participant)
		if !errors.Is(err, models.ErrConflict) {
			break
		}
		slog.Warn("leaderboard changed during submission", "game_id", req.GameID, "attempt", attempt, "error", err)
	}
	if err != nil {
		return nil, err
	}

	a.publish(ctx, req.GameID, boards)

	message := models.MessagePosted
	if req.IsEdit {
		message = models.MessageUpdated
	}
	slog.Info("rankings submitted", "game_id", req.GameID, "participant", participant, "edit", req.IsEdit)

	return &models.SubmitRankingsResponse{
		Status:        models.StatusOK,
		Message:       message,
		ParticipantID: participant,
	}, nil
}

// publish copies committed boards to the mirror. On failure the mirrored
// categories are dropped so Top falls back to the store instead of serving
// the previous copy.
func (a *Aggregator) publish(ctx context.Context, gameID string, boards []models.CategoryLeaderboard) {
	err := a.mirror.Publish(ctx, gameID, boards)
	if err == nil {
		return
	}
	slog.Error("failed to publish leaderboards", "game_id", gameID, "error", err)

	categories := make([]string, len(boards))
	for i, lb := range boards {
		categories[i] = lb.Category
	}
	if err := a.mirror.Remove(ctx, gameID, categories); err != nil {
		slog.Warn("failed to drop stale leaderboard mirror", "game_id", gameID, "error", err)
	}
}

func (a *Aggregator) submitOnce(ctx context.Context, req SubmitRequest, participant string) ([]models.CategoryLeaderboard, error) {
	var boards []models.CategoryLeaderboard

	err := a.repo.RunInTx(ctx, req.GameID, func(tx store.Tx) error {
		boards = boards[:0]

		game, err := tx.FindGameByID(ctx, req.GameID)
		if err != nil {
			return err
		}
		if err := validateBallot(game, req, participant); err != nil {
			return err
		}

		for _, category := range game.Categories {
			lb, err := tx.FindLeaderboard(ctx, game.ID, category)
			if err != nil {
				return fmt.Errorf("failed to load leaderboard %s: %w", category, err)
			}

			var previous []string
			if req.IsEdit {
				previous = req.Previous[category]
			}
			entries := Recompute(game.Items, lb, previous, req.Rankings[category])

			if lb == nil {
				created, err := tx.CreateLeaderboard(ctx, game.ID, category, entries)
				if err != nil {
					return fmt.Errorf("failed to create leaderboard %s: %w", category, err)
				}
				boards = append(boards, *created)
				continue
			}

			if err := tx.ReplaceLeaderboard(ctx, game.ID, category, lb.Version, entries); err != nil {
				return fmt.Errorf("failed to replace leaderboard %s: %w", category, err)
			}
			lb.Version++
			lb.Entries = entries
			boards = append(boards, *lb)
		}

		if req.IsEdit {
			return nil
		}

		if err := tx.AddParticipant(ctx, game.ID, models.Participant{
			ID:        participant,
			IPHash:    req.IPHash,
			UserAgent: req.UserAgent,
		}); err != nil {
			if errors.Is(err, models.ErrDuplicateVote) {
				return models.ErrDuplicateVote
			}
			return fmt.Errorf("failed to add participant: %w", err)
		}
		if err := tx.IncrementVoteCount(ctx, game.ID); err != nil {
			return fmt.Errorf("failed to increment vote count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// Recompute returns the new sorted entries of one category leaderboard.
//
// Without a current leaderboard the ballot seeds it and no item is flagged.
// Otherwise the previous ballot (if any) is subtracted, the new one added, and
// movement is measured against the stored order.
func Recompute(items []string, current *models.CategoryLeaderboard, previous, next []string) []models.LeaderboardEntry {
	totals := make(map[string]int, len(items))
	for _, item := range items {
		totals[item] = 0
	}

	if current == nil {
		ranking.Apply(totals, next, 1)
		order := ranking.SortByPoints(nil, items, totals)
		entries := make([]models.LeaderboardEntry, len(order))
		for i, item := range order {
			entries[i] = models.LeaderboardEntry{Item: item, Points: totals[item]}
		}
		return entries
	}

	for _, e := range current.Entries {
		if _, ok := totals[e.Item]; ok {
			totals[e.Item] = e.Points
		}
	}
	if previous != nil {
		ranking.Apply(totals, previous, -1)
	}
	ranking.Apply(totals, next, 1)

	prevOrder := current.Order()
	order := ranking.SortByPoints(prevOrder, items, totals)
	moves := ranking.Delta(prevOrder, order)

	entries := make([]models.LeaderboardEntry, len(order))
	for i, item := range order {
		m := moves[item]
		entries[i] = models.LeaderboardEntry{
			Item:     item,
			Points:   totals[item],
			Increase: m.Increase,
			Decrease: m.Decrease,
		}
	}
	return entries
}

// FetchResults projects the stored leaderboards of a game. Concurrent calls
// for the same game share one store read; the returned value must not be
// modified. The shared read ignores the caller's cancellation so one
// departing caller cannot fail the others waiting on it.
func (a *Aggregator) FetchResults(ctx context.Context, gameID string) (*models.Results, error) {
	shared := context.WithoutCancel(ctx)
	v, err := a.reads.Do(gameID, func() (any, error) {
		return a.loadResults(shared, gameID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Results), nil
}

func (a *Aggregator) loadResults(ctx context.Context, gameID string) (*models.Results, error) {
	game, err := a.repo.FindGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	boards, err := a.repo.FindLeaderboards(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboards: %w", err)
	}

	byCategory := make(map[string]models.CategoryLeaderboard, len(boards))
	for _, lb := range boards {
		byCategory[lb.Category] = lb
	}

	results := &models.Results{
		GameID:     game.ID,
		Title:      game.Title,
		VotingMode: game.VotingMode,
		VotesCount: game.VotesCount,
		Categories: make([]models.CategoryResults, 0, len(game.Categories)),
	}
	for _, c := range game.Categories {
		cr := models.CategoryResults{Name: c, Ranking: []models.RankingEntry{}}
		for _, e := range byCategory[c].Entries {
			cr.Ranking = append(cr.Ranking, models.RankingEntry{
				Item:     e.Item,
				Points:   e.Points,
				Increase: e.Increase,
				Decrease: e.Decrease,
			})
		}
		results.Categories = append(results.Categories, cr)
	}
	return results, nil
}

// Top returns the n best items of a category and where they were read from:
// "mirror" or "store".
func (a *Aggregator) Top(ctx context.Context, gameID, category string, n int) ([]models.RankingEntry, string, error) {
	if n <= 0 {
		return nil, "", fmt.Errorf("limit must be positive: %w", models.ErrValidation)
	}

	entries, err := a.mirror.Top(ctx, gameID, category, n)
	if err == nil {
		return entries, SourceMirror, nil
	}
	if !errors.Is(err, mirror.ErrUnavailable) {
		slog.Warn("failed to read leaderboard mirror", "game_id", gameID, "category", category, "error", err)
	}

	results, err := a.FetchResults(ctx, gameID)
	if err != nil {
		return nil, "", err
	}
	for _, c := range results.Categories {
		if c.Name != category {
			continue
		}
		top := c.Ranking
		if len(top) > n {
			top = top[:n]
		}
		out := make([]models.RankingEntry, len(top))
		copy(out, top)
		return out, SourceStore, nil
	}
	return nil, "", fmt.Errorf("category %q: %w", category, models.ErrNotFound)
}

// Sources reported by Top
const (
	SourceMirror = "mirror"
	SourceStore  = "store"
)
