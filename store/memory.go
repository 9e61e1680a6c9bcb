// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/rankem/models"
)

type memGame struct {
	game         models.Game
	participants []models.Participant
	boards       map[string]*models.CategoryLeaderboard
}

func (g *memGame) clone() *memGame {
	c := &memGame{
		game:         cloneGame(&g.game),
		participants: append([]models.Participant(nil), g.participants...),
		boards:       make(map[string]*models.CategoryLeaderboard, len(g.boards)),
	}
	for k, lb := range g.boards {
		c.boards[k] = cloneBoard(lb)
	}
	return c
}

// MemoryStore keeps everything in process memory. Transactions work on a
// copy of the game and swap it in on success.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]*memGame
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*memGame)}
}

func (s *MemoryStore) CreateGame(ctx context.Context, game *models.Game) error {
	if err := checkGame(game); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[game.ID]; ok {
		return fmt.Errorf("game %s: %w", game.ID, models.ErrConflict)
	}
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC()
	}
	game.UpdatedAt = game.CreatedAt
	game.VotesCount = 0
	game.Participants = []string{}

	s.games[game.ID] = &memGame{
		game:   cloneGame(game),
		boards: make(map[string]*models.CategoryLeaderboard),
	}
	return nil
}

func (s *MemoryStore) FindGameByID(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	game := cloneGame(&g.game)
	return &game, nil
}

func (s *MemoryStore) UpdateGameTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	g.game.Title = title
	g.game.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) DeleteGame(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	delete(s.games, id)
	return nil
}

func (s *MemoryStore) FindLeaderboards(ctx context.Context, gameID string) ([]models.CategoryLeaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return []models.CategoryLeaderboard{}, nil
	}
	boards := make([]models.CategoryLeaderboard, 0, len(g.boards))
	for _, lb := range g.boards {
		boards = append(boards, *cloneBoard(lb))
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].Category < boards[j].Category })
	return boards, nil
}

func (s *MemoryStore) ListPopularGames(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		game models.Game
		avg  float64
	}
	var candidates []scored
	for _, g := range s.games {
		if g.game.VotesCount == 0 || g.game.VotingMode != models.ModePublic {
			continue
		}
		total, n := 0, 0
		for _, lb := range g.boards {
			for _, e := range lb.Entries {
				total += e.Points
				n++
			}
		}
		if n == 0 {
			continue
		}
		candidates = append(candidates, scored{game: cloneGame(&g.game), avg: float64(total) / float64(n)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.avg != b.avg {
			return a.avg > b.avg
		}
		if a.game.VotesCount != b.game.VotesCount {
			return a.game.VotesCount > b.game.VotesCount
		}
		return a.game.ID < b.game.ID
	})

	games := []models.Game{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		games = append(games, candidates[i].game)
	}
	return games, nil
}

func (s *MemoryStore) SearchGames(ctx context.Context, term string, limit int) ([]models.Game, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	term = strings.ToLower(term)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Game
	for _, g := range s.games {
		if g.game.VotesCount == 0 || g.game.VotingMode == models.ModePrivate {
			continue
		}
		if gameMatches(&g.game, term) {
			matches = append(matches, cloneGame(&g.game))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.VotesCount != b.VotesCount {
			return a.VotesCount > b.VotesCount
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []models.Game{}
	}
	return matches, nil
}

func gameMatches(g *models.Game, term string) bool {
	if strings.Contains(strings.ToLower(g.Title), term) {
		return true
	}
	for _, c := range g.Categories {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	return false
}

// RunInTx holds the store lock for the whole transaction
func (s *MemoryStore) RunInTx(ctx context.Context, gameID string, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game %s: %w", gameID, models.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	work := g.clone()
	if err := fn(&memTx{gameID: gameID, g: work}); err != nil {
		return err
	}
	s.games[gameID] = work
	return nil
}

type memTx struct {
	gameID string
	g      *memGame
}

func (t *memTx) check(gameID string) error {
	if gameID != t.gameID {
		return fmt.Errorf("game %s is outside this transaction: %w", gameID, models.ErrNotFound)
	}
	return nil
}

func (t *memTx) FindGameByID(ctx context.Context, id string) (*models.Game, error) {
	if err := t.check(id); err != nil {
		return nil, err
	}
	game := cloneGame(&t.g.game)
	return &game, nil
}

func (t *memTx) FindLeaderboard(ctx context.Context, gameID, category string) (*models.CategoryLeaderboard, error) {
	if err := t.check(gameID); err != nil {
		return nil, err
	}
	lb, ok := t.g.boards[category]
	if !ok {
		return nil, nil
	}
	return cloneBoard(lb), nil
}

func (t *memTx) CreateLeaderboard(ctx context.Context, gameID, category string, entries []models.LeaderboardEntry) (*models.CategoryLeaderboard, error) {
	if err := t.check(gameID); err != nil {
		return nil, err
	}
	if _, ok := t.g.boards[category]; ok {
		return nil, fmt.Errorf("leaderboard %s/%s: %w", gameID, category, models.ErrConflict)
	}
	lb := &models.CategoryLeaderboard{
		GameID:    gameID,
		Category:  category,
		Version:   1,
		Entries:   append([]models.LeaderboardEntry(nil), entries...),
		UpdatedAt: time.Now().UTC(),
	}
	t.g.boards[category] = lb
	return cloneBoard(lb), nil
}

func (t *memTx) ReplaceLeaderboard(ctx context.Context, gameID, category string, expectedVersion int, entries []models.LeaderboardEntry) error {
	if err := t.check(gameID); err != nil {
		return err
	}
	lb, ok := t.g.boards[category]
	if !ok || lb.Version != expectedVersion {
		return fmt.Errorf("leaderboard %s/%s changed since version %d: %w", gameID, category, expectedVersion, models.ErrConflict)
	}
	lb.Version++
	lb.Entries = append([]models.LeaderboardEntry(nil), entries...)
	lb.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memTx) AddParticipant(ctx context.Context, gameID string, p models.Participant) error {
	if err := t.check(gameID); err != nil {
		return err
	}
	if t.g.game.HasParticipant(p.ID) {
		return fmt.Errorf("participant %s: %w", p.ID, models.ErrDuplicateVote)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	t.g.participants = append(t.g.participants, p)
	t.g.game.Participants = append(t.g.game.Participants, p.ID)
	return nil
}

func (t *memTx) IncrementVoteCount(ctx context.Context, gameID string) error {
	if err := t.check(gameID); err != nil {
		return err
	}
	t.g.game.VotesCount++
	t.g.game.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneGame(g *models.Game) models.Game {
	c := *g
	c.Items = append([]string(nil), g.Items...)
	c.Categories = append([]string(nil), g.Categories...)
	c.Participants = append([]string{}, g.Participants...)
	return c
}

func cloneBoard(lb *models.CategoryLeaderboard) *models.CategoryLeaderboard {
	c := *lb
	c.Entries = append([]models.LeaderboardEntry(nil), lb.Entries...)
	return &c
}
