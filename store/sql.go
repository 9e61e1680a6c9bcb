// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/rankem/db"
	"github.com/danielhkuo/rankem/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLStore struct {
	db      *sql.DB
	dialect string
}

func NewSQLStore(conn *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: conn, dialect: dialect}
}

// CreateGame inserts the game with its items and categories
func (s *SQLStore) CreateGame(ctx context.Context, game *models.Game) error {
	if err := checkGame(game); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = game.CreatedAt

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game (id, title, voting_mode, votes_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
	`, game.ID, game.Title, game.VotingMode, game.CreatedAt, game.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("game %s: %w", game.ID, models.ErrConflict)
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}

	for i, item := range game.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_item (game_id, position, name) VALUES ($1, $2, $3)
		`, game.ID, i, item); err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}
	for i, category := range game.Categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_category (game_id, position, name) VALUES ($1, $2, $3)
		`, game.ID, i, category); err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game: %w", err)
	}
	game.VotesCount = 0
	game.Participants = []string{}
	return nil
}

func (s *SQLStore) FindGameByID(ctx context.Context, id string) (*models.Game, error) {
	return findGame(ctx, s.db, id)
}

func (s *SQLStore) UpdateGameTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE game SET title = $1, updated_at = $2 WHERE id = $3
	`, title, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	return expectRow(res, "game "+id)
}

// DeleteGame removes the game and everything recorded for it
func (s *SQLStore) DeleteGame(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM leaderboard_entry WHERE game_id = $1`,
		`DELETE FROM leaderboard WHERE game_id = $1`,
		`DELETE FROM participant WHERE game_id = $1`,
		`DELETE FROM game_category WHERE game_id = $1`,
		`DELETE FROM game_item WHERE game_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete game data: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM game WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if err := expectRow(res, "game "+id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (s *SQLStore) FindLeaderboards(ctx context.Context, gameID string) ([]models.CategoryLeaderboard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category FROM leaderboard WHERE game_id = $1 ORDER BY category
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboards: %w", err)
	}
	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
		}
		categories = append(categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboards: %w", err)
	}

	boards := make([]models.CategoryLeaderboard, 0, len(categories))
	for _, c := range categories {
		lb, err := findLeaderboard(ctx, s.db, gameID, c)
		if err != nil {
			return nil, err
		}
		if lb != nil {
			boards = append(boards, *lb)
		}
	}
	return boards, nil
}

// ListPopularGames returns public games with at least one vote, ordered by
// average points per leaderboard entry and then by vote count
func (s *SQLStore) ListPopularGames(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return s.listGames(ctx, `
		SELECT g.id
		FROM game g
		JOIN leaderboard_entry e ON e.game_id = g.id
		WHERE g.votes_count > 0 AND g.voting_mode = $1
		GROUP BY g.id, g.votes_count
		ORDER BY AVG(e.points) DESC, g.votes_count DESC, g.id
		LIMIT $2
	`, models.ModePublic, limit)
}

// SearchGames matches the term against titles and category names,
// case-insensitively. Private games and games without votes are excluded.
func (s *SQLStore) SearchGames(ctx context.Context, term string, limit int) ([]models.Game, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return s.listGames(ctx, `
		SELECT g.id
		FROM game g
		WHERE g.votes_count > 0
		  AND g.voting_mode <> $1
		  AND (LOWER(g.title) LIKE $2 ESCAPE '\'
		       OR EXISTS (
		           SELECT 1 FROM game_category c
		           WHERE c.game_id = g.id AND LOWER(c.name) LIKE $2 ESCAPE '\'))
		ORDER BY g.votes_count DESC, g.updated_at DESC, g.id
		LIMIT $3
	`, models.ModePrivate, pattern, limit)
}

func (s *SQLStore) listGames(ctx context.Context, query string, args ...any) ([]models.Game, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read games: %w", err)
	}

	games := make([]models.Game, 0, len(ids))
	for _, id := range ids {
		g, err := findGame(ctx, s.db, id)
		if errors.Is(err, models.ErrNotFound) {
			continue // deleted in between
		}
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, nil
}

// RunInTx opens a transaction and locks the game row before calling fn
func (s *SQLStore) RunInTx(ctx context.Context, gameID string, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `SELECT id FROM game WHERE id = $1`
	if s.dialect == db.DialectPostgres {
		lockQuery += ` FOR UPDATE`
	}
	var id string
	err = tx.QueryRowContext(ctx, lockQuery, gameID).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("game %s: %w", gameID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock game: %w", err)
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) FindGameByID(ctx context.Context, id string) (*models.Game, error) {
	return findGame(ctx, t.tx, id)
}

func (t *sqlTx) FindLeaderboard(ctx context.Context, gameID, category string) (*models.CategoryLeaderboard, error) {
	return findLeaderboard(ctx, t.tx, gameID, category)
}

func (t *sqlTx) CreateLeaderboard(ctx context.Context, gameID, category string, entries []models.LeaderboardEntry) (*models.CategoryLeaderboard, error) {
	now := time.Now().UTC()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO leaderboard (game_id, category, version, updated_at)
		VALUES ($1, $2, 1, $3)
	`, gameID, category, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("leaderboard %s/%s: %w", gameID, category, models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert leaderboard: %w", err)
	}

	if err := insertEntries(ctx, t.tx, gameID, category, entries); err != nil {
		return nil, err
	}

	return &models.CategoryLeaderboard{
		GameID:    gameID,
		Category:  category,
		Version:   1,
		Entries:   append([]models.LeaderboardEntry(nil), entries...),
		UpdatedAt: now,
	}, nil
}

func (t *sqlTx) ReplaceLeaderboard(ctx context.Context, gameID, category string, expectedVersion int, entries []models.LeaderboardEntry) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE leaderboard SET version = version + 1, updated_at = $1
		WHERE game_id = $2 AND category = $3 AND version = $4
	`, time.Now().UTC(), gameID, category, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("leaderboard %s/%s changed since version %d: %w", gameID, category, expectedVersion, models.ErrConflict)
	}

	if _, err := t.tx.ExecContext(ctx, `
		DELETE FROM leaderboard_entry WHERE game_id = $1 AND category = $2
	`, gameID, category); err != nil {
		return fmt.Errorf("failed to clear leaderboard entries: %w", err)
	}
	return insertEntries(ctx, t.tx, gameID, category, entries)
}

func (t *sqlTx) AddParticipant(ctx context.Context, gameID string, p models.Participant) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO participant (game_id, participant_id, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, gameID, p.ID, nullString(p.IPHash), nullString(p.UserAgent), createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("participant %s: %w", p.ID, models.ErrDuplicateVote)
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (t *sqlTx) IncrementVoteCount(ctx context.Context, gameID string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE game SET votes_count = votes_count + 1, updated_at = $1 WHERE id = $2
	`, time.Now().UTC(), gameID)
	if err != nil {
		return fmt.Errorf("failed to increment vote count: %w", err)
	}
	return expectRow(res, "game "+gameID)
}

func findGame(ctx context.Context, q querier, id string) (*models.Game, error) {
	var g models.Game
	err := q.QueryRowContext(ctx, `
		SELECT id, title, voting_mode, votes_count, created_at, updated_at
		FROM game
		WHERE id = $1
	`, id).Scan(&g.ID, &g.Title, &g.VotingMode, &g.VotesCount, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query game: %w", err)
	}

	if g.Items, err = queryStrings(ctx, q, `
		SELECT name FROM game_item WHERE game_id = $1 ORDER BY position
	`, id); err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	if g.Categories, err = queryStrings(ctx, q, `
		SELECT name FROM game_category WHERE game_id = $1 ORDER BY position
	`, id); err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	if g.Participants, err = queryStrings(ctx, q, `
		SELECT participant_id FROM participant WHERE game_id = $1 ORDER BY created_at, participant_id
	`, id); err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}

	return &g, nil
}

func findLeaderboard(ctx context.Context, q querier, gameID, category string) (*models.CategoryLeaderboard, error) {
	lb := models.CategoryLeaderboard{GameID: gameID, Category: category}
	err := q.QueryRowContext(ctx, `
		SELECT version, updated_at FROM leaderboard WHERE game_id = $1 AND category = $2
	`, gameID, category).Scan(&lb.Version, &lb.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT item, points, increase, decrease
		FROM leaderboard_entry
		WHERE game_id = $1 AND category = $2
		ORDER BY position
	`, gameID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard entries: %w", err)
	}
	defer rows.Close()

	lb.Entries = []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Item, &e.Points, &e.Increase, &e.Decrease); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		lb.Entries = append(lb.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard entries: %w", err)
	}
	return &lb, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, gameID, category string, entries []models.LeaderboardEntry) error {
	for i, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO leaderboard_entry (game_id, category, position, item, points, increase, decrease)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, gameID, category, i, e.Item, e.Points, e.Increase, e.Decrease)
		if err != nil {
			return fmt.Errorf("failed to insert leaderboard entry: %w", err)
		}
	}
	return nil
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// isUniqueViolation recognizes duplicate-key errors from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
