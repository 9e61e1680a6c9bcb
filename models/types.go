// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Voting mode constants
const (
	ModePublic      = "public"
	ModePrivate     = "private"
	ModeRestrictive = "restrictive"
)

// Submission status constants
const (
	StatusOK = "ok"
)

// Aggregator messages returned to the caller
const (
	MessagePosted  = "Rankings posted"
	MessageUpdated = "Rankings updated"
)

// AnonymousPrefix marks participant identifiers synthesized for voters who
// did not give a name.
const AnonymousPrefix = "Anonymous_"

// Request types

type CreateGameRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Items      []string `json:"items" validate:"required,min=1,unique,dive,required"`
	Categories []string `json:"categories" validate:"required,min=1,unique,dive,required"`
	VotingMode string   `json:"voting_mode" validate:"omitempty,oneof=public private restrictive"`
}

type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// category name -> ordered item names (rank 1 first)
type Rankings map[string][]string

type SubmitRankingsRequest struct {
	Rankings         Rankings `json:"rankings"`
	Identity         string   `json:"identity,omitempty"`
	IsEditing        bool     `json:"is_editing"`
	PreviousRankings Rankings `json:"previous_rankings,omitempty"`
}

// Response types

type CreateGameResponse struct {
	GameID   string `json:"game_id"`
	AdminKey string `json:"admin_key"`
}

type SubmitRankingsResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	ParticipantID string `json:"participant_id"`
}

type GameListResponse struct {
	Games []GameSummary `json:"games"`
}

type MyGamesResponse struct {
	Games []MyGame `json:"games"`
}

type MyGame struct {
	Game    GameSummary `json:"game"`
	Results *Results    `json:"results"`
}

type TopResponse struct {
	Category string         `json:"category"`
	Ranking  []RankingEntry `json:"ranking"`
	Source   string         `json:"source"`
}

// Domain types

type Game struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Items        []string  `json:"items"`
	Categories   []string  `json:"categories"`
	VotingMode   string    `json:"voting_mode"`
	Participants []string  `json:"participants"`
	VotesCount   int       `json:"votes_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasParticipant reports whether id has already voted in the game.
func (g *Game) HasParticipant(id string) bool {
	for _, p := range g.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// HasCategory reports whether name is one of the game's categories.
func (g *Game) HasCategory(name string) bool {
	for _, c := range g.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// HasItem reports whether name is one of the game's items.
func (g *Game) HasItem(name string) bool {
	for _, it := range g.Items {
		if it == name {
			return true
		}
	}
	return false
}

// Participant is a voter recorded in a game's participant set.
type Participant struct {
	ID        string    `json:"id"`
	IPHash    string    `json:"-"` // Never expose in JSON
	UserAgent string    `json:"-"` // Never expose in JSON
	CreatedAt time.Time `json:"created_at"`
}

type GameSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories"`
	Items      []string  `json:"items"`
	VotingMode string    `json:"voting_mode"`
	VotesCount int       `json:"votes_count"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedAgo string    `json:"created_ago"`
}

// LeaderboardEntry is one item's running total inside a category.
type LeaderboardEntry struct {
	Item     string `json:"item"`
	Points   int    `json:"points"`
	Increase bool   `json:"increase"`
	Decrease bool   `json:"decrease"`
}

// CategoryLeaderboard holds the aggregated points of one (game, category).
// Entries are kept in the sorted order of the last recomputation.
type CategoryLeaderboard struct {
	GameID    string             `json:"game_id"`
	Category  string             `json:"category"`
	Version   int                `json:"version"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Order returns the item names in stored order.
func (lb *CategoryLeaderboard) Order() []string {
	order := make([]string, len(lb.Entries))
	for i, e := range lb.Entries {
		order[i] = e.Item
	}
	return order
}

// Points returns item -> points.
func (lb *CategoryLeaderboard) Points() map[string]int {
	points := make(map[string]int, len(lb.Entries))
	for _, e := range lb.Entries {
		points[e.Item] = e.Points
	}
	return points
}

// Results types

type RankingEntry struct {
	Item     string `json:"item"`
	Points   int    `json:"points"`
	Increase bool   `json:"increase"`
	Decrease bool   `json:"decrease"`
}

type CategoryResults struct {
	Name    string         `json:"name"`
	Ranking []RankingEntry `json:"ranking"`
}

type Results struct {
	GameID     string            `json:"game_id"`
	Title      string            `json:"title"`
	VotingMode string            `json:"voting_mode"`
	VotesCount int               `json:"votes_count"`
	Categories []CategoryResults `json:"categories"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
