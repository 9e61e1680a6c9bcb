// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/danielhkuo/rankem/models"
)

// ErrUnavailable is returned by readers that hold no copy of the data
var ErrUnavailable = errors.New("leaderboard mirror unavailable")

// Publisher keeps a read copy of committed leaderboards
type Publisher interface {
	Publish(ctx context.Context, gameID string, boards []models.CategoryLeaderboard) error
	Top(ctx context.Context, gameID, category string, n int) ([]models.RankingEntry, error)
	Remove(ctx context.Context, gameID string, categories []string) error
}

// Nop publishes nothing. Top always fails with ErrUnavailable.
type Nop struct{}

func (Nop) Publish(context.Context, string, []models.CategoryLeaderboard) error { return nil }

func (Nop) Top(context.Context, string, string, int) ([]models.RankingEntry, error) {
	return nil, ErrUnavailable
}

func (Nop) Remove(context.Context, string, []string) error { return nil }

// RedisMirror stores two keys per (game, category): a sorted set of items
// scored by their position in the stored leaderboard, and a hash of item to
// its encoded entry. Reading both yields the leaderboard in stored order with
// points and movement flags.
type RedisMirror struct {
	client *redis.Client
}

func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func key(gameID, category string) string {
	return fmt.Sprintf("rankem:leaderboard:%s:%s", gameID, category)
}

func entriesKey(gameID, category string) string {
	return key(gameID, category) + ":entries"
}

// mirroredEntry is the hash value kept per item
type mirroredEntry struct {
	Points   int  `json:"p"`
	Increase bool `json:"i,omitempty"`
	Decrease bool `json:"d,omitempty"`
}

// Publish rebuilds both keys of every category in one MULTI/EXEC
func (m *RedisMirror) Publish(ctx context.Context, gameID string, boards []models.CategoryLeaderboard) error {
	pipe := m.client.TxPipeline()
	for _, lb := range boards {
		zsetKey := key(gameID, lb.Category)
		hashKey := entriesKey(gameID, lb.Category)
		pipe.Del(ctx, zsetKey, hashKey)
		if len(lb.Entries) == 0 {
			continue
		}

		members := make([]*redis.Z, 0, len(lb.Entries))
		fields := make(map[string]interface{}, len(lb.Entries))
		for i, e := range lb.Entries {
			members = append(members, &redis.Z{
				Score:  float64(i),
				Member: e.Item,
			})
			raw, err := json.Marshal(mirroredEntry{Points: e.Points, Increase: e.Increase, Decrease: e.Decrease})
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", e.Item, err)
			}
			fields[e.Item] = string(raw)
		}
		pipe.ZAdd(ctx, zsetKey, members...)
		pipe.HSet(ctx, hashKey, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update redis leaderboard: %w", err)
	}
	return nil
}

// Top returns the first n entries in stored order. Both keys are read in one
// MULTI/EXEC so a concurrent Publish is seen entirely or not at all.
func (m *RedisMirror) Top(ctx context.Context, gameID, category string, n int) ([]models.RankingEntry, error) {
	var order *redis.StringSliceCmd
	var fields *redis.StringStringMapCmd
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		order = pipe.ZRange(ctx, key(gameID, category), 0, int64(n-1))
		fields = pipe.HGetAll(ctx, entriesKey(gameID, category))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read redis leaderboard: %w", err)
	}
	return assemble(order.Val(), fields.Val())
}

// assemble joins the ordered items with their hash values. Any gap means
// the copy is incomplete and the caller should read the store.
func assemble(order []string, fields map[string]string) ([]models.RankingEntry, error) {
	if len(order) == 0 {
		return nil, ErrUnavailable
	}
	entries := make([]models.RankingEntry, 0, len(order))
	for _, item := range order {
		raw, ok := fields[item]
		if !ok {
			return nil, fmt.Errorf("no entry for %q: %w", item, ErrUnavailable)
		}
		var e mirroredEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("bad entry for %q: %w", item, ErrUnavailable)
		}
		entries = append(entries, models.RankingEntry{
			Item:     item,
			Points:   e.Points,
			Increase: e.Increase,
			Decrease: e.Decrease,
		})
	}
	return entries, nil
}

func (m *RedisMirror) Remove(ctx context.Context, gameID string, categories []string) error {
	if len(categories) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(categories))
	for _, c := range categories {
		keys = append(keys, key(gameID, c), entriesKey(gameID, c))
	}
	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to remove redis leaderboard: %w", err)
	}
	return nil
}
