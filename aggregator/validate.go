// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregator

import (
	"fmt"

	"github.com/danielhkuo/rankem/models"
)

// validateShape rejects ballots that are malformed regardless of the game
func validateShape(rankings models.Rankings) error {
	if len(rankings) == 0 {
		return fmt.Errorf("no rankings submitted: %w", models.ErrValidation)
	}
	for category, order := range rankings {
		if len(order) == 0 {
			return fmt.Errorf("empty ranking for category %q: %w", category, models.ErrValidation)
		}
		seen := make(map[string]bool, len(order))
		for _, item := range order {
			if seen[item] {
				return fmt.Errorf("item %q ranked twice in category %q: %w", item, category, models.ErrValidation)
			}
			seen[item] = true
		}
	}
	return nil
}

// validateBallot checks a ballot against the game it is cast in
func validateBallot(game *models.Game, req SubmitRequest, participant string) error {
	for category := range req.Rankings {
		if !game.HasCategory(category) {
			return fmt.Errorf("unknown category %q: %w", category, models.ErrValidation)
		}
	}
	for _, category := range game.Categories {
		order, ok := req.Rankings[category]
		if !ok {
			return fmt.Errorf("missing ranking for category %q: %w", category, models.ErrValidation)
		}
		for _, item := range order {
			if !game.HasItem(item) {
				return fmt.Errorf("unknown item %q in category %q: %w", item, category, models.ErrValidation)
			}
		}
	}

	if game.VotingMode == models.ModeRestrictive && !game.HasItem(participant) {
		return fmt.Errorf("participant %q is not one of the game's items: %w", participant, models.ErrValidation)
	}

	if !req.IsEdit && game.HasParticipant(participant) {
		return models.ErrDuplicateVote
	}
	return nil
}
