package services

import (
	"context"
	"fmt"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
)

// attachPlayers resolves the player references of the given matches in one
// batched lookup.
func attachPlayers(ctx context.Context, playerRepo repositories.PlayerRepository, matches []*models.Match) error {
	idSet := make(map[int]struct{})
	for _, m := range matches {
		for _, id := range []*int{m.Player1ID, m.Player2ID, m.WinnerID} {
			if id != nil {
				idSet[*id] = struct{}{}
			}
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]int, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	players, err := playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve match players: %w", err)
	}

	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for _, m := range matches {
		if m.Player1ID != nil {
			m.Player1 = byID[*m.Player1ID]
		}
		if m.Player2ID != nil {
			m.Player2 = byID[*m.Player2ID]
		}
		if m.WinnerID != nil {
			m.Winner = byID[*m.WinnerID]
		}
	}
	return nil
}

func derefMatches(matches []*models.Match) []models.Match {
	out := make([]models.Match, len(matches))
	for i, m := range matches {
		out[i] = *m
	}
	return out
}
