package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
)

// StandingsService recomputes and persists a group's ranked standings from
// its match results. It is invoked synchronously whenever a group match score
// changes.
type StandingsService interface {
	Recalculate(ctx context.Context, groupID int) ([]models.GroupPlayer, error)
	Standings(ctx context.Context, groupID int) ([]models.GroupPlayer, error)
}

type standingsService struct {
	groupRepo repositories.GroupRepository
	matchRepo repositories.MatchRepository
}

func NewStandingsService(groupRepo repositories.GroupRepository, matchRepo repositories.MatchRepository) StandingsService {
	return &standingsService{groupRepo: groupRepo, matchRepo: matchRepo}
}

func (s *standingsService) Recalculate(ctx context.Context, groupID int) ([]models.GroupPlayer, error) {
	roster, err := s.groupRepo.ListRoster(ctx, nil, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for group %d: %w", groupID, err)
	}
	if len(roster) == 0 {
		return nil, ErrGroupNotFound
	}

	matches, err := s.matchRepo.ListByGroup(ctx, nil, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for group %d: %w", groupID, err)
	}

	rows := brackets.ComputeStandings(roster, derefMatches(matches))
	if err := s.groupRepo.UpdateStandings(ctx, nil, groupID, rows); err != nil {
		return nil, fmt.Errorf("failed to persist standings for group %d: %w", groupID, err)
	}
	return rows, nil
}

// Standings returns the persisted standings in rank order. A roster that has
// never been ranked is returned in seat order.
func (s *standingsService) Standings(ctx context.Context, groupID int) ([]models.GroupPlayer, error) {
	roster, err := s.groupRepo.ListRoster(ctx, nil, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	rows := make([]models.GroupPlayer, len(roster))
	copy(rows, roster)
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Rank, rows[j].Rank
		if ri == nil || rj == nil {
			return rows[i].Seat < rows[j].Seat
		}
		return *ri < *rj
	})
	return rows, nil
}
